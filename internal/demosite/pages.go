package demosite

// SamplePages returns the built-in sample portfolios, from a polished site
// that passes nearly every check down to an unrendered SPA shell.
func SamplePages() []PageDefinition {
	return []PageDefinition{
		{
			Path:        "/complete",
			Name:        "Complete portfolio",
			Description: "passes nearly every rubric check",
			HTML:        completePortfolioHTML,
		},
		{
			Path:        "/minimal",
			Name:        "Minimal portfolio",
			Description: "bare page missing most sections",
			HTML:        minimalPortfolioHTML,
		},
		{
			Path:        "/spa",
			Name:        "SPA shell",
			Description: "unrendered single-page-app skeleton",
			HTML:        spaShellHTML,
		},
	}
}

const completePortfolioHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Maya Okafor - Frontend Developer</title>
<style>
body { font-family: sans-serif; margin: 0; }
@media (max-width: 600px) { .grid { display: block; } }
</style>
</head>
<body>
<nav>
  <a href="#about">About</a>
  <a href="#projects">Projects</a>
  <a href="#skills">Skills</a>
  <a href="#contact">Contact</a>
</nav>

<section id="about">
  <h1>Maya Okafor</h1>
  <img class="profile-photo" src="/static/maya.jpg" alt="Maya Okafor professional headshot">
  <p>I am a frontend developer with three years of experience building accessible,
  performant web applications. I enjoy turning rough product ideas into polished
  interfaces and care deeply about the details that make software pleasant to use.</p>
</section>

<section id="projects">
  <h2>Projects</h2>
  <div class="grid">
    <div class="project-card">
      <img src="/static/tracker.png" alt="Habit tracker dashboard screenshot">
      <h3>Habit Tracker</h3>
      <p>A daily habit tracker built with React and TypeScript, featuring streak
      tracking, charts and offline support through a service worker.</p>
      <a href="https://habit-tracker-demo.vercel.app" target="_blank" rel="noopener">Live Demo</a>
      <a href="https://github.com/mayaokafor/habit-tracker" target="_blank" rel="noopener">GitHub</a>
    </div>
    <div class="project-card">
      <img src="/static/recipes.png" alt="Recipe search results page">
      <h3>Recipe Finder</h3>
      <p>Recipe search app using Vue and a public food API, with ingredient-based
      filtering and a shopping list export.</p>
      <a href="https://recipe-finder-mo.netlify.app" target="_blank" rel="noopener">Live Demo</a>
      <a href="https://github.com/mayaokafor/recipe-finder" target="_blank" rel="noopener">GitHub</a>
    </div>
    <div class="project-card">
      <img src="/static/weather.png" alt="Weather dashboard with forecast cards">
      <h3>Weather Dashboard</h3>
      <p>Weather dashboard in Svelte with geolocation, hourly forecasts and a
      Node.js proxy that caches upstream API responses.</p>
      <a href="https://weather-mo.onrender.com" target="_blank" rel="noopener">Live Demo</a>
      <a href="https://github.com/mayaokafor/weather-dashboard" target="_blank" rel="noopener">GitHub</a>
    </div>
  </div>
</section>

<section id="skills">
  <h2>Skills</h2>
  <ul>
    <li class="skill">JavaScript / TypeScript</li>
    <li class="skill">React and Vue</li>
    <li class="skill">Node.js and Express</li>
    <li class="skill">PostgreSQL</li>
    <li class="skill">Docker and CI pipelines</li>
  </ul>
</section>

<section id="contact">
  <h2>Contact</h2>
  <p>Reach me on
    <a href="https://linkedin.com/in/mayaokafor" target="_blank" rel="noopener">LinkedIn</a>
    or browse my code on
    <a href="https://github.com/mayaokafor" target="_blank" rel="noopener">GitHub</a>.
  </p>
</section>
</body>
</html>`

const minimalPortfolioHTML = `<!DOCTYPE html>
<html>
<head><title>my site</title></head>
<body>
<h1>welcome</h1>
<p>this is my website. i definately plan to add more soon.</p>
<a href="#">my project</a>
<img src="/static/pic.jpg">
</body>
</html>`

const spaShellHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Portfolio</title>
</head>
<body>
<div id="root"></div>
<script src="/static/js/main.3f2a1b.js"></script>
</body>
</html>`

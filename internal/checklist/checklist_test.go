package checklist

import (
	"math"
	"strings"
	"testing"
)

const completePortfolio = `<!DOCTYPE html>
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>@media (max-width: 600px) { body { font-size: 14px; } }</style>
</head>
<body>
<nav>
  <a href="#about">About</a>
  <a href="#projects">Projects</a>
  <a href="#skills">Skills</a>
  <a href="#contact">Contact</a>
</nav>
<section id="about">
  <h1>Jane Doe</h1>
  <img src="/img/profile-photo.jpg" alt="profile photo of Jane Doe">
  <p>I am a frontend developer with three years of experience building accessible and performant web applications for small businesses.</p>
</section>
<section id="projects">
  <div class="project-card">
    <h3>Weather Dashboard</h3>
    <img src="/img/weather.png" alt="weather dashboard screenshot">
    <p>A weather dashboard built with React and TypeScript showing hourly and weekly forecasts with interactive charts.</p>
    <a href="https://github.com/janedoe/weather" target="_blank">Code</a>
    <a href="https://weather-jane.vercel.app" target="_blank">Live</a>
  </div>
  <div class="project-card">
    <h3>Recipe Finder</h3>
    <img src="/img/recipes.png" alt="recipe finder screenshot">
    <p>Full-stack recipe search with Node and Express backend, MongoDB storage and a responsive Tailwind frontend.</p>
    <a href="https://github.com/janedoe/recipes" target="_blank">Code</a>
    <a href="https://recipes-jane.netlify.app" target="_blank">Live</a>
  </div>
  <div class="project-card">
    <h3>Task Tracker</h3>
    <img src="/img/tasks.png" alt="task tracker screenshot">
    <p>Kanban-style task tracker using Vue with drag and drop, offline support and Postgres persistence.</p>
    <a href="https://github.com/janedoe/tasks" target="_blank">Code</a>
    <a href="https://tasks-jane.onrender.com" target="_blank">Live</a>
  </div>
</section>
<section id="skills">
  <h2>Skills</h2>
  <ul>
    <li class="skill">React</li>
    <li class="skill">TypeScript</li>
    <li class="skill">Node</li>
    <li class="skill">CSS</li>
  </ul>
</section>
<section id="contact">
  <h2>Contact</h2>
  <a href="https://www.linkedin.com/in/janedoe" target="_blank">LinkedIn</a>
  <a href="https://github.com/janedoe" target="_blank">GitHub</a>
</section>
</body>
</html>`

const pageURL = "https://janedoe.dev"

func TestKeys_Complete(t *testing.T) {
	keys := Keys()
	if len(keys) != 26 {
		t.Fatalf("len(Keys()) = %d, want 26", len(keys))
	}
	seen := map[Key]bool{}
	for _, k := range keys {
		if seen[k] {
			t.Errorf("duplicate key %s", k)
		}
		seen[k] = true
	}
}

func TestEvaluate_CompletePortfolio(t *testing.T) {
	cl, err := Evaluate(completePortfolio, pageURL)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	for _, k := range Keys() {
		it, ok := cl[k]
		if !ok {
			t.Fatalf("missing key %s", k)
		}
		if !it.Pass {
			t.Errorf("%s failed: %v", k, it.Details)
		}
	}

	if got := Score(cl); got != 100 {
		t.Errorf("Score = %v, want 100", got)
	}
}

func TestEvaluate_EmptyPage(t *testing.T) {
	cl, err := Evaluate("<html><body></body></html>", "https://example.com")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if cl[AboutSection].Pass {
		t.Error("about_section should fail on empty page")
	}
	if cl[ProjectsSection].Pass {
		t.Error("projects_section should fail on empty page")
	}
	// Vacuous passes: no images to check, no typos, HTTPS URL
	if !cl[NoDesignIssues].Pass {
		t.Error("no_design_issues should pass with zero images")
	}
	if !cl[GrammarChecked].Pass {
		t.Error("grammar_checked should pass with no text")
	}
	if !cl[ProfessionalURL].Pass {
		t.Error("professional_url should pass for https")
	}

	if got := Score(cl); got >= 20 {
		t.Errorf("Score = %v, want < 20 for empty page", got)
	}
}

func TestEvaluate_MissingProjects(t *testing.T) {
	html := strings.Replace(completePortfolio, `id="projects"`, `id="other"`, 1)
	// Remove project class markers so loose strategies don't resurrect them
	html = strings.ReplaceAll(html, `class="project-card"`, `class="x"`)

	cl, err := Evaluate(html, pageURL)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !cl[AboutSection].Pass {
		t.Error("about_section should still pass")
	}
	score := Score(cl)
	full, _ := Evaluate(completePortfolio, pageURL)
	if score >= Score(full) {
		t.Errorf("score without projects (%v) should be below full score (%v)", score, Score(full))
	}
}

func TestEvaluate_ProjectMinimumCount(t *testing.T) {
	// Keep only the first project card
	start := strings.Index(completePortfolio, `<div class="project-card">`)
	second := strings.Index(completePortfolio[start+1:], `<div class="project-card">`) + start + 1
	end := strings.Index(completePortfolio, `</section>
<section id="skills">`)
	html := completePortfolio[:second] + completePortfolio[end:]

	cl, err := Evaluate(html, pageURL)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !cl[ProjectsSection].Pass {
		t.Fatal("projects_section should pass")
	}
	if cl[ProjectsMinimum].Pass {
		t.Error("projects_minimum should fail with one project")
	}
	if !cl[ProjectsSamples].Pass {
		t.Error("projects_samples should pass with one project")
	}
}

func TestEvaluate_Typos(t *testing.T) {
	html := strings.Replace(completePortfolio,
		"I am a frontend developer",
		"I am teh frontend developer who will definately recieve offers", 1)

	cl, err := Evaluate(html, pageURL)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if cl[GrammarChecked].Pass {
		t.Errorf("grammar_checked should fail, details: %v", cl[GrammarChecked].Details)
	}
}

func TestEvaluate_ExternalLinksWithoutTarget(t *testing.T) {
	html := strings.ReplaceAll(completePortfolio, ` target="_blank"`, "")

	cl, err := Evaluate(html, pageURL)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if cl[ExternalLinksNewTab].Pass {
		t.Error("external_links_new_tab should fail when target attributes are missing")
	}
}

func TestEvaluate_NonProfessionalURL(t *testing.T) {
	cl, err := Evaluate(completePortfolio, "http://localhost:3000")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if cl[ProfessionalURL].Pass {
		t.Error("professional_url should fail for http localhost")
	}
}

func TestEvaluate_HeadingBasedSection(t *testing.T) {
	html := `<html><body>
<div>
  <h2>About Me</h2>
  <p>I build things for the web and care deeply about accessibility and performance in everything I ship.</p>
</div>
</body></html>`

	cl, err := Evaluate(html, "https://example.dev")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !cl[AboutSection].Pass {
		t.Error("about_section should be found via heading text")
	}
	if !cl[AboutIntro].Pass {
		t.Error("about_intro should pass via heading-derived container")
	}
}

func TestScore_Weights(t *testing.T) {
	cl := NewChecklist()
	if got := Score(cl); got != 0 {
		t.Errorf("empty checklist score = %v, want 0", got)
	}

	// Pass only the projects category: 30% of the total
	for _, k := range Keys() {
		if CategoryOf(k) == CategoryProjects {
			cl[k].Pass = true
		}
	}
	if got := Score(cl); got != 30 {
		t.Errorf("projects-only score = %v, want 30", got)
	}
}

func TestScore_WholeNumber(t *testing.T) {
	cl := NewChecklist()
	// One of seven technical checks: 0.20 * 1/7 * 100 rounds to 3, not 2.9
	for _, k := range Keys() {
		if CategoryOf(k) == CategoryTechnical {
			cl[k].Pass = true
			break
		}
	}
	got := Score(cl)
	if got != 3 {
		t.Errorf("single technical pass score = %v, want 3", got)
	}
	if got != math.Trunc(got) {
		t.Errorf("score = %v, want a whole number", got)
	}
}

func TestEvaluate_LinkChecksExplainZeroLinks(t *testing.T) {
	cl, err := Evaluate("<html><body><p>hello</p></body></html>", "https://example.com")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if cl[LinksCorrect].Pass || len(cl[LinksCorrect].Details) == 0 {
		t.Errorf("links_correct = pass %v details %v, want failure with a reason",
			cl[LinksCorrect].Pass, cl[LinksCorrect].Details)
	}
	if cl[ExternalLinksNewTab].Pass || len(cl[ExternalLinksNewTab].Details) == 0 {
		t.Errorf("external_links_new_tab = pass %v details %v, want failure with a reason",
			cl[ExternalLinksNewTab].Pass, cl[ExternalLinksNewTab].Details)
	}

	// Internal-only links: anchors exist but no external ones
	cl, err = Evaluate(`<html><body><a href="#about">About</a></body></html>`, "https://example.com")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if cl[ExternalLinksNewTab].Pass || len(cl[ExternalLinksNewTab].Details) == 0 {
		t.Errorf("external_links_new_tab = pass %v details %v, want failure with a reason",
			cl[ExternalLinksNewTab].Pass, cl[ExternalLinksNewTab].Details)
	}
}

func TestBreakdown(t *testing.T) {
	cl, err := Evaluate(completePortfolio, pageURL)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	bd := Breakdown(cl)
	if len(bd) != 5 {
		t.Fatalf("len(Breakdown) = %d, want 5", len(bd))
	}
	totals := 0
	for _, b := range bd {
		totals += b.Total
	}
	if totals != 26 {
		t.Errorf("breakdown totals = %d, want 26", totals)
	}
}

func TestResourcesFor(t *testing.T) {
	cl := NewChecklist() // everything failed
	resources := ResourcesFor(cl)
	if len(resources) != 3 {
		t.Fatalf("len(resources) = %d, want 3 (capped)", len(resources))
	}
	if resources[0].Title != "Creating an Effective About Section" {
		t.Errorf("first resource = %q", resources[0].Title)
	}

	full, _ := Evaluate(completePortfolio, pageURL)
	if got := ResourcesFor(full); len(got) != 0 {
		t.Errorf("passing checklist should yield no resources, got %d", len(got))
	}
}

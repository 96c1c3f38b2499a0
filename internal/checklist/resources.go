package checklist

import "strings"

// Resource is a learning pointer attached to failed checks so users know how
// to improve, not just what failed.
type Resource struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tips        []string `json:"tips"`
}

var resourceMap = map[string]Resource{
	"about_section": {
		Title:       "Creating an Effective About Section",
		Description: "Learn how to write a compelling introduction that showcases your personality and skills.",
		Tips: []string{
			"Include your name prominently",
			"Add a professional photo",
			"Write 2-3 paragraphs about your background and goals",
			"Mention your key strengths and what makes you unique",
		},
	},
	"projects_minimum": {
		Title:       "Showcasing Your Projects",
		Description: "Quality projects are crucial. Aim for at least 3 well-documented projects.",
		Tips: []string{
			"Include project title and clear description",
			"Add screenshots or demo GIFs",
			"List technologies used",
			"Provide both GitHub and live demo links",
			"Explain the problem your project solves",
		},
	},
	"responsive_design": {
		Title:       "Making Your Portfolio Responsive",
		Description: "Ensure your portfolio works on all devices with responsive design.",
		Tips: []string{
			"Use CSS media queries for different screen sizes",
			"Consider using frameworks like Tailwind CSS or Bootstrap",
			"Test on mobile (375px), tablet (768px), and desktop (1920px)",
			"Use relative units (%, rem, em) instead of fixed pixels",
		},
	},
	"skills_highlighted": {
		Title:       "Highlighting Your Skills",
		Description: "Make your technical skills easy to scan and visually appealing.",
		Tips: []string{
			"Use icons for programming languages and tools",
			"Group skills by category (Frontend, Backend, Tools, etc.)",
			"Consider using progress bars or proficiency levels",
			"Include both technical and soft skills",
		},
	},
	"contact_section": {
		Title:       "Making It Easy to Contact You",
		Description: "Recruiters need multiple ways to reach you.",
		Tips: []string{
			"Add links to LinkedIn, GitHub, and Email",
			"Consider adding a contact form",
			"Include your location (city/country)",
			"Ensure all social links open in new tabs",
		},
	},
}

// ResourcesFor maps failed checks to at most three learning resources,
// deduplicated, in checklist order.
func ResourcesFor(cl Checklist) []Resource {
	var out []Resource
	added := map[string]bool{}

	for _, key := range cl.Failed() {
		var resourceKey string
		name := string(key)
		switch {
		case strings.HasPrefix(name, "about_"):
			resourceKey = "about_section"
		case strings.HasPrefix(name, "projects_"):
			resourceKey = "projects_minimum"
		case strings.HasPrefix(name, "skills_"):
			resourceKey = "skills_highlighted"
		case strings.HasPrefix(name, "contact_"):
			resourceKey = "contact_section"
		case key == ResponsiveDesign:
			resourceKey = "responsive_design"
		default:
			continue
		}

		if added[resourceKey] {
			continue
		}
		added[resourceKey] = true
		out = append(out, resourceMap[resourceKey])
		if len(out) == 3 {
			break
		}
	}
	return out
}

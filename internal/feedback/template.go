package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/raysh454/foliograde/internal/checklist"
)

// FallbackProviderName marks feedback produced without an LLM.
const FallbackProviderName = "fallback"

// TemplateProvider assembles deterministic feedback from the checklist's
// failing items. It is always available and never fails, which makes it the
// terminal link of the provider chain.
type TemplateProvider struct{}

func (TemplateProvider) Name() string { return FallbackProviderName }

func (TemplateProvider) Available() bool { return true }

func (TemplateProvider) Generate(_ context.Context, req *Request) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Rubric score: %.0f/100.\n", req.Score)

	if req.Checklist == nil {
		b.WriteString("No checklist available. AI analysis unavailable for detailed feedback.")
		return b.String(), nil
	}

	failed := req.Checklist.Failed()
	if len(failed) == 0 {
		b.WriteString("All rubric checks passed. Strong portfolio; AI analysis unavailable for deeper feedback.")
		return b.String(), nil
	}

	b.WriteString("\nAreas to improve:\n")
	for _, key := range failed {
		it := req.Checklist[key]
		line := templateLines[key]
		if line == "" {
			line = "Review this area of the portfolio."
		}
		fmt.Fprintf(&b, "- %s: %s\n", key, line)
		for _, d := range it.Details {
			if strings.HasPrefix(d, "[FAIL]") || strings.HasPrefix(d, "[WARNING]") {
				fmt.Fprintf(&b, "  %s\n", d)
			}
		}
	}

	if resources := checklist.ResourcesFor(req.Checklist); len(resources) > 0 {
		b.WriteString("\nWhere to start:\n")
		for _, r := range resources {
			fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Description)
		}
	}

	return b.String(), nil
}

// templateLines give one actionable sentence per rubric key.
var templateLines = map[checklist.Key]string{
	checklist.AboutSection:           "Add a clearly labeled About section introducing who you are.",
	checklist.AboutName:              "Display your full name prominently, ideally in the main heading.",
	checklist.AboutPhoto:             "Add a photo of yourself to the About or hero area.",
	checklist.AboutIntro:             "Write a short introduction paragraph about your background and goals.",
	checklist.AboutProfessionalPhoto: "Use a professional photo with descriptive alt text.",
	checklist.ProjectsSection:        "Add a Projects section showcasing your work.",
	checklist.ProjectsMinimum:        "Show at least three projects.",
	checklist.ProjectsSamples:        "Add concrete project entries with titles and descriptions.",
	checklist.ProjectsDeployed:       "Link each project to a live deployment.",
	checklist.ProjectsLinks:          "Link each project to its GitHub repository.",
	checklist.ProjectsFinished:       "Finish projects before showcasing them: deployed and described.",
	checklist.ProjectsSummary:        "Write a short summary for every project.",
	checklist.ProjectsHeroImage:      "Add a screenshot or hero image to each project.",
	checklist.ProjectsTechStack:      "List the technologies used in each project.",
	checklist.SkillsSection:          "Add a Skills section listing your technologies.",
	checklist.SkillsHighlighted:      "Highlight skills visually with icons, badges or a structured list.",
	checklist.ContactSection:         "Add a Contact section so recruiters can reach you.",
	checklist.ContactLinkedIn:        "Add a link to your LinkedIn profile.",
	checklist.ContactGitHub:          "Add a link to your GitHub profile.",
	checklist.LinksCorrect:           "Fix broken or placeholder links.",
	checklist.ResponsiveDesign:       "Make the layout responsive with media queries or a responsive framework.",
	checklist.ProfessionalURL:        "Deploy to a professional HTTPS URL.",
	checklist.GrammarChecked:         "Proofread the text; a few likely typos were detected.",
	checklist.SinglePageNavbar:       "Add a navigation bar linking to each section.",
	checklist.NoDesignIssues:         "Add alt text to all images.",
	checklist.ExternalLinksNewTab:    "Open external links in a new tab with target=\"_blank\".",
}

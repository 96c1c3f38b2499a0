// Package checklist evaluates portfolio pages against a fixed rubric of 26
// checks across five categories. Evaluation is pure: HTML in, checklist out.
package checklist

// Version identifies the rubric revision. It participates in cache keys so
// cached results are invalidated when rules change.
const Version = "v1"

// Key names a single rubric check.
type Key string

const (
	// About
	AboutSection           Key = "about_section"
	AboutName              Key = "about_name"
	AboutPhoto             Key = "about_photo"
	AboutIntro             Key = "about_intro"
	AboutProfessionalPhoto Key = "about_professional_photo"

	// Projects
	ProjectsSection   Key = "projects_section"
	ProjectsMinimum   Key = "projects_minimum"
	ProjectsSamples   Key = "projects_samples"
	ProjectsDeployed  Key = "projects_deployed"
	ProjectsLinks     Key = "projects_links"
	ProjectsFinished  Key = "projects_finished"
	ProjectsSummary   Key = "projects_summary"
	ProjectsHeroImage Key = "projects_hero_image"
	ProjectsTechStack Key = "projects_tech_stack"

	// Skills
	SkillsSection     Key = "skills_section"
	SkillsHighlighted Key = "skills_highlighted"

	// Contact
	ContactSection  Key = "contact_section"
	ContactLinkedIn Key = "contact_linkedin"
	ContactGitHub   Key = "contact_github"

	// Technical
	LinksCorrect        Key = "links_correct"
	ResponsiveDesign    Key = "responsive_design"
	ProfessionalURL     Key = "professional_url"
	GrammarChecked      Key = "grammar_checked"
	SinglePageNavbar    Key = "single_page_navbar"
	NoDesignIssues      Key = "no_design_issues"
	ExternalLinksNewTab Key = "external_links_new_tab"
)

// Category groups related checks for weighting.
type Category string

const (
	CategoryAbout     Category = "about"
	CategoryProjects  Category = "projects"
	CategorySkills    Category = "skills"
	CategoryContact   Category = "contact"
	CategoryTechnical Category = "technical"
)

// orderedKeys fixes the presentation and iteration order of the rubric.
var orderedKeys = []Key{
	AboutSection, AboutName, AboutPhoto, AboutIntro, AboutProfessionalPhoto,
	ProjectsSection, ProjectsMinimum, ProjectsSamples, ProjectsDeployed,
	ProjectsLinks, ProjectsFinished, ProjectsSummary, ProjectsHeroImage,
	ProjectsTechStack,
	SkillsSection, SkillsHighlighted,
	ContactSection, ContactLinkedIn, ContactGitHub,
	LinksCorrect, ResponsiveDesign, ProfessionalURL, GrammarChecked,
	SinglePageNavbar, NoDesignIssues, ExternalLinksNewTab,
}

// Keys returns all rubric keys in canonical order.
func Keys() []Key {
	return append([]Key(nil), orderedKeys...)
}

// CategoryOf returns the category a key belongs to.
func CategoryOf(k Key) Category {
	switch k {
	case AboutSection, AboutName, AboutPhoto, AboutIntro, AboutProfessionalPhoto:
		return CategoryAbout
	case ProjectsSection, ProjectsMinimum, ProjectsSamples, ProjectsDeployed,
		ProjectsLinks, ProjectsFinished, ProjectsSummary, ProjectsHeroImage,
		ProjectsTechStack:
		return CategoryProjects
	case SkillsSection, SkillsHighlighted:
		return CategorySkills
	case ContactSection, ContactLinkedIn, ContactGitHub:
		return CategoryContact
	default:
		return CategoryTechnical
	}
}

// Item is the outcome of one check.
type Item struct {
	Key     Key      `json:"key"`
	Pass    bool     `json:"pass"`
	Details []string `json:"details,omitempty"`
}

func (it *Item) pass(detail string) {
	it.Pass = true
	it.add(detail)
}

func (it *Item) add(detail string) {
	it.Details = append(it.Details, detail)
}

// Checklist maps every rubric key to its outcome. All 26 keys are always
// present after evaluation.
type Checklist map[Key]*Item

// NewChecklist returns a checklist with every key initialized to fail.
func NewChecklist() Checklist {
	cl := make(Checklist, len(orderedKeys))
	for _, k := range orderedKeys {
		cl[k] = &Item{Key: k}
	}
	return cl
}

// Items returns the checklist entries in canonical order.
func (cl Checklist) Items() []*Item {
	out := make([]*Item, 0, len(orderedKeys))
	for _, k := range orderedKeys {
		if it, ok := cl[k]; ok {
			out = append(out, it)
		}
	}
	return out
}

// Failed returns the keys that did not pass, in canonical order.
func (cl Checklist) Failed() []Key {
	var out []Key
	for _, k := range orderedKeys {
		if it, ok := cl[k]; ok && !it.Pass {
			out = append(out, k)
		}
	}
	return out
}

package checklist

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const maxProjectCards = 10

var (
	cardClassPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)project[-_]?card`),
		regexp.MustCompile(`(?i)project[-_]?item`),
		regexp.MustCompile(`(?i)project`),
		regexp.MustCompile(`(?i)card`),
		regexp.MustCompile(`(?i)portfolio[-_]?item`),
		regexp.MustCompile(`(?i)work[-_]?item`),
		regexp.MustCompile(`(?i)case[-_]?study`),
		regexp.MustCompile(`(?i)item`),
		regexp.MustCompile(`(?i)project[-_]?box`),
		regexp.MustCompile(`(?i)col`),
	}

	gridClassRe  = regexp.MustCompile(`(?i)grid|flex|row|container|columns`)
	ctaTextRe    = regexp.MustCompile(`(?i)demo|live|github|view`)
	deployHostRe = regexp.MustCompile(`(?i)github\.com|netlify|vercel|herokuapp|render\.com|github\.io`)
)

// deploymentDomains identify links to live deployments as opposed to source
// repositories.
var deploymentDomains = []string{
	"vercel.app", "netlify.app", "herokuapp.com", "render.com", "github.io",
}

// cardSet accumulates unique card nodes across detection strategies.
type cardSet struct {
	cards []*goquery.Selection
	seen  map[*html.Node]bool
}

func newCardSet() *cardSet {
	return &cardSet{seen: map[*html.Node]bool{}}
}

func (cs *cardSet) add(s *goquery.Selection) {
	node := s.Get(0)
	if cs.seen[node] {
		return
	}
	cs.seen[node] = true
	cs.cards = append(cs.cards, s)
}

func (cs *cardSet) has(s *goquery.Selection) bool {
	return cs.seen[s.Get(0)]
}

// findProjectCards detects individual project entries inside the projects
// section. Strategies run loosest-last and stop adding once earlier ones
// produced at least two cards.
func findProjectCards(container *goquery.Selection) []*goquery.Selection {
	cs := newCardSet()

	// Strategy 1: common card class patterns
	for _, pattern := range cardClassPatterns {
		container.Find("div,article,section,li").Each(func(_ int, s *goquery.Selection) {
			if cs.has(s) || !pattern.MatchString(s.AttrOr("class", "")) {
				return
			}
			hasHeading := s.Find("h1,h2,h3,h4,h5,h6").Length() > 0
			hasLink := s.Find("a[href]").Length() > 0
			hasImage := s.Find("img").Length() > 0
			hasContent := len(strings.TrimSpace(s.Text())) > 15

			if hasContent && (hasHeading || hasLink || hasImage) {
				cs.add(s)
			}
		})
	}

	// Strategy 2: repeated content structures
	if len(cs.cards) < 2 {
		var structures []*goquery.Selection
		container.Find("div,article,li").Each(func(_ int, s *goquery.Selection) {
			if cs.has(s) {
				return
			}
			hasImage := s.Find("img").Length() > 0
			hasLink := s.Find("a[href]").Length() > 0
			hasHeading := s.Find("h1,h2,h3,h4,h5,h6").Length() > 0
			textLen := len(strings.TrimSpace(s.Text()))

			if textLen > 20 && textLen < 2000 && (hasImage || hasLink || hasHeading) {
				structures = append(structures, s)
			}
		})
		if len(structures) >= 2 {
			for _, s := range structures {
				cs.add(s)
			}
		}
	}

	// Strategy 3: children of grid/flex containers
	if len(cs.cards) < 2 {
		container.Find("div,section").Each(func(_ int, grid *goquery.Selection) {
			if !gridClassRe.MatchString(grid.AttrOr("class", "")) {
				return
			}
			children := grid.Children()
			if children.Length() < 2 || children.Length() > 10 {
				return
			}
			children.Each(func(_ int, child *goquery.Selection) {
				if cs.has(child) {
					return
				}
				hasLink := child.Find("a[href]").Length() > 0
				if hasLink && len(strings.TrimSpace(child.Text())) > 30 {
					cs.add(child)
				}
			})
		})
	}

	// Strategy 4: heading plus link/image/call-to-action in a shared parent
	if len(cs.cards) < 2 {
		container.Find("h1,h2,h3,h4,h5,h6").Each(func(_ int, heading *goquery.Selection) {
			parent := heading.Closest("div,article,section,li,figure")
			if parent.Length() == 0 || cs.has(parent) {
				return
			}
			hasLink := parent.Find("a[href]").Length() > 0
			hasImage := parent.Find("img").Length() > 0
			hasButton := false
			parent.Find("button,a").EachWithBreak(func(_ int, b *goquery.Selection) bool {
				if ctaTextRe.MatchString(b.Text()) {
					hasButton = true
					return false
				}
				return true
			})
			textLen := len(strings.TrimSpace(parent.Text()))

			if textLen > 20 && textLen < 3000 && (hasLink || hasImage || hasButton) {
				cs.add(parent)
			}
		})
	}

	// Strategy 5: parents of links to source hosting or deploy platforms
	if len(cs.cards) < 2 {
		container.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			if !deployHostRe.MatchString(link.AttrOr("href", "")) {
				return
			}
			parent := link.Closest("div,li,article,section")
			if parent.Length() == 0 || cs.has(parent) {
				return
			}
			hasHeading := parent.Find("h1,h2,h3,h4,h5,h6").Length() > 0
			hasImage := parent.Find("img").Length() > 0

			if len(strings.TrimSpace(parent.Text())) > 20 && (hasHeading || hasImage) {
				cs.add(parent)
			}
		})
	}

	if len(cs.cards) > maxProjectCards {
		return cs.cards[:maxProjectCards]
	}
	return cs.cards
}

// cardAnalysis is the per-card breakdown feeding the projects checks.
type cardAnalysis struct {
	hasImage       bool
	hasDescription bool
	hasGitHub      bool
	hasDeployed    bool
	hasTechStack   bool
	feedback       string
}

func analyzeProjectCard(card *goquery.Selection, index int) cardAnalysis {
	a := cardAnalysis{
		hasImage:       card.Find("img").Length() > 0,
		hasDescription: len(strings.TrimSpace(card.Text())) > 50,
	}

	card.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if strings.Contains(href, "github.com") && !strings.Contains(href, "/repos/") {
			a.hasGitHub = true
		}
		for _, domain := range deploymentDomains {
			if strings.Contains(href, domain) {
				a.hasDeployed = true
			}
		}
	})

	if containsAnyKeyword(strings.ToLower(card.Text()), techKeywords) {
		a.hasTechStack = true
	}

	var issues []string
	if !a.hasImage {
		issues = append(issues, "missing image")
	}
	if !a.hasGitHub {
		issues = append(issues, "missing GitHub link")
	}
	if !a.hasDeployed {
		issues = append(issues, "missing deployed link")
	}
	if !a.hasTechStack {
		issues = append(issues, "missing tech stack")
	}

	if len(issues) > 0 {
		a.feedback = fmt.Sprintf("Project %d: %s", index, strings.Join(issues, ", "))
	} else {
		a.feedback = fmt.Sprintf("Project %d: [PASS] Complete", index)
	}
	return a
}

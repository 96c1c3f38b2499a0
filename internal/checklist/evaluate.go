package checklist

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Evaluate runs the full rubric against the page HTML. pageURL is the
// canonical URL the page was fetched from; it feeds the professional-URL and
// external-link checks.
func Evaluate(htmlContent, pageURL string) (Checklist, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	cl := NewChecklist()
	evaluateAbout(doc, cl)
	evaluateProjects(doc, cl)
	evaluateSkills(doc, cl)
	evaluateContact(doc, cl)
	evaluateTechnical(doc, htmlContent, pageURL, cl)
	return cl, nil
}

// ─── About ─────────────────────────────────────────────────────────────

func evaluateAbout(doc *goquery.Document, cl Checklist) {
	section := findSection(doc, sectionKeywords[CategoryAbout])
	if section == nil {
		cl[AboutSection].add("[FAIL] About section not found")
		return
	}
	cl[AboutSection].pass("[PASS] About section found")

	evaluateAboutName(doc, cl)
	evaluateAboutPhoto(doc, section, cl)
	evaluateAboutIntro(section, cl)
}

func evaluateAboutName(doc *goquery.Document, cl Checklist) {
	found := false
	doc.Find("h1,h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.TrimSpace(h.Text())
		words := strings.Fields(text)
		if len(words) < 2 || len(words) > 4 {
			return true
		}
		for _, w := range words {
			r := []rune(w)
			if len(r) > 0 && !unicode.IsUpper(r[0]) {
				return true
			}
		}
		cl[AboutName].pass("[PASS] Name found: " + text)
		found = true
		return false
	})
	if !found {
		cl[AboutName].add("[FAIL] Name not clearly displayed")
	}
}

var (
	profileAltWords    = []string{"profile", "photo", "picture", "portrait", "avatar", "headshot", "me", "myself", "author", "face"}
	profileSrcWords    = []string{"profile", "photo", "avatar", "headshot", "portrait", "me", "about", "author", "person", "face", "user"}
	profileParentWords = []string{"profile", "photo", "avatar", "about", "hero", "author"}
	decorativeWords    = []string{"icon", "logo", "decoration", "background", "banner", "pattern"}
	projectImgWords    = []string{"project-", "work-", "portfolio-item", "screenshot"}
	heroSectionRe      = regexp.MustCompile(`(?i)header|hero|main|banner|intro|top`)
)

type scoredImage struct {
	score int
	img   *goquery.Selection
}

func evaluateAboutPhoto(doc *goquery.Document, aboutSection *goquery.Selection, cl Checklist) {
	// Collect images from the about section and header/hero-ish containers
	// first; fall back to the whole page.
	var priorityImgs []*goquery.Selection
	collect := func(s *goquery.Selection) {
		s.Find("img").Each(func(_ int, img *goquery.Selection) {
			priorityImgs = append(priorityImgs, img)
		})
	}
	collect(aboutSection)
	doc.Find("header,section,div").Each(func(_ int, s *goquery.Selection) {
		if heroSectionRe.MatchString(s.AttrOr("class", "")) || heroSectionRe.MatchString(s.AttrOr("id", "")) {
			collect(s)
		}
	})

	var allImgs []*goquery.Selection
	searchLocation := "priority sections"
	if len(priorityImgs) > 0 {
		allImgs = priorityImgs
	} else {
		searchLocation = "entire page"
		doc.Find("img").Each(func(_ int, img *goquery.Selection) {
			allImgs = append(allImgs, img)
		})
	}

	candidates := make([]scoredImage, 0, len(allImgs))
	for _, img := range allImgs {
		alt := strings.ToLower(img.AttrOr("alt", ""))
		src := strings.ToLower(img.AttrOr("src", ""))
		score := 0

		if containsAnyKeyword(alt, profileAltWords) {
			score += 3
		}
		if containsAnyKeyword(src, profileSrcWords) {
			score += 2
		}
		if len(alt) > 3 {
			score++
		}
		parent := img.Closest("div,figure,section")
		if parent.Length() > 0 && containsAnyKeyword(strings.ToLower(parent.AttrOr("class", "")), profileParentWords) {
			score += 2
		}
		if containsAnyKeyword(alt+src, decorativeWords) {
			score -= 3
		}
		if containsAnyKeyword(alt+src, projectImgWords) {
			score--
		}

		candidates = append(candidates, scoredImage{score: score, img: img})
	}

	// Stable selection: highest score wins, document order breaks ties.
	var best *goquery.Selection
	bestScore := -1 << 30
	for _, c := range candidates {
		if c.score > bestScore {
			bestScore = c.score
			best = c.img
		}
	}

	if best != nil && bestScore <= -1 {
		// Weak candidates only: take the first that is not clearly a project
		// screenshot, else just the first image.
		best = nil
		for i, c := range candidates {
			if i >= 3 {
				break
			}
			src := strings.ToLower(c.img.AttrOr("src", ""))
			if !containsAnyKeyword(src, []string{"project-screenshot", "work-sample", "case-study-img"}) {
				best = c.img
				break
			}
		}
		if best == nil && len(allImgs) > 0 {
			best = allImgs[0]
		}
	}

	if best == nil {
		cl[AboutPhoto].add("[FAIL] No photo found (searched " + searchLocation + ")")
		return
	}

	src := best.AttrOr("src", "")
	if len(src) > 80 {
		src = src[:80] + "..."
	}
	cl[AboutPhoto].pass("[PASS] Photo found: " + src)

	alt := strings.ToLower(best.AttrOr("alt", ""))
	switch {
	case containsAnyKeyword(alt, []string{"profile", "photo", "picture", "portrait", "avatar", "headshot"}):
		cl[AboutProfessionalPhoto].pass("[PASS] Professional photo alt text detected")
	case len(alt) > 3:
		cl[AboutProfessionalPhoto].pass("[PASS] Profile image found with description")
	default:
		cl[AboutProfessionalPhoto].add("[WARNING] Photo alt text could be more descriptive")
	}
}

func evaluateAboutIntro(section *goquery.Selection, cl Checklist) {
	found := false
	section.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.TrimSpace(p.Text())
		if len(text) <= 50 {
			return true
		}
		preview := text
		if len(preview) > 80 {
			preview = preview[:80] + "..."
		}
		cl[AboutIntro].pass("[PASS] Introduction: " + preview)
		found = true
		return false
	})
	if !found {
		cl[AboutIntro].add("[FAIL] No substantial introduction paragraph found")
	}
}

// ─── Projects ──────────────────────────────────────────────────────────

func evaluateProjects(doc *goquery.Document, cl Checklist) {
	section := findSection(doc, sectionKeywords[CategoryProjects])
	if section == nil {
		cl[ProjectsSection].add("[FAIL] Projects section not found")
		return
	}
	cl[ProjectsSection].pass("[PASS] Projects section found")

	cards := findProjectCards(section)
	count := len(cards)
	cl[ProjectsSection].add(fmt.Sprintf("Found %d project card(s)", count))

	if count >= 3 {
		cl[ProjectsMinimum].pass(fmt.Sprintf("[PASS] Has %d projects (requirement: >=3)", count))
	} else {
		cl[ProjectsMinimum].add(fmt.Sprintf("[FAIL] Only %d project(s) found. Add at least %d more.", count, 3-count))
	}

	var hasImages, hasDescriptions, hasGitHub, hasDeployed, hasTechStack bool
	for i, card := range cards {
		a := analyzeProjectCard(card, i+1)
		hasImages = hasImages || a.hasImage
		hasDescriptions = hasDescriptions || a.hasDescription
		hasGitHub = hasGitHub || a.hasGitHub
		hasDeployed = hasDeployed || a.hasDeployed
		hasTechStack = hasTechStack || a.hasTechStack
		cl[ProjectsSamples].add(a.feedback)
	}

	cl[ProjectsSamples].Pass = count > 0
	cl[ProjectsHeroImage].Pass = hasImages
	cl[ProjectsSummary].Pass = hasDescriptions
	cl[ProjectsLinks].Pass = hasGitHub
	cl[ProjectsDeployed].Pass = hasDeployed
	cl[ProjectsTechStack].Pass = hasTechStack
	cl[ProjectsFinished].Pass = hasDeployed && hasDescriptions

	if hasImages {
		cl[ProjectsHeroImage].add("[PASS] Projects have images")
	} else {
		cl[ProjectsHeroImage].add("[FAIL] Add images to projects")
	}
	if hasGitHub {
		cl[ProjectsLinks].add("[PASS] GitHub links found")
	} else {
		cl[ProjectsLinks].add("[FAIL] Add GitHub repository links")
	}
	if hasDeployed {
		cl[ProjectsDeployed].add("[PASS] Deployed links found")
	} else {
		cl[ProjectsDeployed].add("[FAIL] Add deployed/live links")
	}
	if hasTechStack {
		cl[ProjectsTechStack].add("[PASS] Tech stack mentioned")
	} else {
		cl[ProjectsTechStack].add("[FAIL] List tech stack for projects")
	}
}

// ─── Skills ────────────────────────────────────────────────────────────

var (
	badgeClassRe = regexp.MustCompile(`(?i)badge|tag|chip|skill|tech`)
	skillItemRe  = regexp.MustCompile(`(?i)skill|tech`)
)

func evaluateSkills(doc *goquery.Document, cl Checklist) {
	section := findSection(doc, sectionKeywords[CategorySkills])
	if section == nil {
		cl[SkillsSection].add("[FAIL] Skills section not found")
		return
	}
	cl[SkillsSection].pass("[PASS] Skills section found")

	hasIcons := section.Find("svg,i,img").Length() > 0

	hasBadges := false
	skillItems := 0
	section.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		class := s.AttrOr("class", "")
		if badgeClassRe.MatchString(class) {
			hasBadges = true
		}
		if skillItemRe.MatchString(class) && s.Is("li,div,span") {
			skillItems++
		}
	})

	hasTechKeywords := containsAnyKeyword(strings.ToLower(section.Text()), techKeywords)
	hasMultipleItems := skillItems >= 3
	hasList := section.Find("ul,ol").Length() > 0

	if !hasIcons && !hasBadges && !hasTechKeywords && !hasMultipleItems && !hasList {
		cl[SkillsHighlighted].add("[FAIL] Skills not visually highlighted. Consider adding icons or badges.")
		return
	}

	var highlights []string
	if hasIcons {
		highlights = append(highlights, "icons")
	}
	if hasBadges {
		highlights = append(highlights, "badges")
	}
	if hasTechKeywords {
		highlights = append(highlights, "tech keywords")
	}
	if hasMultipleItems {
		highlights = append(highlights, fmt.Sprintf("%d skill items", skillItems))
	}
	if hasList {
		highlights = append(highlights, "structured list")
	}
	cl[SkillsHighlighted].pass("[PASS] Skills highlighted with " + strings.Join(highlights, ", "))
}

// ─── Contact ───────────────────────────────────────────────────────────

func evaluateContact(doc *goquery.Document, cl Checklist) {
	if findSection(doc, sectionKeywords[CategoryContact]) != nil {
		cl[ContactSection].pass("[PASS] Contact section found")
	} else {
		cl[ContactSection].add("[FAIL] Contact section not found")
	}

	// Profile links count wherever they appear on the page.
	linkedin, github := false, false
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := strings.ToLower(link.AttrOr("href", ""))
		if strings.Contains(href, "linkedin.com") {
			linkedin = true
		}
		if strings.Contains(href, "github.com") && !strings.Contains(href, "/repos/") {
			github = true
		}
	})

	if linkedin {
		cl[ContactLinkedIn].pass("[PASS] LinkedIn profile link found")
	} else {
		cl[ContactLinkedIn].add("[FAIL] Add LinkedIn profile link")
	}
	if github {
		cl[ContactGitHub].pass("[PASS] GitHub profile link found")
	} else {
		cl[ContactGitHub].add("[FAIL] Add GitHub profile link")
	}
}

// ─── Technical ─────────────────────────────────────────────────────────

func evaluateTechnical(doc *goquery.Document, htmlContent, pageURL string, cl Checklist) {
	evaluateLinksCorrect(doc, cl)
	evaluateExternalLinks(doc, pageURL, cl)
	evaluateResponsive(doc, htmlContent, cl)
	evaluateProfessionalURL(pageURL, cl)
	evaluateNavbar(doc, cl)
	evaluateDesignIssues(doc, cl)
	evaluateGrammar(doc, cl)
}

func evaluateLinksCorrect(doc *goquery.Document, cl Checklist) {
	links := doc.Find("a[href]")
	if links.Length() == 0 {
		cl[LinksCorrect].add("[FAIL] No links found to check")
		return
	}

	var invalid []string
	links.Each(func(_ int, link *goquery.Selection) {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		text := strings.TrimSpace(link.Text())
		if len(text) > 40 {
			text = text[:40]
		}

		if href == "" {
			if text != "" {
				invalid = append(invalid, "'(empty)' (text: "+text+")")
			} else {
				invalid = append(invalid, "'(empty)'")
			}
			return
		}
		if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "void") {
			if text != "" {
				invalid = append(invalid, "'"+href+"' (text: "+text+")")
			} else {
				invalid = append(invalid, "'"+href+"'")
			}
		}
	})

	if len(invalid) == 0 {
		cl[LinksCorrect].pass("[PASS] All links appear valid")
		return
	}
	if len(invalid) == 1 {
		cl[LinksCorrect].add("[WARNING] 1 link may be invalid: " + invalid[0])
		return
	}
	cl[LinksCorrect].add(fmt.Sprintf("[WARNING] %d links may be invalid:", len(invalid)))
	for i, l := range invalid {
		if i >= 5 {
			cl[LinksCorrect].add(fmt.Sprintf("  - ... and %d more", len(invalid)-5))
			break
		}
		cl[LinksCorrect].add("  - " + l)
	}
}

func evaluateExternalLinks(doc *goquery.Document, pageURL string, cl Checklist) {
	pageHost := ""
	if u, err := url.Parse(pageURL); err == nil {
		pageHost = u.Host
	}

	var missing []string
	externalCount := 0
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if !strings.HasPrefix(href, "http") {
			return
		}
		u, err := url.Parse(href)
		if err != nil || u.Host == pageHost {
			return
		}
		externalCount++
		if link.AttrOr("target", "") != "_blank" {
			display := href
			if len(display) > 60 {
				display = display[:60] + "..."
			}
			text := strings.TrimSpace(link.Text())
			if len(text) > 30 {
				text = text[:30]
			}
			if text != "" {
				missing = append(missing, "'"+display+"' (text: "+text+")")
			} else {
				missing = append(missing, "'"+display+"'")
			}
		}
	})

	if externalCount == 0 {
		cl[ExternalLinksNewTab].add("[FAIL] No external links found")
		return
	}
	if len(missing) == 0 {
		cl[ExternalLinksNewTab].pass("[PASS] External links open in new tab")
		return
	}
	if len(missing) == 1 {
		cl[ExternalLinksNewTab].add("[WARNING] 1 external link missing target='_blank': " + missing[0])
		return
	}
	cl[ExternalLinksNewTab].add(fmt.Sprintf("[WARNING] %d external links missing target='_blank':", len(missing)))
	for i, m := range missing {
		if i >= 5 {
			cl[ExternalLinksNewTab].add(fmt.Sprintf("  - ... and %d more", len(missing)-5))
			break
		}
		cl[ExternalLinksNewTab].add("  - " + m)
	}
}

func evaluateResponsive(doc *goquery.Document, htmlContent string, cl Checklist) {
	lower := strings.ToLower(htmlContent)
	responsive := strings.Contains(lower, "@media") ||
		strings.Contains(lower, "viewport") ||
		doc.Find(`meta[name="viewport"]`).Length() > 0

	if !responsive {
		// Tailwind responsive prefixes are case-sensitive
		for _, cls := range []string{"sm:", "md:", "lg:", "xl:", "2xl:"} {
			if strings.Contains(htmlContent, cls) {
				responsive = true
				break
			}
		}
	}

	if responsive {
		cl[ResponsiveDesign].pass("[PASS] Responsive design indicators found")
	} else {
		cl[ResponsiveDesign].add("[FAIL] No responsive design indicators. Add media queries or responsive framework.")
	}
}

func evaluateProfessionalURL(pageURL string, cl Checklist) {
	u, err := url.Parse(pageURL)
	professional := err == nil &&
		u.Scheme == "https" &&
		!strings.HasPrefix(u.Host, "127.0.0.1") &&
		!strings.HasPrefix(u.Host, "localhost")

	if professional {
		cl[ProfessionalURL].pass("[PASS] Professional URL: " + pageURL)
	} else {
		cl[ProfessionalURL].add("[WARNING] Consider deploying to a professional URL (HTTPS)")
	}
}

func evaluateNavbar(doc *goquery.Document, cl Checklist) {
	nav := doc.Find("nav,header").First()
	if nav.Length() > 0 {
		if n := nav.Find("a").Length(); n > 0 {
			cl[SinglePageNavbar].pass(fmt.Sprintf("[PASS] Navigation bar with %d link(s)", n))
			return
		}
	}
	cl[SinglePageNavbar].add("[FAIL] Add navigation bar for better UX")
}

func evaluateDesignIssues(doc *goquery.Document, cl Checklist) {
	images := doc.Find("img")
	if images.Length() == 0 {
		cl[NoDesignIssues].pass("No images to check")
		return
	}
	missing := 0
	images.Each(func(_ int, img *goquery.Selection) {
		if img.AttrOr("alt", "") == "" {
			missing++
		}
	})
	if missing == 0 {
		cl[NoDesignIssues].pass("[PASS] All images have alt text")
	} else {
		cl[NoDesignIssues].add(fmt.Sprintf("[WARNING] %d image(s) missing alt text (accessibility issue)", missing))
	}
}

var commonTypos = []string{"teh", "recieve", "definately", "seperate"}

func evaluateGrammar(doc *goquery.Document, cl Checklist) {
	text := strings.ToLower(doc.Text())
	var found []string
	for _, typo := range commonTypos {
		if strings.Contains(text, typo) {
			found = append(found, typo)
		}
	}
	if len(found) == 0 {
		cl[GrammarChecked].pass("[PASS] No obvious typos detected")
	} else {
		cl[GrammarChecked].add("[WARNING] Possible typos found: " + strings.Join(found, ", "))
	}
}

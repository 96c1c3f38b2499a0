package checklist

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sectionKeywords are the id/class/heading spellings a section is recognized
// by. Matching is case-insensitive.
var sectionKeywords = map[Category][]string{
	CategoryAbout:    {"about", "aboutme", "about-me", "about_me", "bio", "biography", "introduction", "intro", "profile", "whoami", "who-am-i"},
	CategoryProjects: {"project", "projects", "portfolio", "work", "works", "case", "cases", "showcase", "my-work", "mywork", "my-projects"},
	CategorySkills:   {"skill", "skills", "tech", "techstack", "tech-stack", "stack", "expertise", "technologies", "technology", "toolset", "abilities"},
	CategoryContact:  {"contact", "contacts", "reach", "reachout", "reach-out", "connect", "getintouch", "get-in-touch", "social", "touch", "contactme", "contact-me"},
}

// techKeywords flag tech-stack mentions in free text.
var techKeywords = []string{
	"react", "javascript", "typescript", "css", "html", "node", "express",
	"mongo", "mysql", "postgres", "tailwind", "chakra", "bootstrap",
	"material-ui", "redux", "next", "vite", "webpack", "sass", "vue",
	"angular", "python", "django", "flask", "java", "spring", "docker",
	"kubernetes", "aws", "azure", "gcp",
}

// findSection locates a page section by trying progressively looser
// strategies: exact id, exact class, id/class substring, heading text,
// data-section attribute, and finally keyword presence near the top of a
// top-level container. Returns nil when nothing matches.
func findSection(doc *goquery.Document, keywords []string) *goquery.Selection {
	// Strategy 1: exact id match
	for _, kw := range keywords {
		if sel := doc.Find("#" + kw); sel.Length() > 0 {
			return sel.First()
		}
	}

	// Strategy 2: exact class match
	for _, kw := range keywords {
		if sel := doc.Find("." + kw); sel.Length() > 0 {
			return sel.First()
		}
	}

	// Strategy 3: id or class contains keyword
	var found *goquery.Selection
	doc.Find("[id],[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id := strings.ToLower(s.AttrOr("id", ""))
		class := strings.ToLower(s.AttrOr("class", ""))
		for _, kw := range keywords {
			if (id != "" && strings.Contains(id, kw)) || (class != "" && strings.Contains(class, kw)) {
				found = s
				return false
			}
		}
		return true
	})
	if found != nil {
		return found
	}

	// Strategy 4: heading text match, returning the enclosing container when
	// it holds more than just the heading
	doc.Find("h1,h2,h3,h4,h5,h6").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(h.Text()))
		if text == "" {
			return true
		}
		for _, kw := range keywords {
			if strings.Contains(text, kw) || strings.Contains(kw, text) {
				parent := h.Closest("section,div,article,main")
				if parent.Length() > 0 && len(strings.TrimSpace(parent.Text())) > len(text)*2 {
					found = parent.First()
				} else {
					found = h
				}
				return false
			}
		}
		return true
	})
	if found != nil {
		return found
	}

	// Strategy 5: data-section attribute
	for _, kw := range keywords {
		if sel := doc.Find(`[data-section="` + kw + `"]`); sel.Length() > 0 {
			return sel.First()
		}
	}

	// Strategy 6: keyword appears near the start of a top-level container
	doc.Find("body > section, body > div, body > article").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(s.Text())
		if len(text) > 200 {
			text = text[:200]
		}
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				found = s
				return false
			}
		}
		return true
	})

	return found
}

// containsAnyKeyword reports whether text (already lowercased) mentions one
// of the given keywords.
func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

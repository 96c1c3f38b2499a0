package feedback

import (
	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Summarizer converts fetched HTML into markdown for prompting. Markdown
// strips markup noise so the token budget goes to actual content.
type Summarizer struct {
	converter *md.Converter
}

func NewSummarizer() *Summarizer {
	return &Summarizer{converter: md.NewConverter("", true, nil)}
}

// Summarize renders the page as markdown, truncated to the prompt budget.
// Conversion failures fall back to the raw HTML so feedback still has
// something to work with.
func (s *Summarizer) Summarize(html string) string {
	markdown, err := s.converter.ConvertString(html)
	if err != nil {
		markdown = html
	}
	if len(markdown) > maxSummaryBytes {
		markdown = markdown[:maxSummaryBytes]
	}
	return markdown
}

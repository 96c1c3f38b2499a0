package feedback

import (
	"fmt"
	"strings"
)

// maxSummaryBytes caps how much page content goes into the prompt.
const maxSummaryBytes = 50000

const analysisPrompt = `You are an expert portfolio reviewer helping students improve their developer portfolios. Analyze this portfolio and provide detailed, actionable feedback.

FORMAT YOUR RESPONSE EXACTLY AS FOLLOWS:

## CRITICAL ISSUES (Must Fix Immediately)
List 2-4 critical problems that prevent this portfolio from being job-ready. For each: what's wrong, why it matters, how to fix it.

## QUICK WINS (Easy Improvements, High Impact)
List 3-5 improvements that are easy to implement but significantly boost quality.

## STRENGTHS (What's Working Well)
Identify 2-3 specific things they did right. Be genuine and specific.

## ACTIONABLE NEXT STEPS (Prioritized)
Provide 4-6 specific actions ranked by priority.

IMPORTANT GUIDELINES:
- Be specific, not generic ("Add projects" is bad, "Add a full-stack CRUD project using React and Node.js with authentication" is good)
- Give concrete numbers (e.g., "Add 2 more projects" not "Add more projects")
- Balance criticism with encouragement
- Keep total response under 800 words
- Use a professional tone, no excessive praise or harshness`

// BuildPrompt assembles the full prompt from the rubric outcome and the page
// summary. The checklist gives the model ground truth so it does not have to
// re-derive structure from markdown alone.
func BuildPrompt(req *Request) string {
	var b strings.Builder
	b.WriteString(analysisPrompt)

	fmt.Fprintf(&b, "\n\nPortfolio URL: %s\nRubric score: %.0f/100\n", req.CanonicalURL, req.Score)

	if req.Checklist != nil {
		b.WriteString("\nRubric results:\n")
		for _, it := range req.Checklist.Items() {
			status := "FAIL"
			if it.Pass {
				status = "PASS"
			}
			fmt.Fprintf(&b, "- %s: %s\n", it.Key, status)
		}
	}

	summary := req.PageSummary
	if len(summary) > maxSummaryBytes {
		summary = summary[:maxSummaryBytes]
	}
	b.WriteString("\nPage content (markdown):\n")
	b.WriteString(summary)

	return b.String()
}

package checklist

import "math"

// categoryWeights distribute the overall score across categories. They sum
// to 1; within a category every check counts equally.
var categoryWeights = map[Category]float64{
	CategoryAbout:     0.20,
	CategoryProjects:  0.30,
	CategorySkills:    0.15,
	CategoryContact:   0.15,
	CategoryTechnical: 0.20,
}

// Score computes the weighted 0-100 score for a checklist, rounded to the
// nearest integer. An empty category (impossible with a full checklist)
// contributes zero.
func Score(cl Checklist) float64 {
	passed := map[Category]int{}
	total := map[Category]int{}
	for _, k := range orderedKeys {
		c := CategoryOf(k)
		total[c]++
		if it, ok := cl[k]; ok && it.Pass {
			passed[c]++
		}
	}

	score := 0.0
	for c, weight := range categoryWeights {
		if total[c] == 0 {
			continue
		}
		score += weight * float64(passed[c]) / float64(total[c]) * 100
	}
	return math.Round(score)
}

// CategoryBreakdown reports per-category pass ratios for result payloads.
type CategoryBreakdown struct {
	Category Category `json:"category"`
	Passed   int      `json:"passed"`
	Total    int      `json:"total"`
	Weight   float64  `json:"weight"`
}

// Breakdown returns the per-category pass counts in a stable order.
func Breakdown(cl Checklist) []CategoryBreakdown {
	order := []Category{CategoryAbout, CategoryProjects, CategorySkills, CategoryContact, CategoryTechnical}
	passed := map[Category]int{}
	total := map[Category]int{}
	for _, k := range orderedKeys {
		c := CategoryOf(k)
		total[c]++
		if it, ok := cl[k]; ok && it.Pass {
			passed[c]++
		}
	}

	out := make([]CategoryBreakdown, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryBreakdown{
			Category: c,
			Passed:   passed[c],
			Total:    total[c],
			Weight:   categoryWeights[c],
		})
	}
	return out
}

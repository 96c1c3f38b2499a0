package server

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/raysh454/foliograde/internal/checklist"
	"github.com/raysh454/foliograde/internal/engine"
)

// Roster column aliases accepted on upload, checked in order.
var (
	idColumns   = []string{"Id", "ID", "id"}
	nameColumns = []string{"Name", "name", "NAME"}
	urlColumns  = []string{"Portfolio Link", "portfolio_link", "URL", "url", "link"}
)

// ParseTargetsCSV reads a roster CSV into grading targets. Rows missing any
// of the id, name or URL columns are skipped; a roster with no valid rows is
// an error.
func ParseTargetsCSV(r io.Reader) ([]engine.AnalysisTarget, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	index := map[string]int{}
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	pick := func(row []string, aliases []string) string {
		for _, a := range aliases {
			if i, ok := index[a]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
		}
		return ""
	}

	var targets []engine.AnalysisTarget
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}

		id := pick(row, idColumns)
		name := pick(row, nameColumns)
		url := pick(row, urlColumns)
		if id == "" || name == "" || url == "" {
			continue
		}
		targets = append(targets, engine.AnalysisTarget{ID: id, Name: name, URL: url})
	}

	if len(targets) == 0 {
		return nil, errors.New("no valid portfolio entries found in CSV")
	}
	return targets, nil
}

// WriteSummaryCSV renders a batch summary with one column per rubric check,
// followed by a summary block and per-check pass rates.
func WriteSummaryCSV(w io.Writer, summary *engine.BatchSummary) error {
	writer := csv.NewWriter(w)
	keys := checklist.Keys()

	header := []string{"ID", "Name", "Portfolio URL", "Score", "Status", "Analysis Time (s)", "From Cache"}
	for _, k := range keys {
		header = append(header, columnTitle(string(k)))
	}
	header = append(header, "Error")
	if err := writer.Write(header); err != nil {
		return err
	}

	passed := map[checklist.Key]int{}
	graded := 0

	for _, item := range summary.Items {
		row := []string{item.Target.ID, item.Target.Name, item.Target.URL}

		if res := item.Result; res != nil {
			fromCache := "No"
			if res.FromCache {
				fromCache = "Yes"
			}
			row = append(row,
				fmt.Sprintf("%.0f", res.Score),
				string(item.Status),
				fmt.Sprintf("%.2f", res.AnalysisTime),
				fromCache,
			)

			byKey := map[checklist.Key]*checklist.Item{}
			for _, it := range res.Checklist {
				byKey[it.Key] = it
			}
			graded++
			for _, k := range keys {
				if it, ok := byKey[k]; ok && it.Pass {
					row = append(row, "PASS")
					passed[k]++
				} else {
					row = append(row, "FAIL")
				}
			}
		} else {
			row = append(row, "", string(item.Status), "", "")
			for range keys {
				row = append(row, "N/A")
			}
		}

		row = append(row, item.Error)
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Write([]string{})
	writer.Write([]string{"=== SUMMARY ==="})
	writer.Write([]string{"Total Portfolios", fmt.Sprint(summary.Total)})
	writer.Write([]string{"Successful", fmt.Sprint(summary.Succeeded)})
	writer.Write([]string{"Failed", fmt.Sprint(summary.Failed)})
	writer.Write([]string{"Skipped", fmt.Sprint(summary.Skipped)})
	avgScore := "N/A"
	if summary.AverageScore != nil {
		avgScore = fmt.Sprintf("%.1f%%", *summary.AverageScore)
	}
	writer.Write([]string{"Average Score", avgScore})
	writer.Write([]string{"Total Time (s)", fmt.Sprintf("%.1f", summary.ElapsedSeconds)})

	if graded > 0 {
		writer.Write([]string{})
		writer.Write([]string{"=== PARAMETER STATISTICS ==="})
		writer.Write([]string{"Parameter", "Pass Rate", "Passed", "Total"})
		for _, k := range keys {
			rate := float64(passed[k]) / float64(graded) * 100
			writer.Write([]string{
				columnTitle(string(k)),
				fmt.Sprintf("%.1f%%", rate),
				fmt.Sprint(passed[k]),
				fmt.Sprint(graded),
			})
		}
	}

	writer.Flush()
	return writer.Error()
}

// columnTitle turns a snake_case rubric key into a spreadsheet heading.
func columnTitle(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

package clustering

import (
	"fmt"
	"strings"
)

const dateFormat = "2006-01-02 15:04"

// FormatTrendSummary returns a human-readable summary of detected trends.
// Outliers are summarized by count only.
func FormatTrendSummary(trends []Trend, outliers int) string {
	var sb strings.Builder

	total := outliers
	for _, t := range trends {
		total += t.Count
	}

	analysisWord := "analysis"
	if total != 1 {
		analysisWord = "analyses"
	}

	if len(trends) == 0 {
		sb.WriteString(fmt.Sprintf("No mood trends found from %d %s", total, analysisWord))
		if outliers > 0 {
			sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", outliers))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	trendWord := "trend"
	if len(trends) > 1 {
		trendWord = "trends"
	}

	sb.WriteString(fmt.Sprintf("Found %d mood %s from %d %s", len(trends), trendWord, total, analysisWord))
	if outliers > 0 {
		sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", outliers))
	}
	sb.WriteString("\n")

	for i, t := range trends {
		sb.WriteString(fmt.Sprintf("%d. %s: %s to %s (%d)\n",
			i+1, t.Name, t.First.Format(dateFormat), t.Last.Format(dateFormat), t.Count))
	}

	return sb.String()
}

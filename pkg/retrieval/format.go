package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/thalvik/semdex/pkg/models"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	pathColor   = color.New(color.FgGreen)
	scoreColor  = color.New(color.FgYellow)
	dimColor    = color.New(color.Faint)
)

// FormatResults renders ranked results for terminal output, truncating each
// chunk's content to maxContent characters.
func FormatResults(results []models.SearchResult, maxContent int) string {
	if len(results) == 0 {
		return "No results found."
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%s %s %s\n",
			headerColor.Sprintf("[%d]", i+1),
			pathColor.Sprintf("%s#%d", r.FilePath, r.ChunkIndex),
			scoreColor.Sprintf("(score %.4f)", r.Score),
		)
		if r.Language != "" {
			fmt.Fprintf(&b, "    %s\n", dimColor.Sprintf("language: %s", r.Language))
		}

		content := strings.TrimSpace(r.Content)
		if maxContent > 0 && len(content) > maxContent {
			content = content[:maxContent] + "..."
		}
		for _, line := range strings.Split(content, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		if i < len(results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatStats renders collection statistics with a per-language breakdown
// sorted by chunk count.
func FormatStats(stats models.CollectionStats) string {
	var b strings.Builder
	line := strings.Repeat("=", 60)

	b.WriteString(line + "\n")
	b.WriteString(headerColor.Sprint("SEMANTIC SEARCH STATISTICS") + "\n")
	b.WriteString(line + "\n\n")

	health := color.GreenString("healthy")
	if !stats.Healthy {
		health = color.RedString("unreachable")
	}
	fmt.Fprintf(&b, "Collection:      %s\n", stats.CollectionName)
	fmt.Fprintf(&b, "Health:          %s\n", health)
	fmt.Fprintf(&b, "Vector size:     %d dimensions\n", stats.VectorSize)
	fmt.Fprintf(&b, "Distance metric: %s\n", stats.Distance)
	fmt.Fprintf(&b, "Total chunks:    %d\n", stats.TotalChunks)
	fmt.Fprintf(&b, "Total files:     %d\n\n", stats.TotalFiles)

	b.WriteString("Language distribution:\n")
	if len(stats.Languages) == 0 {
		b.WriteString("  no language data\n")
	} else {
		type langCount struct {
			lang  string
			count int
		}
		langs := make([]langCount, 0, len(stats.Languages))
		for lang, count := range stats.Languages {
			langs = append(langs, langCount{lang, count})
		}
		sort.Slice(langs, func(i, j int) bool {
			if langs[i].count != langs[j].count {
				return langs[i].count > langs[j].count
			}
			return langs[i].lang < langs[j].lang
		})
		for _, lc := range langs {
			pct := float64(lc.count) / float64(stats.TotalChunks) * 100
			fmt.Fprintf(&b, "  %-12s %6d chunks (%5.1f%%)\n", lc.lang, lc.count, pct)
		}
	}

	b.WriteString("\n" + line + "\n")
	return b.String()
}

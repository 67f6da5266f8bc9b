package report

import (
	"fmt"
	"strconv"

	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/internal/domain/scoring"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteScore renders one computed score with its raw and normalised factors.
// Parquet is not offered for a single score and falls back to JSON.
func (w *Writer) WriteScore(m model.Metrics, r scoring.Result) error {
	if w.format != TableOut {
		return w.writeJSON(map[string]any{
			"score":             r.Score,
			"normalizedFactors": r.Factors,
			"rawData":           m,
		})
	}

	table := tablewriter.NewWriter(w.out)
	table.Header([]string{"Factor", "Raw", "Normalised"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	pct := func(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) + "%" }
	data := [][]string{
		{"followers", strconv.Itoa(m.Followers), pct(r.Factors.Followers)},
		{"total stars", strconv.Itoa(m.TotalStars), pct(r.Factors.TotalStars)},
		{"public repos", strconv.Itoa(m.PublicRepos), pct(r.Factors.PublicRepos)},
		{"recent activity", strconv.FormatFloat(m.AvgRecentActivity, 'f', 2, 64), pct(r.Factors.RecentActivity)},
		{"collaboration", strconv.FormatFloat(m.CollaborationDiversity, 'f', 2, 64), pct(r.Factors.CollaborationDiversity)},
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w.out, "%s scored %d/%d (%s), %d languages.\n", m.Identity, r.Score, scoring.MaxScore, w.scoreLabel(r.Score), m.LanguageDiversity)
	return err
}

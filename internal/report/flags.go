package report

import (
	"time"

	"github.com/fatih/color"
	"github.com/okian/gscore/internal/domain/model"
	"github.com/olekukonko/tablewriter"
)

var reasonColor = color.New(color.FgYellow)

// WriteFlags renders flag ledger entries, newest first as given.
// Parquet is not offered for flags and falls back to JSON.
func (w *Writer) WriteFlags(entries []model.Flag) error {
	if w.format != TableOut {
		if entries == nil {
			entries = []model.Flag{}
		}
		return w.writeJSON(entries)
	}

	table := tablewriter.NewWriter(w.out)
	table.Header([]string{"When", "GitHub", "Wallet", "Reason"})
	data := make([][]string, 0, len(entries))
	for _, f := range entries {
		wallet := f.Wallet
		if wallet == "" {
			wallet = "-"
		}
		data = append(data, []string{
			f.CreatedAt.UTC().Format(time.RFC3339),
			f.Identity,
			wallet,
			w.paint(reasonColor, f.Reason),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

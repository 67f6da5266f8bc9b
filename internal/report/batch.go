package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/okian/gscore/internal/domain/bulk"
	"github.com/okian/gscore/internal/domain/scoring"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const (
	strongLabel   = "Strong"
	solidLabel    = "Solid"
	emergingLabel = "Emerging"
	lowLabel      = "Low"
	failedLabel   = "Failed"
)

var (
	strongColor   = color.New(color.FgGreen, color.Bold)
	solidColor    = color.New(color.FgGreen)
	emergingColor = color.New(color.FgYellow)
	lowColor      = color.New(color.FgHiBlack)
	failedColor   = color.New(color.FgRed, color.Bold)
)

// Label buckets a score into a band.
//   - Strong (>=750)
//   - Solid (>=500)
//   - Emerging (>=250)
//   - Low (<250)
func Label(score int) string {
	switch {
	case score >= scoring.MaxScore*3/4:
		return strongLabel
	case score >= scoring.MaxScore/2:
		return solidLabel
	case score >= scoring.MaxScore/4:
		return emergingLabel
	default:
		return lowLabel
	}
}

func (w *Writer) paint(c *color.Color, s string) string {
	if !w.color {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (w *Writer) scoreLabel(score int) string {
	text := Label(score)
	switch text {
	case strongLabel:
		return w.paint(strongColor, text)
	case solidLabel:
		return w.paint(solidColor, text)
	case emergingLabel:
		return w.paint(emergingColor, text)
	default:
		return w.paint(lowColor, text)
	}
}

func (w *Writer) outcomeLabel(o bulk.Outcome) string {
	if o.Status != bulk.StatusScored {
		return w.paint(failedColor, failedLabel)
	}
	return w.scoreLabel(o.Score)
}

// WriteBatch renders a batch report in the configured format.
func (w *Writer) WriteBatch(rep bulk.Report) error {
	switch w.format {
	case JSONOut:
		return w.writeJSON(rep)
	case ParquetOut:
		if IsTerminal(w.out) {
			return ErrBinaryToTerminal
		}
		return writeOutcomesParquet(w.out, rep)
	default:
		return w.batchTable(rep)
	}
}

func (w *Writer) batchTable(rep bulk.Report) error {
	table := tablewriter.NewWriter(w.out)
	table.Header([]string{"#", "GitHub", "Score", "Label", "Attested", "Note"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(rep.Outcomes))
	for i, o := range rep.Outcomes {
		score, attested, note := "-", "no", o.Error
		if o.Status == bulk.StatusScored {
			score = strconv.Itoa(o.Score)
		}
		if o.AttestationID != nil {
			attested = "yes"
		}
		if o.Flagged && note == "" {
			note = o.FlagReason
		}
		data = append(data, []string{strconv.Itoa(i + 1), o.Identity, score, w.outcomeLabel(o), attested, note})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := rep.Summary
	if _, err := fmt.Fprintf(w.out, "Scored %d, failed %d in %v.\n", s.Scored, s.Failed, rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond)); err != nil {
		return err
	}
	for i, p := range s.TopPerformers {
		if _, err := fmt.Fprintf(w.out, "Top %d: %s (%d, %s)\n", i+1, p.Identity, p.Score, p.Verification); err != nil {
			return err
		}
	}
	for _, r := range s.StandoutRepos {
		if _, err := fmt.Fprintf(w.out, "Standout repo: %s/%s (%d stars)\n", r.Owner, r.Name, r.Stars); err != nil {
			return err
		}
	}
	return nil
}

package report

import (
	"fmt"
	"io"
	"time"

	"github.com/okian/gscore/internal/domain/bulk"
	"github.com/parquet-go/parquet-go"
)

// OutcomeRow is one batch outcome as a parquet row.
type OutcomeRow struct {
	BatchID                string    `parquet:"batch_id,snappy"`
	Position               int32     `parquet:"position,snappy"`
	Identity               string    `parquet:"github_username,snappy"`
	Status                 string    `parquet:"status,snappy"`
	Score                  int32     `parquet:"score,snappy"`
	Label                  string    `parquet:"label,snappy"`
	Followers              *int32    `parquet:"followers,optional,snappy"`
	TotalStars             *int32    `parquet:"total_stars,optional,snappy"`
	PublicRepos            *int32    `parquet:"public_repos,optional,snappy"`
	RecentActivity         *float64  `parquet:"recent_activity,optional,snappy"`
	CollaborationDiversity *float64  `parquet:"collaboration_diversity,optional,snappy"`
	LanguageDiversity      *int32    `parquet:"language_diversity,optional,snappy"`
	AttestationID          *string   `parquet:"attestation_id,optional,snappy"`
	Flagged                bool      `parquet:"flagged,snappy"`
	Error                  *string   `parquet:"error,optional,snappy"`
	FinishedAt             time.Time `parquet:"finished_at,snappy"`
}

// OutcomeRows flattens a report into parquet rows.
func OutcomeRows(rep bulk.Report) []OutcomeRow {
	rows := make([]OutcomeRow, 0, len(rep.Outcomes))
	for i, o := range rep.Outcomes {
		row := OutcomeRow{
			BatchID:       rep.BatchID,
			Position:      int32(i + 1),
			Identity:      o.Identity,
			Status:        string(o.Status),
			AttestationID: o.AttestationID,
			Flagged:       o.Flagged,
			FinishedAt:    rep.FinishedAt,
		}
		if o.Status == bulk.StatusScored {
			row.Score = int32(o.Score)
			row.Label = Label(o.Score)
		}
		if m := o.Metrics; m != nil {
			followers, stars, repos, langs := int32(m.Followers), int32(m.TotalStars), int32(m.PublicRepos), int32(m.LanguageDiversity)
			activity, collab := m.AvgRecentActivity, m.CollaborationDiversity
			row.Followers, row.TotalStars, row.PublicRepos, row.LanguageDiversity = &followers, &stars, &repos, &langs
			row.RecentActivity, row.CollaborationDiversity = &activity, &collab
		}
		if o.Error != "" {
			msg := o.Error
			row.Error = &msg
		}
		rows = append(rows, row)
	}
	return rows
}

func writeOutcomesParquet(out io.Writer, rep bulk.Report) error {
	writer := parquet.NewGenericWriter[OutcomeRow](out)
	if _, err := writer.Write(OutcomeRows(rep)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write outcomes to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

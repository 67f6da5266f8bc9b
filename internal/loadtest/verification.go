package loadtest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/gscore/pkg/logger"
)

// Verification failures.
var (
	ErrNothingStored  = errors.New("no scores were stored")
	ErrMismatch       = errors.New("read back differs from submission")
	ErrLeaderboard    = errors.New("leaderboard inconsistent")
	ErrLockNotEnforce = errors.New("wallet lock not enforced")
)

// verifyResults checks read-backs, lock rejections and the leaderboard
// against the submissions.
func verifyResults(ctx context.Context, subs []Submission, readBack, board []Entry, stats *Stats) error {
	if stats.Stored == 0 || len(readBack) == 0 {
		return ErrNothingStored
	}
	if stats.Mismatched > 0 {
		return fmt.Errorf("%w: %d wallets", ErrMismatch, stats.Mismatched)
	}
	if stats.Failed == 0 && stats.LockViolations != stats.LockChecks {
		return fmt.Errorf("%w: %d of %d re-submissions accepted", ErrLockNotEnforce,
			stats.LockChecks-stats.LockViolations, stats.LockChecks)
	}
	if stats.Failed > 0 {
		subs = nil
	}
	if err := verifyLeaderboardConsistency(subs, board); err != nil {
		return err
	}
	logger.Get().Info(ctx, "leaderboard consistency verified")
	return nil
}

// verifyLeaderboardConsistency checks ordering and that the leader holds the
// highest submitted score when subs is given. Other wallets may share the
// server, so only the score is compared.
func verifyLeaderboardConsistency(subs []Submission, board []Entry) error {
	if len(board) == 0 {
		return fmt.Errorf("%w: empty leaderboard", ErrLeaderboard)
	}
	for i := 1; i < len(board); i++ {
		if board[i].Score > board[i-1].Score {
			return fmt.Errorf("%w: entry %d outranks entry %d", ErrLeaderboard, i, i-1)
		}
		if board[i].Rank != i+1 {
			return fmt.Errorf("%w: entry %d has rank %d", ErrLeaderboard, i, board[i].Rank)
		}
	}
	if len(subs) == 0 {
		return nil
	}
	sorted := make([]Submission, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if board[0].Score < sorted[0].Score {
		return fmt.Errorf("%w: top score %d is below the highest submitted %d", ErrLeaderboard, board[0].Score, sorted[0].Score)
	}
	return nil
}

package loadtest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/gscore/internal/adapters/http/api"
	service "github.com/okian/gscore/internal/app"
	"github.com/okian/gscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newServer() *httptest.Server {
	svc := service.New()
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestRun(t *testing.T) {
	Convey("Given a running server on the in-memory ledger", t, func() {
		srv := newServer()
		Reset(srv.Close)
		out := filepath.Join(t.TempDir(), "subs", "submissions.json")
		cfg := &Config{
			BaseURL:    srv.URL,
			NumWallets: 40,
			TopN:       10,
			Workers:    4,
			Timeout:    5 * time.Second,
			OutputFile: out,
		}

		Convey("When the load test runs", func() {
			stats, err := Run(context.Background(), cfg)

			Convey("Then every store is read back and the locks hold", func() {
				So(err, ShouldBeNil)
				So(stats.Stored, ShouldEqual, 40)
				So(stats.ReadBack, ShouldEqual, 40)
				So(stats.Mismatched, ShouldEqual, 0)
				So(stats.LockChecks, ShouldEqual, 5)
				So(stats.LockViolations, ShouldEqual, 5)
				So(stats.LeaderboardEntries, ShouldEqual, 10)
				_, statErr := os.Stat(out)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When no wallets are requested", func() {
			cfg.NumWallets = 0
			_, err := Run(context.Background(), cfg)

			Convey("Then the run is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given no server", t, func() {
		cfg := &Config{BaseURL: "http://127.0.0.1:1", NumWallets: 1, Workers: 1, Timeout: time.Second}

		Convey("Then the health check fails", func() {
			_, err := Run(context.Background(), cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestVerifyLeaderboardConsistency(t *testing.T) {
	Convey("Given submissions", t, func() {
		subs := []Submission{{Score: 10}, {Score: 900}, {Score: 300}}

		Convey("When the leaderboard is ordered and led by the top score", func() {
			board := []Entry{{Rank: 1, Score: 900}, {Rank: 2, Score: 300}, {Rank: 3, Score: 10}}
			So(verifyLeaderboardConsistency(subs, board), ShouldBeNil)
		})

		Convey("When the leaderboard is out of order", func() {
			board := []Entry{{Rank: 1, Score: 300}, {Rank: 2, Score: 900}}
			So(errors.Is(verifyLeaderboardConsistency(subs, board), ErrLeaderboard), ShouldBeTrue)
		})

		Convey("When the leader is below the top submission", func() {
			board := []Entry{{Rank: 1, Score: 300}}
			So(errors.Is(verifyLeaderboardConsistency(subs, board), ErrLeaderboard), ShouldBeTrue)
		})

		Convey("When the leaderboard is empty", func() {
			So(errors.Is(verifyLeaderboardConsistency(subs, nil), ErrLeaderboard), ShouldBeTrue)
		})
	})
}

func TestGenerateScore(t *testing.T) {
	Convey("Generated scores stay in range", t, func() {
		for i := 0; i < 500; i++ {
			s := generateScore()
			So(s, ShouldBeBetweenOrEqual, 0, maxScore)
		}
	})
}

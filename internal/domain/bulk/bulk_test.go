package bulk_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/gscore/internal/adapters/blob"
	"github.com/okian/gscore/internal/domain/attestation"
	"github.com/okian/gscore/internal/domain/bulk"
	"github.com/okian/gscore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeCollector struct {
	profiles map[string]model.Metrics
	calls    []string
	tokens   []string
	cancel   func()
}

func (f *fakeCollector) Collect(_ context.Context, identity, token string) (model.Metrics, error) {
	f.calls = append(f.calls, identity)
	if token != "" {
		f.tokens = append(f.tokens, token)
	}
	if f.cancel != nil {
		f.cancel()
	}
	m, ok := f.profiles[identity]
	if !ok {
		return model.Metrics{}, errors.New("GitHub API Error: Not Found (404)")
	}
	return m, nil
}

type fakeFlags map[string]string

func (f fakeFlags) Lookup(_ context.Context, identity string) (model.Flag, bool, error) {
	reason, ok := f[model.NormalizeIdentity(identity)]
	return model.Flag{Identity: identity, Reason: reason}, ok, nil
}

func profile(id string, followers int, repos ...model.Repo) model.Metrics {
	return model.Metrics{Identity: id, Followers: followers, TopRepos: repos}
}

func clock() func() time.Time {
	t := time.Unix(1_700_000_000, 0)
	return func() time.Time { return t }
}

func TestParseIdentities(t *testing.T) {
	Convey("Given free text naming profiles", t, func() {
		text := "alice, https://github.com/Bob\n@carol  ALICE,, https://github.com/dave/some-repo\thttp://github.com/erin/"

		Convey("Then identities are normalized and de-duplicated in order", func() {
			So(bulk.ParseIdentities(text), ShouldResemble, []string{"alice", "Bob", "carol", "dave", "erin"})
		})

		Convey("And blank input yields nothing", func() {
			So(bulk.ParseIdentities(" ,\n "), ShouldBeEmpty)
		})

		Convey("And explicit lists are cleaned the same way", func() {
			So(bulk.Dedupe([]string{" alice ", "@alice", "bob"}), ShouldResemble, []string{"alice", "bob"})
		})
	})
}

func TestRunner_Run(t *testing.T) {
	Convey("Given a batch where one identity does not exist", t, func() {
		c := &fakeCollector{profiles: map[string]model.Metrics{
			"alice": profile("alice", 5000,
				model.Repo{Name: "a1", Owner: "alice", Stars: 50},
				model.Repo{Name: "a2", Owner: "alice", Stars: 10}),
			"bob":   profile("bob", 2500, model.Repo{Name: "b1", Owner: "bob", Stars: 50}),
			"carol": profile("carol", 5000, model.Repo{Name: "c1", Owner: "carol", Stars: 70}),
			"dave":  profile("dave", 100, model.Repo{Name: "d1", Stars: 999}),
		}}
		r := bulk.NewRunner(c, nil, bulk.WithClock(clock()))
		rep := r.Run(context.Background(), "b-1", []string{"alice", "ghost", "bob", "carol", "dave"})

		Convey("Then every input is processed in order", func() {
			So(c.calls, ShouldResemble, []string{"alice", "ghost", "bob", "carol", "dave"})
			So(rep.Outcomes, ShouldHaveLength, 5)
			So(rep.Outcomes[1].Identity, ShouldEqual, "ghost")
			So(rep.Outcomes[1].Status, ShouldEqual, bulk.StatusError)
			So(rep.Outcomes[1].Error, ShouldContainSubstring, "404")
			So(rep.Outcomes[2].Status, ShouldEqual, bulk.StatusScored)
		})

		Convey("Then the collector falls back to its configured token", func() {
			So(c.tokens, ShouldBeEmpty)
		})

		Convey("Then the top performers are ranked with ties in input order", func() {
			top := rep.Summary.TopPerformers
			So(top, ShouldHaveLength, 3)
			So(top[0].Identity, ShouldEqual, "alice")
			So(top[1].Identity, ShouldEqual, "carol")
			So(top[2].Identity, ShouldEqual, "bob")
			So(top[0].Verification, ShouldEqual, bulk.Unverified)
			So(rep.Summary.Scored, ShouldEqual, 4)
			So(rep.Summary.Failed, ShouldEqual, 1)
		})

		Convey("Then standout repos span every scored profile and keep ties stable", func() {
			names := []string{}
			for _, repo := range rep.Summary.StandoutRepos {
				names = append(names, repo.Name)
			}
			So(names, ShouldResemble, []string{"d1", "c1", "a1", "b1", "a2"})
			So(rep.Summary.StandoutRepos[0].Owner, ShouldEqual, "dave")
		})

		Convey("Then the report becomes the latest snapshot", func() {
			latest, ok, err := r.Latest(context.Background())
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(latest.BatchID, ShouldEqual, "b-1")
		})
	})

	Convey("Given an attester and a flag reader", t, func() {
		c := &fakeCollector{profiles: map[string]model.Metrics{"alice": profile("alice", 10)}}
		r := bulk.NewRunner(c, nil,
			bulk.WithClock(clock()),
			bulk.WithAttester(attestation.NewKeccak()),
			bulk.WithFlagReader(fakeFlags{"alice": "Wallet locked to bob"}),
		)
		rep := r.Run(context.Background(), "", []string{"alice"})

		Convey("Then outcomes carry the attestation and flag status", func() {
			o := rep.Outcomes[0]
			want := attestation.NewKeccak().Attest("alice", o.Score, 1_700_000_000).Hex()
			So(o.AttestationID, ShouldNotBeNil)
			So(*o.AttestationID, ShouldEqual, want)
			So(o.Flagged, ShouldBeTrue)
			So(o.FlagReason, ShouldEqual, "Wallet locked to bob")
			So(rep.Summary.TopPerformers[0].Verification, ShouldEqual, bulk.Verified)
		})
	})

	Convey("Given a batch cancelled part way", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		c := &fakeCollector{
			profiles: map[string]model.Metrics{"alice": profile("alice", 1), "bob": profile("bob", 1)},
			cancel:   cancel,
		}
		rep := bulk.NewRunner(c, nil).Run(ctx, "", []string{"alice", "bob", "carol"})

		Convey("Then the remaining identities are marked with the context error", func() {
			So(c.calls, ShouldResemble, []string{"alice"})
			So(rep.Outcomes, ShouldHaveLength, 3)
			So(rep.Outcomes[0].Status, ShouldEqual, bulk.StatusScored)
			So(rep.Outcomes[1].Status, ShouldEqual, bulk.StatusError)
			So(rep.Outcomes[2].Error, ShouldEqual, context.Canceled.Error())
		})
	})
}

func TestRunner_Snapshot(t *testing.T) {
	Convey("Given a runner persisting snapshots to a directory", t, func() {
		dir := t.TempDir()
		c := &fakeCollector{profiles: map[string]model.Metrics{"alice": profile("alice", 42)}}
		bulk.NewRunner(c, nil, bulk.WithSnapshotStore(blob.NewLocal(dir))).
			Run(context.Background(), "persisted", []string{"alice"})

		Convey("Then a fresh runner loads it", func() {
			fresh := bulk.NewRunner(c, nil, bulk.WithSnapshotStore(blob.NewLocal(dir)))
			rep, ok, err := fresh.Latest(context.Background())
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(rep.BatchID, ShouldEqual, "persisted")
			So(rep.Summary.TopPerformers[0].Identity, ShouldEqual, "alice")
		})

		Convey("Then a runner without a store has nothing", func() {
			_, ok, err := bulk.NewRunner(c, nil).Latest(context.Background())
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestOutcomeJSON(t *testing.T) {
	Convey("Given a profile that scores zero", t, func() {
		c := &fakeCollector{profiles: map[string]model.Metrics{"newbie": profile("newbie", 0)}}
		rep := bulk.NewRunner(c, nil, bulk.WithClock(clock())).Run(context.Background(), "b-0", []string{"newbie"})
		So(rep.Outcomes[0].Status, ShouldEqual, bulk.StatusScored)
		So(rep.Outcomes[0].Score, ShouldEqual, 0)

		Convey("Then the encoded outcome still carries its score", func() {
			data, err := json.Marshal(rep.Outcomes[0])
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"score":0`)
		})
	})
}

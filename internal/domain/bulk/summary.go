package bulk

import (
	"sort"

	"github.com/okian/gscore/internal/domain/model"
)

const (
	topPerformerCount = 3
	standoutRepoCount = 5
)

// Verification labels on top performers.
const (
	Verified   = "verified"
	Unverified = "unverified"
)

// Summarize ranks scored outcomes. Ties keep input order.
func Summarize(outcomes []Outcome) Summary {
	var (
		s      Summary
		scored []Outcome
		repos  []model.Repo
	)
	for _, o := range outcomes {
		if o.Status != StatusScored {
			s.Failed++
			continue
		}
		s.Scored++
		scored = append(scored, o)
		if o.Metrics == nil {
			continue
		}
		for _, repo := range o.Metrics.TopRepos {
			if repo.Owner == "" {
				repo.Owner = o.Identity
			}
			repos = append(repos, repo)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	s.TopPerformers = make([]Performer, 0, topPerformerCount)
	for _, o := range scored[:min(topPerformerCount, len(scored))] {
		p := Performer{Identity: o.Identity, Score: o.Score, Verification: Unverified, AttestationID: o.AttestationID}
		if o.AttestationID != nil {
			p.Verification = Verified
		}
		s.TopPerformers = append(s.TopPerformers, p)
	}

	sort.SliceStable(repos, func(i, j int) bool { return repos[i].Stars > repos[j].Stars })
	s.StandoutRepos = append(make([]model.Repo, 0, standoutRepoCount), repos[:min(standoutRepoCount, len(repos))]...)
	return s
}

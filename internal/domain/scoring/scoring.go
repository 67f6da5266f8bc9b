// Package scoring turns a metric tuple into a bounded reputation score.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/gscore/internal/domain/model"
)

// MaxScore is the upper bound of a final score.
const MaxScore = 1000

const weightTolerance = 1e-9

// Factor names as they appear in responses.
const (
	FactorFollowers              = "followers"
	FactorTotalStars             = "totalStars"
	FactorPublicRepos            = "publicRepos"
	FactorRecentActivity         = "recentActivityScore"
	FactorCollaborationDiversity = "collaborationDiversity"
)

// Benchmarks are the saturation points for each raw metric.
type Benchmarks struct {
	Followers              float64
	TotalStars             float64
	PublicRepos            float64
	RecentActivity         float64
	CollaborationDiversity float64
}

// Weights are the relative contributions of each normalized factor. They sum to 1.
type Weights struct {
	Followers              float64
	TotalStars             float64
	PublicRepos            float64
	RecentActivity         float64
	CollaborationDiversity float64
}

func (w Weights) sum() float64 {
	return w.Followers + w.TotalStars + w.PublicRepos + w.RecentActivity + w.CollaborationDiversity
}

// Model bundles benchmarks and weights.
type Model struct {
	Benchmarks Benchmarks
	Weights    Weights
}

// DefaultModel is the fixed production model.
func DefaultModel() Model {
	return Model{
		Benchmarks: Benchmarks{
			Followers:              5000,
			TotalStars:             50000,
			PublicRepos:            100,
			RecentActivity:         1.0,
			CollaborationDiversity: 1.0,
		},
		Weights: Weights{
			Followers:              0.30,
			TotalStars:             0.25,
			RecentActivity:         0.20,
			PublicRepos:            0.15,
			CollaborationDiversity: 0.10,
		},
	}
}

// Validate rejects negative weights and weights that do not sum to 1.
func (m Model) Validate() error {
	w := m.Weights
	for _, v := range []float64{w.Followers, w.TotalStars, w.PublicRepos, w.RecentActivity, w.CollaborationDiversity} {
		if v < 0 {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidModel, v)
		}
	}
	if s := w.sum(); math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidModel, s)
	}
	return nil
}

// Factors holds the normalized value of each factor, each in [0,1].
type Factors struct {
	Followers              float64 `json:"followers"`
	TotalStars             float64 `json:"totalStars"`
	PublicRepos            float64 `json:"publicRepos"`
	RecentActivity         float64 `json:"recentActivityScore"`
	CollaborationDiversity float64 `json:"collaborationDiversity"`
}

// Result is the outcome of scoring one metric tuple.
type Result struct {
	Factors Factors `json:"normalizedFactors"`
	Score   int     `json:"score"`
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithModel replaces the default model. Invalid models are rejected by New.
func WithModel(m Model) Option {
	return func(s *Scorer) {
		s.model = m
	}
}

// Scorer computes scores. It is pure and safe for concurrent use.
type Scorer struct {
	model Model
}

// New creates a Scorer.
func New(opts ...Option) (*Scorer, error) {
	s := &Scorer{model: DefaultModel()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.model.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Default returns a Scorer over DefaultModel.
func Default() *Scorer {
	return &Scorer{model: DefaultModel()}
}

// Model returns the scorer's model.
func (s *Scorer) Model() Model { return s.model }

// Normalize maps v onto [0,1] against max. A non-positive max yields 0.
func Normalize(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	n := v / max
	switch {
	case n > 1:
		return 1
	case n < 0 || math.IsNaN(n):
		return 0
	}
	return n
}

// Score computes the normalized factors and the final score for m.
func (s *Scorer) Score(m model.Metrics) Result {
	b, w := s.model.Benchmarks, s.model.Weights
	f := Factors{
		Followers:              Normalize(float64(m.Followers), b.Followers),
		TotalStars:             Normalize(float64(m.TotalStars), b.TotalStars),
		PublicRepos:            Normalize(float64(m.PublicRepos), b.PublicRepos),
		RecentActivity:         Normalize(m.AvgRecentActivity, b.RecentActivity),
		CollaborationDiversity: Normalize(m.CollaborationDiversity, b.CollaborationDiversity),
	}
	// Summation order is fixed so identical inputs round identically everywhere.
	sum := f.Followers*w.Followers +
		f.TotalStars*w.TotalStars +
		f.PublicRepos*w.PublicRepos +
		f.RecentActivity*w.RecentActivity +
		f.CollaborationDiversity*w.CollaborationDiversity

	score := int(math.Round(sum * MaxScore))
	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}
	return Result{Factors: f, Score: score}
}

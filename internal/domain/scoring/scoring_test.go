package scoring_test

import (
	"errors"
	"testing"

	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScorer_Score(t *testing.T) {
	Convey("Given the default scorer", t, func() {
		s := scoring.Default()

		Convey("When every metric is zero", func() {
			r := s.Score(model.Metrics{Identity: "nobody"})

			Convey("Then the score is zero", func() {
				So(r.Score, ShouldEqual, 0)
				So(r.Factors, ShouldResemble, scoring.Factors{})
			})
		})

		Convey("When every metric is at or past its benchmark", func() {
			r := s.Score(model.Metrics{
				Followers:              10_000,
				TotalStars:             100_000,
				PublicRepos:            250,
				AvgRecentActivity:      1,
				CollaborationDiversity: 1,
			})

			Convey("Then factors saturate at 1 and the score is the maximum", func() {
				So(r.Factors.Followers, ShouldEqual, 1)
				So(r.Factors.TotalStars, ShouldEqual, 1)
				So(r.Factors.PublicRepos, ShouldEqual, 1)
				So(r.Score, ShouldEqual, scoring.MaxScore)
			})
		})

		Convey("When metrics sit at half their benchmarks", func() {
			r := s.Score(model.Metrics{
				Followers:              2500,
				PublicRepos:            50,
				AvgRecentActivity:      0.5,
				CollaborationDiversity: 1,
			})

			Convey("Then the weighted sum is scaled and rounded", func() {
				So(r.Factors.Followers, ShouldAlmostEqual, 0.5)
				So(r.Factors.PublicRepos, ShouldAlmostEqual, 0.5)
				So(r.Score, ShouldEqual, 425)
			})
		})

		Convey("When a small profile is scored", func() {
			r := s.Score(model.Metrics{
				Followers:         100,
				TotalStars:        1000,
				PublicRepos:       10,
				AvgRecentActivity: 0.8,
			})

			Convey("Then each factor contributes by its weight", func() {
				So(r.Score, ShouldEqual, 186)
			})
		})

		Convey("When the same tuple is scored twice", func() {
			m := model.Metrics{Followers: 321, TotalStars: 4567, PublicRepos: 33, AvgRecentActivity: 0.37}

			Convey("Then results are identical", func() {
				So(s.Score(m), ShouldResemble, s.Score(m))
			})
		})

		Convey("When any single metric increases", func() {
			base := model.Metrics{Followers: 100, TotalStars: 100, PublicRepos: 10, AvgRecentActivity: 0.2}
			more := base
			more.Followers = 4000

			Convey("Then the score never decreases", func() {
				So(s.Score(more).Score, ShouldBeGreaterThanOrEqualTo, s.Score(base).Score)
			})
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Normalize clamps into [0,1]", t, func() {
		So(scoring.Normalize(50, 100), ShouldEqual, 0.5)
		So(scoring.Normalize(500, 100), ShouldEqual, 1)
		So(scoring.Normalize(5, 0), ShouldEqual, 0)
		So(scoring.Normalize(-1, 10), ShouldEqual, 0)
	})
}

func TestModelValidation(t *testing.T) {
	Convey("Given scoring models", t, func() {
		Convey("The default model is valid", func() {
			So(scoring.DefaultModel().Validate(), ShouldBeNil)
		})

		Convey("Weights that do not sum to one are rejected", func() {
			m := scoring.DefaultModel()
			m.Weights.Followers = 0.5
			_, err := scoring.New(scoring.WithModel(m))
			So(errors.Is(err, scoring.ErrInvalidModel), ShouldBeTrue)
		})

		Convey("Negative weights are rejected", func() {
			m := scoring.DefaultModel()
			m.Weights.Followers = -0.1
			m.Weights.TotalStars = 0.65
			So(errors.Is(m.Validate(), scoring.ErrInvalidModel), ShouldBeTrue)
		})

		Convey("A valid custom model is accepted", func() {
			m := scoring.DefaultModel()
			m.Benchmarks.Followers = 100
			s, err := scoring.New(scoring.WithModel(m))
			So(err, ShouldBeNil)
			So(s.Score(model.Metrics{Followers: 100}).Score, ShouldEqual, 300)
		})
	})
}

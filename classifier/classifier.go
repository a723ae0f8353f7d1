// Package classifier maps percentage-like scores onto discrete tiers.
//
// A Scheme is a threshold table evaluated as cumulative "score >= Min" tests
// from the highest band to the lowest; the first match wins and the lowest
// band catches everything below it. Scores are clamped to [0,100] first, so
// every input maps to exactly one tier and a score sitting on a boundary
// belongs to the higher tier.
package classifier

import (
	"fmt"
	"math"
	"sort"

	"cropwatch/apperr"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Tier is the token the presentation layer turns into a label or color.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierModerate  Tier = "moderate"
	TierPoor      Tier = "poor"
	TierCritical  Tier = "critical"

	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Band is one row of a threshold table.
type Band struct {
	Tier  Tier    `json:"tier" mapstructure:"tier"`
	Min   float64 `json:"min" mapstructure:"min"`
	Label string  `json:"label" mapstructure:"label"`
	Color string  `json:"color" mapstructure:"color"`
}

type Scheme struct {
	Name  string `json:"name"`
	Bands []Band `json:"bands"` // descending by Min
}

type Result struct {
	Scheme     string  `json:"scheme"`
	Score      float64 `json:"score"`
	Clamped    float64 `json:"clamped"`
	OutOfRange bool    `json:"outOfRange"`
	Tier       Tier    `json:"tier"`
	Label      string  `json:"label"`
	Color      string  `json:"color"`
}

// NewScheme validates bands and returns them as a scheme sorted from the
// highest threshold to the lowest.
func NewScheme(name string, bands ...Band) (*Scheme, error) {
	if name == "" {
		return nil, apperr.Invalidf("scheme name is empty")
	}
	if len(bands) == 0 {
		return nil, apperr.Invalidf("scheme %q has no bands", name)
	}
	sorted := append([]Band(nil), bands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })

	tiers := make(map[Tier]struct{}, len(sorted))
	for i, b := range sorted {
		if b.Tier == "" {
			return nil, apperr.Invalidf("scheme %q: band %d has no tier", name, i)
		}
		if math.IsNaN(b.Min) {
			return nil, apperr.Invalidf("scheme %q: tier %q has NaN threshold", name, b.Tier)
		}
		if _, dup := tiers[b.Tier]; dup {
			return nil, apperr.Invalidf("scheme %q: tier %q listed twice", name, b.Tier)
		}
		tiers[b.Tier] = struct{}{}
		if i > 0 && sorted[i-1].Min == b.Min {
			return nil, apperr.Invalidf("scheme %q: tiers %q and %q share threshold %v", name, sorted[i-1].Tier, b.Tier, b.Min)
		}
		if sorted[i].Label == "" {
			sorted[i].Label = string(b.Tier)
		}
	}
	return &Scheme{Name: name, Bands: sorted}, nil
}

// MustScheme is NewScheme for package-level tables known to be valid.
func MustScheme(name string, bands ...Band) *Scheme {
	s, err := NewScheme(name, bands...)
	if err != nil {
		panic(err)
	}
	return s
}

// Clamp bounds score to [0,100]. NaN is treated as the bottom of the range.
// The second return value reports whether the input was outside the range.
func Clamp(score float64) (float64, bool) {
	switch {
	case math.IsNaN(score):
		return MinScore, true
	case score < MinScore:
		return MinScore, true
	case score > MaxScore:
		return MaxScore, true
	}
	return score, false
}

// Validate is the strict variant of Clamp.
func Validate(score float64) error {
	if _, out := Clamp(score); out {
		return fmt.Errorf("%w: %v not in [%v,%v]", apperr.ErrOutOfRangeScore, score, MinScore, MaxScore)
	}
	return nil
}

func (s *Scheme) Classify(score float64) Result {
	clamped, out := Clamp(score)
	b := s.band(clamped)
	return Result{
		Scheme:     s.Name,
		Score:      score,
		Clamped:    clamped,
		OutOfRange: out,
		Tier:       b.Tier,
		Label:      b.Label,
		Color:      b.Color,
	}
}

func (s *Scheme) Tier(score float64) Tier {
	clamped, _ := Clamp(score)
	return s.band(clamped).Tier
}

func (s *Scheme) band(score float64) Band {
	for _, b := range s.Bands {
		if score >= b.Min {
			return b
		}
	}
	return s.Bands[len(s.Bands)-1]
}

// Rank is the position of t from the top band, 0 being the highest.
// It returns -1 for tiers the scheme does not know.
func (s *Scheme) Rank(t Tier) int {
	for i, b := range s.Bands {
		if b.Tier == t {
			return i
		}
	}
	return -1
}

// Tiers lists the scheme's tiers from the highest band to the lowest.
func (s *Scheme) Tiers() []Tier {
	out := make([]Tier, len(s.Bands))
	for i, b := range s.Bands {
		out[i] = b.Tier
	}
	return out
}

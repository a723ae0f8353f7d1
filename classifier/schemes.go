package classifier

import (
	"fmt"
	"sort"

	"cropwatch/apperr"
)

const (
	SchemeHealth   = "health"
	SchemeRisk     = "risk"
	SchemeMoisture = "moisture"
	SchemeHeat     = "heat"
	SchemeAnalysis = "analysis"
)

// HealthScheme is the 5-tier crop health table used by fields and the dashboard.
func HealthScheme() *Scheme {
	return MustScheme(SchemeHealth,
		Band{Tier: TierExcellent, Min: 80, Label: "Excellent", Color: "health-excellent"},
		Band{Tier: TierGood, Min: 60, Label: "Good", Color: "health-good"},
		Band{Tier: TierModerate, Min: 40, Label: "Moderate", Color: "health-moderate"},
		Band{Tier: TierPoor, Min: 20, Label: "Poor", Color: "health-poor"},
		Band{Tier: TierCritical, Min: 0, Label: "Critical", Color: "health-critical"},
	)
}

// RiskScheme is the 3-tier issue severity table for pest and disease risk.
func RiskScheme() *Scheme {
	return MustScheme(SchemeRisk,
		Band{Tier: TierHigh, Min: 60, Label: "High", Color: "destructive"},
		Band{Tier: TierMedium, Min: 30, Label: "Medium", Color: "warning"},
		Band{Tier: TierLow, Min: 0, Label: "Low", Color: "success"},
	)
}

// AnalysisScheme grades the health score of a single image analysis. It is
// coarser than HealthScheme.
func AnalysisScheme() *Scheme {
	return MustScheme(SchemeAnalysis,
		Band{Tier: TierGood, Min: 80, Label: "Good", Color: "success"},
		Band{Tier: TierModerate, Min: 60, Label: "Moderate", Color: "warning"},
		Band{Tier: TierPoor, Min: 0, Label: "Poor", Color: "destructive"},
	)
}

// MoistureScheme colors the soil moisture map layer.
func MoistureScheme() *Scheme {
	return MustScheme(SchemeMoisture,
		Band{Tier: "saturated", Min: 80, Label: "Saturated", Color: "info"},
		Band{Tier: "optimal", Min: 40, Label: "Optimal", Color: "success"},
		Band{Tier: "low", Min: 20, Label: "Low", Color: "warning"},
		Band{Tier: "dry", Min: 0, Label: "Dry", Color: "destructive"},
	)
}

// HeatScheme colors the surface temperature map layer (°C).
func HeatScheme() *Scheme {
	return MustScheme(SchemeHeat,
		Band{Tier: "hot", Min: 35, Label: "Hot", Color: "destructive"},
		Band{Tier: "warm", Min: 25, Label: "Warm", Color: "warning"},
		Band{Tier: "mild", Min: 10, Label: "Mild", Color: "success"},
		Band{Tier: "cold", Min: 0, Label: "Cold", Color: "info"},
	)
}

// Registry holds the named schemes an application classifies with. It is
// read-only once built.
type Registry struct {
	schemes map[string]*Scheme
}

// NewRegistry returns a registry seeded with the built-in schemes, then
// overridden by any extra schemes with the same name.
func NewRegistry(extra ...*Scheme) *Registry {
	r := &Registry{schemes: make(map[string]*Scheme)}
	for _, s := range []*Scheme{HealthScheme(), AnalysisScheme(), RiskScheme(), MoistureScheme(), HeatScheme()} {
		r.schemes[s.Name] = s
	}
	for _, s := range extra {
		if s != nil {
			r.schemes[s.Name] = s
		}
	}
	return r
}

// Get returns the named scheme.
func (r *Registry) Get(name string) (*Scheme, error) {
	s, ok := r.schemes[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scheme %q", apperr.ErrInvalidArgument, name)
	}
	return s, nil
}

// Must is Get for the built-in scheme names.
func (r *Registry) Must(name string) *Scheme {
	s, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return s
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemes))
	for n := range r.schemes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Classify looks up scheme and classifies score with it.
func (r *Registry) Classify(scheme string, score float64) (Result, error) {
	s, err := r.Get(scheme)
	if err != nil {
		return Result{}, err
	}
	return s.Classify(score), nil
}

// FromTables builds schemes from configured threshold tables keyed by name.
func FromTables(tables map[string][]Band) ([]*Scheme, error) {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]*Scheme, 0, len(names))
	for _, n := range names {
		s, err := NewScheme(n, tables[n]...)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

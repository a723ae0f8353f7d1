package analyzer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"cropwatch/apperr"
	"cropwatch/models"
)

// Provider produces an analysis for a field image. It is the seam between the
// gallery and whatever computes the numbers; today that is MockProvider.
type Provider interface {
	Analyze(ctx context.Context, img models.FieldImage) (*models.AnalysisResult, error)
	Name() string
}

const (
	MockProviderName = "mock"

	// MinorStressIssue is the single issue the mock provider always reports.
	MinorStressIssue = "Minor Stress Detected"
)

// MockRecommendations are returned verbatim by every mock analysis. They do
// not react to the generated risk values.
var MockRecommendations = []string{
	"Apply nitrogen-based fertilizer in the next 3-5 days",
	"Monitor for early signs of aphid infestation",
	"Increase irrigation frequency by 20%",
	"Consider foliar spray for micronutrient deficiency",
}

// MockProvider draws every metric uniformly from a fixed range. The image
// content is not inspected.
type MockProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewMockProvider returns a provider seeded with seed. A zero seed draws from
// the clock so separate runs differ.
func NewMockProvider(seed uint64) *MockProvider {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &MockProvider{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

func (m *MockProvider) Name() string { return MockProviderName }

func (m *MockProvider) Analyze(ctx context.Context, img models.FieldImage) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: image %s: %w", apperr.ErrAnalysisFailed, img.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	severity := models.SeverityLow
	r := &models.AnalysisResult{
		HealthScore:   m.between(60, 40),
		NDVI:          math.Floor((0.5+m.rng.Float64()*0.5)*100) / 100,
		Chlorophyll:   m.between(50, 40),
		Moisture:      m.between(20, 60),
		NitrogenLevel: m.between(60, 40),
		PestRisk:      m.between(10, 60),
		DiseaseRisk:   m.between(5, 50),
	}
	if m.rng.IntN(2) == 1 {
		severity = models.SeverityMedium
	}
	r.Recommendations = append([]string(nil), MockRecommendations...)
	r.DetectedIssues = []models.DetectedIssue{{
		Type:         MinorStressIssue,
		Severity:     severity,
		AffectedArea: m.between(5, 20),
	}}
	r.EnvironmentalData = &models.EnvironmentalData{
		Temperature:    m.between(20, 15),
		Humidity:       m.between(40, 40),
		WindSpeed:      m.between(5, 20),
		SolarRadiation: m.between(600, 400),
	}
	r.Provider = MockProviderName
	r.GeneratedAt = m.now().UTC()
	return r, nil
}

// between returns base + an integer drawn from [0, span).
func (m *MockProvider) between(base, span int) int {
	return base + m.rng.IntN(span)
}

package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropwatch/apperr"
	"cropwatch/models"
)

func inRange(t *testing.T, name string, v, lo, hi int) {
	t.Helper()
	if v < lo || v > hi {
		t.Fatalf("%s = %d, want within [%d,%d]", name, v, lo, hi)
	}
}

func TestMockProvider_RangesHoldOverManyTrials(t *testing.T) {
	t.Parallel()

	p := NewMockProvider(42)
	ctx := context.Background()
	var sawLow, sawMedium bool

	for range 10000 {
		r, err := p.Analyze(ctx, models.FieldImage{ID: "2"})
		require.NoError(t, err)

		inRange(t, "healthScore", r.HealthScore, 60, 99)
		inRange(t, "chlorophyll", r.Chlorophyll, 50, 89)
		inRange(t, "moisture", r.Moisture, 20, 79)
		inRange(t, "nitrogenLevel", r.NitrogenLevel, 60, 99)
		inRange(t, "pestRisk", r.PestRisk, 10, 69)
		inRange(t, "diseaseRisk", r.DiseaseRisk, 5, 54)
		if r.NDVI < 0.5 || r.NDVI >= 1.0 {
			t.Fatalf("ndvi = %v, want within [0.5,1.0)", r.NDVI)
		}

		require.Equal(t, MockRecommendations, r.Recommendations)
		require.Len(t, r.DetectedIssues, 1)
		issue := r.DetectedIssues[0]
		require.Equal(t, MinorStressIssue, issue.Type)
		inRange(t, "affectedArea", issue.AffectedArea, 5, 24)
		switch issue.Severity {
		case models.SeverityLow:
			sawLow = true
		case models.SeverityMedium:
			sawMedium = true
		default:
			t.Fatalf("unexpected severity %q", issue.Severity)
		}

		require.NotNil(t, r.EnvironmentalData)
		env := r.EnvironmentalData
		inRange(t, "temperature", env.Temperature, 20, 34)
		inRange(t, "humidity", env.Humidity, 40, 79)
		inRange(t, "windSpeed", env.WindSpeed, 5, 24)
		inRange(t, "solarRadiation", env.SolarRadiation, 600, 999)

		require.Equal(t, MockProviderName, r.Provider)
		require.False(t, r.GeneratedAt.IsZero())
	}

	assert.True(t, sawLow, "coin flip never produced low")
	assert.True(t, sawMedium, "coin flip never produced medium")
}

func TestMockProvider_SeedIsReproducible(t *testing.T) {
	t.Parallel()

	a, b := NewMockProvider(7), NewMockProvider(7)
	for range 20 {
		ra, err := a.Analyze(context.Background(), models.FieldImage{ID: "x"})
		require.NoError(t, err)
		rb, err := b.Analyze(context.Background(), models.FieldImage{ID: "x"})
		require.NoError(t, err)
		ra.GeneratedAt, rb.GeneratedAt = rb.GeneratedAt, ra.GeneratedAt
		assert.Equal(t, ra.HealthScore, rb.HealthScore)
		assert.Equal(t, ra.NDVI, rb.NDVI)
		assert.Equal(t, ra.DetectedIssues, rb.DetectedIssues)
		assert.Equal(t, ra.EnvironmentalData, rb.EnvironmentalData)
	}
}

func TestMockProvider_RecommendationsAreNotShared(t *testing.T) {
	t.Parallel()

	p := NewMockProvider(1)
	r, err := p.Analyze(context.Background(), models.FieldImage{ID: "1"})
	require.NoError(t, err)
	r.Recommendations[0] = "changed"
	assert.NotEqual(t, "changed", MockRecommendations[0])
}

func TestMockProvider_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockProvider(1).Analyze(ctx, models.FieldImage{ID: "1"})
	require.ErrorIs(t, err, apperr.ErrAnalysisFailed)
	require.ErrorIs(t, err, context.Canceled)
}

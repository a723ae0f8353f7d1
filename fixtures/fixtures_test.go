package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropwatch/models"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	d, err := Load()
	require.NoError(t, err)

	assert.Len(t, d.Fields, 4)
	assert.Len(t, d.Alerts, 4)
	assert.Len(t, d.Reports, 4)
	assert.Len(t, d.Sensors, 4)
	assert.Len(t, d.Landing, 4)
	assert.Len(t, d.Layers, 4)
	require.Len(t, d.Images, 2)

	analyzed := d.Images[0]
	assert.Equal(t, "1", analyzed.ID)
	assert.Equal(t, models.StatusAnalyzed, analyzed.Status)
	require.NotNil(t, analyzed.Analysis)
	assert.Equal(t, 85, analyzed.Analysis.HealthScore)
	assert.Len(t, analyzed.Analysis.DetectedIssues, 3)
	require.NotNil(t, analyzed.Analysis.EnvironmentalData)
	assert.Equal(t, 850, analyzed.Analysis.EnvironmentalData.SolarRadiation)

	flagged := d.Images[1]
	assert.Equal(t, "2", flagged.ID)
	assert.Equal(t, models.StatusFlagged, flagged.Status)
	assert.Nil(t, flagged.Analysis)
	assert.Equal(t, []string{"corn", "pest-alert"}, flagged.Tags)

	assert.Equal(t, "West Field", d.Fields[3].Name)
	assert.InDelta(t, 45.0, d.Fields[3].Health, 0.001)
}

func TestLoad_ReturnsFreshCopies(t *testing.T) {
	t.Parallel()

	a, err := Load()
	require.NoError(t, err)
	a.Fields[0].Health = 1

	b, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 92.0, b.Fields[0].Health, 0.001)
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("fields:\n  - id: x\n    colour: red\n"))
	require.Error(t, err)
}

func TestDecode_RejectsUnknownImageStatus(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("images:\n  - id: x\n    status: lost\n"))
	require.Error(t, err)
}

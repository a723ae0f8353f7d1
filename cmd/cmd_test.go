package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropwatch/apperr"
	"cropwatch/classifier"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClassifyCmd(t *testing.T) {
	out, err := run(t, "classify", "92", "45", "150")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "excellent")
	assert.Contains(t, lines[1], "moderate")
	assert.Contains(t, lines[2], "excellent")
	assert.Contains(t, lines[2], "clamped to 100")
}

func TestClassifyCmd_JSONMatchesLibrary(t *testing.T) {
	out, err := run(t, "classify", "--scheme", "risk", "--json", "60", "29.9")
	require.NoError(t, err)

	var got []classifier.Result
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	risk := classifier.RiskScheme()
	assert.Equal(t, []classifier.Result{risk.Classify(60), risk.Classify(29.9)}, got)
}

func TestClassifyCmd_Errors(t *testing.T) {
	_, err := run(t, "classify", "high")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = run(t, "classify", "--scheme", "nope", "50")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = run(t, "classify")
	require.Error(t, err)
}

func TestAnalyzeCmd(t *testing.T) {
	out, err := run(t, "analyze", "--count", "3", "--seed", "11")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "Minor Stress Detected"))
	assert.Equal(t, 3, strings.Count(out, "---"))
	assert.Contains(t, out, "# analysis 3:")

	again, err := run(t, "analyze", "--count", "3", "--seed", "11")
	require.NoError(t, err)
	stripTimes := func(s string) string {
		var keep []string
		for _, l := range strings.Split(s, "\n") {
			if !strings.HasPrefix(l, "generatedAt:") {
				keep = append(keep, l)
			}
		}
		return strings.Join(keep, "\n")
	}
	assert.Equal(t, stripTimes(out), stripTimes(again), "same seed, same analyses")

	_, err = run(t, "analyze", "--count", "0")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cropwatch dev\n", out)
}

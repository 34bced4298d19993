package processor

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"heatmapflow/models"
)

func alphaOf(t *testing.T, rgba string) float64 {
	t.Helper()
	open := strings.LastIndex(rgba, ",")
	require.True(t, open > 0 && strings.HasSuffix(rgba, ")"), "malformed color %q", rgba)
	a, err := strconv.ParseFloat(strings.TrimSpace(rgba[open+1:len(rgba)-1]), 64)
	require.NoError(t, err)
	return a
}

func TestColorForPositive(t *testing.T) {
	enc := ColorFor(2.45)
	require.Equal(t, models.ChangePositive, enc.Class)
	require.Equal(t, PositiveAccent, enc.AccentColor)
	require.True(t, strings.HasPrefix(enc.TileColor, "rgba(34, 197, 94, "), enc.TileColor)
	require.InDelta(t, 0.4225, alphaOf(t, enc.TileColor), 1e-9)
}

func TestColorForNegative(t *testing.T) {
	enc := ColorFor(-1.5)
	require.Equal(t, models.ChangeNegative, enc.Class)
	require.Equal(t, NegativeAccent, enc.AccentColor)
	require.True(t, strings.HasPrefix(enc.TileColor, "rgba(239, 68, 68, "), enc.TileColor)
	require.InDelta(t, 0.375, alphaOf(t, enc.TileColor), 1e-9)
}

func TestColorForNeutral(t *testing.T) {
	for _, v := range []float64{0, math.NaN()} {
		enc := ColorFor(v)
		require.Equal(t, models.ChangeNeutral, enc.Class)
		require.Equal(t, "rgba(156, 163, 175, 0.3)", enc.TileColor)
		require.Equal(t, NeutralAccent, enc.AccentColor)
	}
}

func TestOpacityClampsAtTenPercent(t *testing.T) {
	require.InDelta(t, 0.8, Opacity(10), 1e-9)
	require.InDelta(t, 0.8, Opacity(-25), 1e-9)
	require.InDelta(t, 0.8, Opacity(math.Inf(1)), 1e-9)
}

func TestOpacityMonotonicInMagnitude(t *testing.T) {
	prev := Opacity(0.01)
	for _, v := range []float64{0.1, 0.5, 1, 2.5, 5, 9.99, 10, 50} {
		cur := Opacity(v)
		require.GreaterOrEqual(t, cur, prev, "opacity dropped at %v", v)
		require.InDelta(t, cur, Opacity(-v), 1e-12, "opacity not symmetric at %v", v)
		require.LessOrEqual(t, cur, 0.8)
		require.GreaterOrEqual(t, cur, 0.3)
		prev = cur
	}
}

func TestLegendColor(t *testing.T) {
	require.Equal(t, "rgba(34, 197, 94, 0.6)", LegendColor(models.ChangePositive))
	require.Equal(t, "rgba(239, 68, 68, 0.6)", LegendColor(models.ChangeNegative))
	require.Equal(t, "rgba(156, 163, 175, 0.6)", LegendColor(models.ChangeNeutral))
}

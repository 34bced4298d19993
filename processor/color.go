package processor

import (
	"fmt"
	"math"
	"strconv"

	"heatmapflow/models"
)

// Tile base colors (RGB) and solid accents per change class.
const (
	positiveRGB = "34, 197, 94"
	negativeRGB = "239, 68, 68"
	neutralRGB  = "156, 163, 175"

	PositiveAccent = "#22c55e"
	NegativeAccent = "#ef4444"
	NeutralAccent  = "#6b7280"

	baseAlpha    = 0.3
	maxIntensity = 100.0
)

// NeutralTileColor is the fixed background for unchanged records.
var NeutralTileColor = fmt.Sprintf("rgba(%s, %s)", neutralRGB, formatAlpha(baseAlpha))

// Encoding is the visual treatment derived from a change value.
type Encoding struct {
	TileColor   string
	AccentColor string
	Class       models.ChangeClass
}

// Classify tags a change value by its sign. NaN counts as unchanged.
func Classify(value float64) models.ChangeClass {
	switch {
	case value > 0:
		return models.ChangePositive
	case value < 0:
		return models.ChangeNegative
	default:
		return models.ChangeNeutral
	}
}

// Opacity is the tile alpha for a change value: 0.3 plus half the clamped
// intensity (|value|*10, capped at 100) in percent, so 0.8 at |value| >= 10.
func Opacity(value float64) float64 {
	if value == 0 || math.IsNaN(value) {
		return baseAlpha
	}
	intensity := math.Min(math.Abs(value)*10, maxIntensity)
	return baseAlpha + intensity/200
}

// ColorFor maps a change value to its tile color, accent color and class.
func ColorFor(value float64) Encoding {
	class := Classify(value)
	switch class {
	case models.ChangePositive:
		return Encoding{
			TileColor:   fmt.Sprintf("rgba(%s, %s)", positiveRGB, formatAlpha(Opacity(value))),
			AccentColor: PositiveAccent,
			Class:       class,
		}
	case models.ChangeNegative:
		return Encoding{
			TileColor:   fmt.Sprintf("rgba(%s, %s)", negativeRGB, formatAlpha(Opacity(value))),
			AccentColor: NegativeAccent,
			Class:       class,
		}
	default:
		return Encoding{
			TileColor:   NeutralTileColor,
			AccentColor: NeutralAccent,
			Class:       class,
		}
	}
}

// LegendColor is the representative swatch for a class in the report legend.
func LegendColor(class models.ChangeClass) string {
	const legendAlpha = "0.6"
	switch class {
	case models.ChangePositive:
		return fmt.Sprintf("rgba(%s, %s)", positiveRGB, legendAlpha)
	case models.ChangeNegative:
		return fmt.Sprintf("rgba(%s, %s)", negativeRGB, legendAlpha)
	default:
		return fmt.Sprintf("rgba(%s, %s)", neutralRGB, legendAlpha)
	}
}

func formatAlpha(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}

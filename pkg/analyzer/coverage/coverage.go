// Package coverage computes per-file coverage scores and the numeric and
// visual encoding shared by every report table.
package coverage

import (
	"math"
	"strconv"

	"github.com/panbanda/couette/pkg/models"
)

// Severity band thresholds, applied to percentages rounded to one decimal.
// A boundary value belongs to the higher band.
const (
	AmberThreshold = 70.0
	GreenThreshold = 80.0
)

// CombinedPercent blends all four categories of a file by summed counts and
// returns a fraction in [0, 1]. A file with nothing to cover scores 1.
func CombinedPercent(f models.FileCoverage) float64 {
	var covered, total int
	for _, c := range models.Categories {
		count := f.Get(c)
		covered += count.Covered
		total += count.Total
	}
	if total == 0 {
		return 1
	}
	return float64(covered) / float64(total)
}

// RoundPercent converts a fraction to a percentage rounded to one decimal,
// half away from zero.
func RoundPercent(fraction float64) float64 {
	return normalizeZero(math.Round(fraction*1000) / 10)
}

// RoundValue rounds a value already expressed in percent to one decimal.
func RoundValue(percent float64) float64 {
	return normalizeZero(math.Round(percent*10) / 10)
}

// SeverityOf maps a percentage onto red (< 70), amber (< 80) or green.
func SeverityOf(percent float64) models.Severity {
	p := RoundValue(percent)
	switch {
	case p < AmberThreshold:
		return models.SeverityRed
	case p < GreenThreshold:
		return models.SeverityAmber
	default:
		return models.SeverityGreen
	}
}

// Icon is shorthand for SeverityOf(percent).Icon().
func Icon(percent float64) string {
	return SeverityOf(percent).Icon()
}

// FormatPercent renders a percentage with the shortest decimal form and a
// % suffix: 85.7%, 100%.
func FormatPercent(percent float64) string {
	return formatNumber(RoundValue(percent)) + "%"
}

// FormatChange renders a signed change: +10%, 0%, -5%.
func FormatChange(change float64) string {
	c := RoundValue(change)
	if c > 0 {
		return "+" + formatNumber(c) + "%"
	}
	return formatNumber(c) + "%"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// normalizeZero folds -0 into 0 so a vanishing negative delta never prints
// as "-0".
func normalizeZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}

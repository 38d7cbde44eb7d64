package domain

import "strconv"

// Bounds is a (min, max) normalization range for one raw field.
type Bounds struct {
	Min float64
	Max float64
}

// NormalizationBounds maps raw field names to their fixed normalization
// ranges. Changing a bound changes historical score comparability: persisted
// scores computed under different bounds are not comparable across time.
var NormalizationBounds = map[string]Bounds{
	"median_income":        {20000, 150000},
	"bachelors_rate":       {0, 70},
	"crime_per_1k":         {0, 150}, // lower is better
	"primary_care_per_10k": {0, 40},
	"aqi":                  {0, 200}, // lower is better
	"broadband_pct":        {40, 100},
	"rent_to_income":       {0.1, 0.6}, // lower is better
}

const neutralScore = 50.0

// Normalize maps value into [0, 100] given a range and direction. It is total
// over every representable input: non-numeric values (bools, collections,
// unparseable strings, nil) and degenerate ranges (min == max) yield the
// neutral midpoint 50.0. Numeric input is clamped to [min, max] before the
// linear mapping; invert flips the direction for lower-is-better fields.
func Normalize(value any, min, max float64, invert bool) float64 {
	v, ok := coerceFloat(value)
	if !ok {
		return neutralScore
	}
	if min == max {
		return neutralScore
	}

	clamped := v
	if clamped < min {
		clamped = min
	}
	if clamped > max {
		clamped = max
	}

	score := (clamped - min) / (max - min)
	if invert {
		score = 1 - score
	}
	return score * 100
}

// NormalizeField normalizes value against the configured bounds for field.
// An unknown field name behaves like a degenerate range and yields 50.0.
func NormalizeField(value any, field string, invert bool) float64 {
	b, ok := NormalizationBounds[field]
	if !ok {
		return neutralScore
	}
	return Normalize(value, b.Min, b.Max, invert)
}

// coerceFloat converts numeric-ish values to float64. Booleans and
// collection types are deliberately rejected: a bool would silently become
// 0 or 1 and a collection has no single numeric meaning.
func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case *int:
		if v == nil {
			return 0, false
		}
		return float64(*v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

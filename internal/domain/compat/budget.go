package compat

import (
	"strconv"
	"strings"
)

// BudgetBand is a normalized spending band. The normalization table here is
// the authoritative contract; input that matches no known pattern becomes
// BandUnknown rather than being guessed into a bucket.
type BudgetBand string

// The closed set of budget bands.
const (
	BandUnder500 BudgetBand = "under_500"
	Band500To1K  BudgetBand = "500_1000"
	Band1KTo1500 BudgetBand = "1000_1500"
	BandOver1500 BudgetBand = "over_1500"
	BandUnknown  BudgetBand = "unknown"
)

// bandSynonyms maps already-banded string forms, old and new, onto the
// canonical bands.
var bandSynonyms = map[string]BudgetBand{
	"under_500": BandUnder500,
	"<500":      BandUnder500,
	"500_1000":  Band500To1K,
	"500-1000":  Band500To1K,
	"1000_1500": Band1KTo1500,
	"1000-1500": Band1KTo1500,
	"over_1500": BandOver1500,
	"1500+":     BandOver1500,
}

// NormalizeBudget maps a raw budget input onto a band. Numeric inputs bucket
// by value; banded strings pass through; a couple of legacy fuzzy forms map
// heuristically. Anything else is BandUnknown.
func NormalizeBudget(raw string) BudgetBand {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return BandUnknown
	}

	if band, ok := bandSynonyms[s]; ok {
		return band
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return bandOfAmount(n)
	}

	// Legacy free-form answers, e.g. "1500 or more", "more than 1500".
	if strings.Contains(s, "1500") && (strings.Contains(s, "more") || strings.Contains(s, "above") || strings.Contains(s, "+")) {
		return BandOver1500
	}
	if strings.Contains(s, "less") && strings.Contains(s, "500") {
		return BandUnder500
	}

	return BandUnknown
}

func bandOfAmount(n float64) BudgetBand {
	switch {
	case n < 500:
		return BandUnder500
	case n < 1000:
		return Band500To1K
	case n < 1500:
		return Band1KTo1500
	default:
		return BandOver1500
	}
}

// Band re-normalizes a stored band string. Participants carry bands as plain
// strings; this keeps band comparisons honest if an unnormalized value
// slipped into storage.
func Band(stored string) BudgetBand {
	switch BudgetBand(stored) {
	case BandUnder500, Band500To1K, Band1KTo1500, BandOver1500:
		return BudgetBand(stored)
	case BandUnknown, "":
		return BandUnknown
	default:
		return NormalizeBudget(stored)
	}
}

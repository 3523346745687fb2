// Package match suggests catalog materials for extracted invoice lines. It
// is pure and deterministic: the same line and catalog snapshot always yield
// the same suggestion, with no I/O involved.
package match

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultCutoff is the minimum similarity score for the fuzzy stage.
const DefaultCutoff = 0.6

// containmentFloor rejects containment matches where the contained string is
// a trivially small fraction of the containing one.
const containmentFloor = 0.3

// Kind tells which stage of the cascade produced a suggestion.
type Kind string

const (
	KindSKU         Kind = "SKU"
	KindContainment Kind = "CONTAINMENT"
	KindSimilarity  Kind = "SIMILARITY"
)

// CatalogEntry is a snapshot row of the material catalog.
type CatalogEntry struct {
	ID   int
	SKU  string
	Name string
}

// Input carries the extracted fields a suggestion can be based on.
type Input struct {
	SKU         string
	Description string
}

// Suggestion is a candidate material with its confidence score.
type Suggestion struct {
	MaterialID int
	Confidence float64
	Kind       Kind
}

// Best runs the matching cascade: exact normalized SKU first, then name
// containment, then edit-distance similarity. Returns ok=false when no stage
// clears its confidence floor; a line is then left for manual mapping rather
// than guessed at. A non-positive cutoff falls back to DefaultCutoff.
func Best(in Input, catalog []CatalogEntry, cutoff float64) (Suggestion, bool) {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}

	if sku := Normalize(in.SKU); sku != "" {
		for _, c := range catalog {
			if Normalize(c.SKU) == sku {
				return Suggestion{MaterialID: c.ID, Confidence: 1.0, Kind: KindSKU}, true
			}
		}
	}

	desc := Normalize(in.Description)
	if desc == "" {
		return Suggestion{}, false
	}

	var best Suggestion
	for _, c := range catalog {
		name := Normalize(c.Name)
		if name == "" {
			continue
		}
		score := containmentScore(desc, name)
		if score > best.Confidence {
			best = Suggestion{MaterialID: c.ID, Confidence: score, Kind: KindContainment}
		}
	}
	if best.Confidence > containmentFloor {
		return best, true
	}

	best = Suggestion{}
	for _, c := range catalog {
		name := Normalize(c.Name)
		if name == "" {
			continue
		}
		if score := similarity(desc, name); score > best.Confidence {
			best = Suggestion{MaterialID: c.ID, Confidence: score, Kind: KindSimilarity}
		}
	}
	if best.Confidence >= cutoff {
		return best, true
	}
	return Suggestion{}, false
}

// Normalize lowercases and collapses runs of whitespace so "PV-450 " and
// "pv-450" compare equal.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// containmentScore scores full containment of one string in the other by the
// length ratio of the shorter to the longer; 0 when neither contains the
// other.
func containmentScore(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	switch {
	case la == 0 || lb == 0:
		return 0
	case strings.Contains(a, b):
		return float64(min(la, lb)) / float64(max(la, lb))
	case strings.Contains(b, a):
		return float64(min(la, lb)) / float64(max(la, lb))
	default:
		return 0
	}
}

// similarity maps Levenshtein distance to [0,1], 1 meaning identical.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

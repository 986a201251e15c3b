package nutrition

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultKeyword is reported as the matched keyword when the fallback is used.
const DefaultKeyword = "default"

const unknownFoodName = "Unknown food"

// Detection is a label produced by an image classifier.
type Detection struct {
	Label string
	// Confidence is in the range 0..1.
	Confidence float64
	// Source names the model that produced the label.
	Source string
}

// Estimate is the nutrition estimate for a label.
type Estimate struct {
	Facts
	Name           string  `json:"name"`
	MatchedKeyword string  `json:"matchedKeyword"`
	Confidence     float64 `json:"confidence,omitempty"`
	Provenance     string  `json:"provenance"`
}

// IsDefault reports whether the estimate fell back to the default values.
func (e Estimate) IsDefault() bool {
	return e.MatchedKeyword == DefaultKeyword
}

// Resolve looks up a free-text label. Matching is case-insensitive and
// bidirectional: a keyword matches when it is contained in the label or
// the label is contained in it. The first match in table order wins. Labels
// that match nothing, and blank labels, get the default values.
func Resolve(label string) Estimate {
	est := lookup(label)
	est.Provenance = "Estimated from label"
	return est
}

// ResolveDetection resolves a classifier label and records where it came from.
func ResolveDetection(d Detection) Estimate {
	est := lookup(d.Label)
	est.Confidence = d.Confidence
	source := d.Source
	if source == "" {
		source = "image classifier"
	}
	est.Provenance = fmt.Sprintf("AI detected with %.1f%% confidence (%s)", d.Confidence*100, source)
	return est
}

func lookup(label string) Estimate {
	est := Estimate{
		Name:           displayName(label),
		MatchedKeyword: DefaultKeyword,
		Facts:          Default,
	}

	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" {
		return est
	}

	for _, entry := range table {
		if strings.Contains(needle, entry.Keyword) || strings.Contains(entry.Keyword, needle) {
			est.MatchedKeyword = entry.Keyword
			est.Facts = entry.Facts
			return est
		}
	}
	return est
}

func displayName(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return unknownFoodName
	}
	r, size := utf8.DecodeRuneInString(label)
	return string(unicode.ToUpper(r)) + label[size:]
}

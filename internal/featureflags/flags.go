// Package featureflags holds runtime switches that operators flip without a
// deploy: the image analysis kill switch, the waitlist gate and the preferred
// classifier.
package featureflags

import "time"

// Well-known feature flag keys.
const (
	// FlagDisableImageAnalysis turns off photo based food recognition.
	FlagDisableImageAnalysis = "disable_image_analysis"

	// FlagWaitlistOpen controls whether new waitlist signups are accepted.
	FlagWaitlistOpen = "waitlist_open"

	// FlagClassifierProvider names the preferred image classifier.
	FlagClassifierProvider = "classifier_provider"
)

// Flag is a stored or default flag value. Values hold JSON types, so numbers
// are float64. A zero UpdatedAt means the flag carries its default.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// BoolValue reads the flag as a boolean. Non-zero numbers count as true.
// A nil flag or any other type yields def.
func (f *Flag) BoolValue(def bool) bool {
	if f == nil {
		return def
	}
	if n, ok := f.Value.(float64); ok {
		return n != 0
	}
	return as(f.Value, def)
}

// StringValue reads the flag as a string. A nil flag or any other type
// yields def.
func (f *Flag) StringValue(def string) string {
	if f == nil {
		return def
	}
	return as(f.Value, def)
}

func as[T any](v interface{}, def T) T {
	if t, ok := v.(T); ok {
		return t
	}
	return def
}

// DefaultFlags returns a fresh copy of the values used when nothing is stored.
func DefaultFlags() map[string]*Flag {
	defaults := map[string]interface{}{
		FlagDisableImageAnalysis: false,
		FlagWaitlistOpen:         true,
		FlagClassifierProvider:   "clarifai",
	}
	flags := make(map[string]*Flag, len(defaults))
	for key, value := range defaults {
		flags[key] = &Flag{Key: key, Value: value}
	}
	return flags
}

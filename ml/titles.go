package ml

import "strings"

// ExtractTitle pulls the honorific out of a name written in the
// "Last, Title. First" convention: the substring between the first comma
// and the period that follows it. Returns "Other" when the pattern is absent.
func ExtractTitle(name string) string {
	comma := strings.Index(name, ",")
	if comma < 0 {
		return "Other"
	}
	rest := name[comma+1:]
	period := strings.Index(rest, ".")
	if period < 0 {
		return "Other"
	}
	return strings.TrimSpace(rest[:period])
}

// MapTitle collapses a raw title token into the four categories the model
// was trained on. Total over all strings.
func MapTitle(raw string) string {
	switch raw {
	case "Mr", "Miss", "Mrs":
		return raw
	default:
		return "Other"
	}
}

// TitleOf is the extract-then-map composition used for both feature
// encoding and history records.
func TitleOf(name string) string {
	return MapTitle(ExtractTitle(name))
}

package engine

import "strings"

// affirmation is how a confirmation reply was classified.
type affirmation int

const (
	affirmUnclear affirmation = iota
	affirmYes
	affirmNo
)

var affirmWords = map[string]affirmation{
	"yes":       affirmYes,
	"y":         affirmYes,
	"yeah":      affirmYes,
	"yep":       affirmYes,
	"correct":   affirmYes,
	"confirm":   affirmYes,
	"ok":        affirmYes,
	"okay":      affirmYes,
	"right":     affirmYes,
	"sure":      affirmYes,
	"no":        affirmNo,
	"n":         affirmNo,
	"nope":      affirmNo,
	"wrong":     affirmNo,
	"incorrect": affirmNo,
	"cancel":    affirmNo,
}

// classifyAffirmation trusts the model's intent tag first and falls
// back to a bounded keyword set only when the tag is inconclusive.
func classifyAffirmation(summary, text string) affirmation {
	switch strings.ToLower(strings.TrimSpace(summary)) {
	case "yes":
		return affirmYes
	case "no":
		return affirmNo
	}

	word := strings.ToLower(strings.TrimSpace(text))
	word = strings.TrimRight(word, ".!,")
	if a, ok := affirmWords[word]; ok {
		return a
	}
	return affirmUnclear
}

package agents

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const DefaultMinAnswerLength = 3

var (
	DefaultFillers = []string{
		"...", "..", ".",
		"uh", "uhh", "um", "umm", "hmm", "huh", "mm",
		"idk", "i don't know", "i dont know", "dont know", "no idea",
		"no", "nah", "nope", "skip", "next", "none", "pass",
	}
	DefaultAffirmatives = []string{"yes", "y", "n", "ok", "okay", "sure", "fine", "good"}
)

// HesitationConfig tunes the hesitation rules. Zero values select defaults.
type HesitationConfig struct {
	MinLength    int
	Fillers      []string
	Affirmatives []string
}

type hesitationRule struct {
	name  string
	match func(text string) bool
}

// Hesitation classifies answers as hesitant with an ordered list of named
// rules. The first rule that matches wins.
type Hesitation struct {
	rules        []hesitationRule
	fillers      map[string]struct{}
	affirmatives map[string]struct{}
	minLength    int
}

func NewHesitation(cfg HesitationConfig) *Hesitation {
	fillers := cfg.Fillers
	if len(fillers) == 0 {
		fillers = DefaultFillers
	}
	affirmatives := cfg.Affirmatives
	if len(affirmatives) == 0 {
		affirmatives = DefaultAffirmatives
	}
	minLength := cfg.MinLength
	if minLength <= 0 {
		minLength = DefaultMinAnswerLength
	}

	h := &Hesitation{
		fillers:      toSet(fillers),
		affirmatives: toSet(affirmatives),
		minLength:    minLength,
	}

	h.rules = []hesitationRule{
		{name: "empty", match: func(text string) bool { return text == "" }},
		{name: "filler_only", match: h.fillerOnly},
		{name: "too_short", match: h.tooShort},
		{name: "punctuation_only", match: punctuationOnly},
	}

	return h
}

// Classify returns the name of the first matching rule.
func (h *Hesitation) Classify(answer string) (string, bool) {
	text := strings.Join(strings.Fields(strings.ToLower(answer)), " ")
	for _, rule := range h.rules {
		if rule.match(text) {
			return rule.name, true
		}
	}
	return "", false
}

func (h *Hesitation) IsHesitant(answer string) bool {
	_, hesitant := h.Classify(answer)
	return hesitant
}

func (h *Hesitation) fillerOnly(text string) bool {
	if _, ok := h.fillers[text]; ok {
		return true
	}

	words := strings.Fields(stripPunctuation(text))
	if len(words) == 0 {
		return false
	}

	if _, ok := h.fillers[strings.Join(words, " ")]; ok {
		return true
	}
	for _, w := range words {
		if _, ok := h.fillers[w]; !ok {
			return false
		}
	}
	return true
}

func (h *Hesitation) tooShort(text string) bool {
	if utf8.RuneCountInString(text) >= h.minLength {
		return false
	}
	_, ok := h.affirmatives[strings.Trim(text, ".!")]
	return !ok
}

func punctuationOnly(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) == -1
}

// stripPunctuation keeps letters, digits, spaces and apostrophes.
func stripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'':
			return r
		default:
			return ' '
		}
	}, text)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}

// Package filter screens question and answer bodies for prohibited language
// before anything is persisted.
package filter

import (
	"strings"
	"unicode"
)

// defaultWords is the maintained blocklist. Matching is per word token after
// normalization, so "classic" does not trip on "ass".
var defaultWords = []string{
	"anal", "anus", "arse", "ass", "asshole", "bastard", "bitch", "bollocks",
	"boob", "bullshit", "clit", "cock", "crap", "cunt", "damn", "dick",
	"dildo", "douche", "dyke", "fag", "faggot", "fuck", "fucker", "fucking",
	"goddamn", "handjob", "hell", "homo", "jackass", "jerk", "jizz", "kike",
	"milf", "motherfucker", "nigga", "nigger", "penis", "piss", "porn",
	"prick", "pussy", "queer", "retard", "screw", "sex", "shit", "shitty",
	"slut", "spic", "tit", "tits", "twat", "vagina", "wank", "whore",
}

// substitutions undoes common character swaps used to dodge wordlists.
var substitutions = map[rune]rune{
	'@': 'a',
	'$': 's',
	'0': 'o',
	'1': 'i',
	'!': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'8': 'b',
	'*': 'u',
}

type Filter struct {
	words map[string]struct{}
}

func New(extra ...string) *Filter {
	words := make(map[string]struct{}, len(defaultWords)+len(extra))
	for _, word := range defaultWords {
		words[word] = struct{}{}
	}
	for _, word := range extra {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			words[word] = struct{}{}
		}
	}
	return &Filter{words: words}
}

// ContainsProhibited reports whether any token of text is on the blocklist.
func (f *Filter) ContainsProhibited(text string) bool {
	for _, token := range tokenize(text) {
		if _, ok := f.words[normalize(token)]; ok {
			return true
		}
	}
	return false
}

// Censor replaces each prohibited token with asterisks, preserving the rest
// of the text.
func (f *Filter) Censor(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	runes := []rune(text)
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		token := string(runes[start:end])
		if _, ok := f.words[normalize(token)]; ok {
			out.WriteString(strings.Repeat("*", end-start))
		} else {
			out.WriteString(token)
		}
		start = -1
	}
	for i, char := range runes {
		if isTokenRune(char) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
		out.WriteRune(char)
	}
	flush(len(runes))
	return out.String()
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(char rune) bool {
		return !isTokenRune(char)
	})
}

func isTokenRune(char rune) bool {
	if unicode.IsLetter(char) || unicode.IsDigit(char) {
		return true
	}
	_, ok := substitutions[char]
	return ok
}

func normalize(token string) string {
	token = strings.ToLower(token)
	var out strings.Builder
	out.Grow(len(token))
	for _, char := range token {
		if sub, ok := substitutions[char]; ok {
			char = sub
		}
		out.WriteRune(char)
	}
	return out.String()
}

package wordlist

import "strings"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for word lists.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	default:
		return func(w string) bool { return !strings.ContainsAny(w, " \t") }
	}
}

// IsCode reports whether lang is a programming language content set.
// Code content is typed verbatim without caps or punctuation noise.
func IsCode(lang string) bool {
	switch strings.ToLower(lang) {
	case "python", "javascript", "c":
		return true
	}
	return false
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}

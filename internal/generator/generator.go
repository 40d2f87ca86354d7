// Package generator builds typing text for practice sessions.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// Options controls how a text is assembled from words.
type Options struct {
	Words    int
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

// Generator produces randomized typing text from a fixed word pool.
type Generator struct {
	rnd   *rand.Rand
	words []string
	opts  Options
}

// New returns a Generator seeded with the current time.
func New(words []string, opts Options) *Generator {
	return NewWithSeed(words, opts, time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(words []string, opts Options, seed int64) *Generator {
	if opts.Words <= 0 {
		opts.Words = 1
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed)), words: words, opts: opts}
}

// Next returns a new text of opts.Words space-separated words.
func (g *Generator) Next() string {
	return strings.Join(g.Generate(g.opts.Words), " ")
}

// Generate selects count words uniformly and applies caps/punctuation rules.
func (g *Generator) Generate(count int) []string {
	if len(g.words) == 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := g.words[g.rnd.Intn(len(g.words))]
		word = applyCaps(g.rnd, word, g.opts.CapsPct)
		word = applyPunct(g.rnd, word, g.opts.PunctPct, g.opts.PunctSet)
		result = append(result, word)
	}
	return result
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 || rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 || rnd.Float64() > punctPct {
		return word
	}
	return word + string(punctSet[rnd.Intn(len(punctSet))])
}

package classifier

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed default_vocabulary.yaml
var defaultVocabulary []byte

// ErrEmptyVocabulary is returned when a vocabulary has nothing to match against.
var ErrEmptyVocabulary = errors.New("vocabulary has no terms, phrases or fragments")

// Vocabulary is the curated list of domain terms the lexical classifier admits on.
type Vocabulary struct {
	Terms     []string `yaml:"terms"`
	Phrases   []string `yaml:"phrases"`
	Fragments []string `yaml:"fragments"`
	Suffixes  []string `yaml:"suffixes"`
}

// DefaultVocabulary returns the embedded solar energy vocabulary.
func DefaultVocabulary() Vocabulary {
	v, err := ParseVocabulary(defaultVocabulary)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary is invalid: %v", err))
	}
	return v
}

// ParseVocabulary decodes a YAML vocabulary and normalizes every entry.
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	v = v.normalize()
	if v.empty() {
		return Vocabulary{}, ErrEmptyVocabulary
	}
	return v, nil
}

// LoadVocabulary reads a YAML vocabulary file.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}
	v, err := ParseVocabulary(data)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

func (v Vocabulary) empty() bool {
	return len(v.Terms) == 0 && len(v.Phrases) == 0 && len(v.Fragments) == 0
}

// normalize lowercases entries, collapses phrases to single-space token runs
// and drops blanks and duplicates.
func (v Vocabulary) normalize() Vocabulary {
	return Vocabulary{
		Terms:     normalizeWords(v.Terms),
		Phrases:   normalizePhrases(v.Phrases),
		Fragments: normalizeWords(v.Fragments),
		Suffixes:  normalizeWords(v.Suffixes),
	}
}

func normalizeWords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, w := range in {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func normalizePhrases(in []string) []string {
	joined := make([]string, 0, len(in))
	for _, p := range in {
		if toks := tokenize(p); len(toks) > 0 {
			joined = append(joined, strings.Join(toks, " "))
		}
	}
	return normalizeWords(joined)
}

// tokenize lowercases text and splits it on every rune that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

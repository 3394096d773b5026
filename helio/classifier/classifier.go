// Package classifier decides whether a free-text query belongs to the solar energy domain.
package classifier

import (
	"strings"

	"github.com/armon/go-radix"
)

// Classifier admits or rejects a query. Implementations must be pure and
// safe for concurrent use.
type Classifier interface {
	Classify(query string) bool
}

// Func adapts a plain function to the Classifier interface.
type Func func(query string) bool

func (f Func) Classify(query string) bool { return f(query) }

// MatchKind records which part of the vocabulary produced a hit.
type MatchKind string

const (
	MatchTerm     MatchKind = "term"
	MatchPhrase   MatchKind = "phrase"
	MatchFragment MatchKind = "fragment"
)

// Match is a single vocabulary hit inside a query.
type Match struct {
	Kind  MatchKind `json:"kind"`
	Term  string    `json:"term"`
	Token string    `json:"token"`
}

// Verdict explains a classification.
type Verdict struct {
	Admitted bool    `json:"admitted"`
	Matches  []Match `json:"matches,omitempty"`
}

// Lexical is the reference policy: a query is admitted when at least one
// vocabulary entry occurs in it. Everything else, including generic cost or
// price questions with no domain anchor, is rejected.
type Lexical struct {
	vocab     Vocabulary
	terms     *radix.Tree
	phrases   *radix.Tree
	suffixes  map[string]struct{}
	fragments []string
}

// NewLexical builds a classifier over the given vocabulary.
func NewLexical(v Vocabulary) (*Lexical, error) {
	v = v.normalize()
	if v.empty() {
		return nil, ErrEmptyVocabulary
	}

	l := &Lexical{
		vocab:     v,
		terms:     radix.New(),
		phrases:   radix.New(),
		suffixes:  make(map[string]struct{}, len(v.Suffixes)),
		fragments: v.Fragments,
	}
	for _, t := range v.Terms {
		l.terms.Insert(t, struct{}{})
	}
	for _, p := range v.Phrases {
		l.phrases.Insert(p, struct{}{})
	}
	for _, s := range v.Suffixes {
		l.suffixes[s] = struct{}{}
	}
	return l, nil
}

// Default returns a classifier over the embedded vocabulary.
func Default() *Lexical {
	l, err := NewLexical(DefaultVocabulary())
	if err != nil {
		panic(err)
	}
	return l
}

// Vocabulary returns a copy of the normalized vocabulary.
func (l *Lexical) Vocabulary() Vocabulary {
	return Vocabulary{
		Terms:     append([]string(nil), l.vocab.Terms...),
		Phrases:   append([]string(nil), l.vocab.Phrases...),
		Fragments: append([]string(nil), l.vocab.Fragments...),
		Suffixes:  append([]string(nil), l.vocab.Suffixes...),
	}
}

// Classify reports whether the query is in the domain.
func (l *Lexical) Classify(query string) bool {
	admitted := false
	l.scan(query, func(Match) bool {
		admitted = true
		return true
	})
	return admitted
}

// Explain returns every vocabulary hit in the query.
func (l *Lexical) Explain(query string) Verdict {
	var matches []Match
	l.scan(query, func(m Match) bool {
		matches = append(matches, m)
		return false
	})
	return Verdict{Admitted: len(matches) > 0, Matches: matches}
}

// scan reports hits to emit until emit returns true.
func (l *Lexical) scan(query string, emit func(Match) bool) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return
	}

	for _, tok := range tokens {
		if m, ok := l.matchTerm(tok); ok && emit(m) {
			return
		}
		if m, ok := l.matchFragment(tok); ok && emit(m) {
			return
		}
	}

	if l.phrases.Len() == 0 {
		return
	}

	// Phrases are matched on the space-joined token stream, starting only at
	// token boundaries and ending only at token boundaries.
	joined := strings.Join(tokens, " ")
	offset := 0
	for _, tok := range tokens {
		rest := joined[offset:]
		stop := false
		l.phrases.WalkPath(rest, func(key string, _ interface{}) bool {
			if len(key) == len(rest) || rest[len(key)] == ' ' {
				stop = emit(Match{Kind: MatchPhrase, Term: key, Token: key})
				return stop
			}
			return false
		})
		if stop {
			return
		}
		offset += len(tok) + 1
	}
}

func (l *Lexical) matchTerm(tok string) (Match, bool) {
	var (
		hit   Match
		found bool
	)
	l.terms.WalkPath(tok, func(key string, _ interface{}) bool {
		rest := tok[len(key):]
		if rest == "" {
			hit, found = Match{Kind: MatchTerm, Term: key, Token: tok}, true
			return true
		}
		if _, ok := l.suffixes[rest]; ok {
			hit, found = Match{Kind: MatchTerm, Term: key, Token: tok}, true
			return true
		}
		return false
	})
	return hit, found
}

func (l *Lexical) matchFragment(tok string) (Match, bool) {
	for _, f := range l.fragments {
		if strings.Contains(tok, f) {
			return Match{Kind: MatchFragment, Term: f, Token: tok}, true
		}
	}
	return Match{}, false
}

var (
	_ Classifier = (*Lexical)(nil)
	_ Classifier = Func(nil)
)

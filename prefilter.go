package retrace

import (
	"github.com/coregx/ahocorasick"
)

// maxPrefixLiterals bounds the literal set a prefilter is built from.
const maxPrefixLiterals = 64

// prefilter narrows the start positions of an unanchored search for patterns
// whose every match begins with one of a small set of literals.
type prefilter struct {
	// first bytes of the literals
	first [4]uint64
	// rejects texts that contain none of the literals
	automaton *ahocorasick.Automaton
}

// newPrefilter returns nil when the pattern has no usable literal prefix.
func newPrefilter(root *node, flags Flag) *prefilter {
	if flags&FlagIgnoreCase != 0 {
		return nil
	}
	literals, _ := literalPrefixes(root)
	if len(literals) == 0 {
		return nil
	}
	pf := &prefilter{}
	builder := ahocorasick.NewBuilder()
	for _, lit := range literals {
		if lit == "" {
			return nil
		}
		pf.first[lit[0]>>6] |= 1 << (lit[0] & 63)
		builder.AddPattern([]byte(lit))
	}
	if automaton, err := builder.Build(); err == nil {
		pf.automaton = automaton
	}
	return pf
}

// mayMatch reports whether text contains at least one of the literals.
func (pf *prefilter) mayMatch(text string) bool {
	if pf.automaton == nil {
		return true
	}
	return pf.automaton.IsMatch([]byte(text))
}

// next returns the first position at or after pos where a literal may
// start, or -1.
func (pf *prefilter) next(text string, pos int) int {
	for ; pos < len(text); pos++ {
		c := text[pos]
		if pf.first[c>>6]&(1<<(c&63)) != 0 {
			return pos
		}
	}
	return -1
}

// literalPrefixes returns a set of literals one of which starts every match
// of n, or nil if there is no such set. complete reports whether the set is
// exactly the set of strings n matches, so that a following node can extend
// it.
func literalPrefixes(n *node) (literals []string, complete bool) {
	switch n.op {
	case opEmpty:
		return []string{""}, true
	case opLiteral:
		return []string{string(n.r)}, true
	case opCapture:
		return literalPrefixes(n.sub[0])
	case opRepeat:
		if n.min == 0 {
			return nil, false
		}
		literals, _ := literalPrefixes(n.sub[0])
		return literals, false
	case opAlternate:
		complete = true
		for _, sub := range n.sub {
			lits, c := literalPrefixes(sub)
			if lits == nil {
				return nil, false
			}
			literals = append(literals, lits...)
			complete = complete && c
		}
		if len(literals) > maxPrefixLiterals {
			return nil, false
		}
		return literals, complete
	case opConcat:
		acc := []string{""}
		for _, sub := range n.sub {
			lits, c := literalPrefixes(sub)
			if lits == nil || len(acc)*len(lits) > maxPrefixLiterals {
				return nonEmpty(acc), false
			}
			next := make([]string, 0, len(acc)*len(lits))
			for _, a := range acc {
				for _, l := range lits {
					next = append(next, a+l)
				}
			}
			acc = next
			if !c {
				return acc, false
			}
		}
		return acc, true
	}
	return nil, false
}

// nonEmpty returns literals unless it only holds the empty prefix.
func nonEmpty(literals []string) []string {
	for _, l := range literals {
		if l == "" {
			return nil
		}
	}
	return literals
}

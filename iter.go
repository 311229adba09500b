package retrace

import (
	"iter"
)

// Iterator walks the successive non-overlapping matches of a pattern in a
// text. It is not safe for concurrent use.
//
//	it := p.Iter(text)
//	for it.Next() {
//		m := it.Match()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator struct {
	re   *Pattern
	text string
	m    *Match
	err  error
	done bool
}

// Iter returns an Iterator over the matches of p in text.
func (p *Pattern) Iter(text string) *Iterator {
	return &Iterator{re: p, text: text}
}

// Next advances to the next match. It returns false when there are no more
// matches or a search failed; Err distinguishes the two.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	var next *Match
	var err error
	if it.m == nil {
		next, err = it.re.exec(it.text, 0, 0)
	} else {
		next, err = it.m.Next()
	}
	if err != nil || next == nil {
		it.err = err
		it.m = nil
		it.done = true
		return false
	}
	it.m = next
	return true
}

// Match returns the current match. It is nil before the first call to Next
// and after Next has returned false.
func (it *Iterator) Match() *Match {
	return it.m
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

// All returns an iterator over the matches of p in text. A failed search is
// yielded once as a nil match with a non-nil error, and ends the sequence.
func (p *Pattern) All(text string) iter.Seq2[*Match, error] {
	return func(yield func(*Match, error) bool) {
		it := p.Iter(text)
		for it.Next() {
			if !yield(it.Match(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// FindAll returns successive matches of p in text. If n >= 0, it returns at
// most n matches. The matches found before a failed search are returned
// along with the error.
func (p *Pattern) FindAll(text string, n int) ([]*Match, error) {
	if n == 0 {
		return nil, nil
	}
	var res []*Match
	for m, err := range p.All(text) {
		if err != nil {
			return res, err
		}
		res = append(res, m)
		if len(res) == n {
			break
		}
	}
	return res, nil
}

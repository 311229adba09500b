package retrace

import (
	"slices"
	"unicode"
)

type charRange struct {
	lo rune
	hi rune
}

type charSet struct {
	// Non-overlapping ranges sorted in ascending order
	chars []charRange
	// Membership bitmap for runes below utf8.RuneSelf, filled by seal.
	ascii  [2]uint64
	sealed bool
}

func (s *charSet) clone() *charSet {
	res := *s
	res.chars = slices.Clone(res.chars)
	return &res
}

func (s *charSet) union(other *charSet) {
	if len(other.chars) == 0 {
		return
	}
	if len(s.chars) == 0 {
		s.chars = slices.Clone(other.chars)
		return
	}
	chars := make([]charRange, 0, len(s.chars)+len(other.chars))

	i := 0
	j := 0
	for {
		var next charRange
		if i < len(s.chars) && (j >= len(other.chars) || s.chars[i].lo < other.chars[j].lo) {
			next = s.chars[i]
			i++
		} else if j < len(other.chars) {
			next = other.chars[j]
			j++
		} else {
			break
		}
		if len(chars) == 0 {
			chars = append(chars, next)
			continue
		}
		r := &chars[len(chars)-1]
		if next.hi <= r.hi {
			continue
		}
		if next.lo <= r.hi+1 {
			r.hi = next.hi
			continue
		}
		chars = append(chars, next)
	}
	s.chars = chars
}

func (s *charSet) unionRange(lo, hi rune) {
	s.union(&charSet{chars: []charRange{{lo: lo, hi: hi}}})
}

func (s *charSet) unionChar(r rune) {
	s.unionRange(r, r)
}

func (s *charSet) complement() {
	s.sealed = false
	if len(s.chars) == 0 {
		s.chars = []charRange{{lo: 0, hi: unicode.MaxRune}}
		return
	}
	res := make([]charRange, 0, len(s.chars)+1)
	next := rune(0)
	for _, r := range s.chars {
		if r.lo > next {
			res = append(res, charRange{lo: next, hi: r.lo - 1})
		}
		next = r.hi + 1
	}
	if next <= unicode.MaxRune {
		res = append(res, charRange{lo: next, hi: unicode.MaxRune})
	}
	s.chars = res
}

// seal precomputes the ASCII bitmap. The set must not be modified afterwards.
func (s *charSet) seal() *charSet {
	s.ascii = [2]uint64{}
	for _, r := range s.chars {
		if r.lo >= 128 {
			break
		}
		for c := r.lo; c <= r.hi && c < 128; c++ {
			s.ascii[c>>6] |= 1 << (c & 63)
		}
	}
	s.sealed = true
	return s
}

func (s *charSet) containsRune(r rune) bool {
	if s.sealed && r >= 0 && r < 128 {
		return s.ascii[r>>6]&(1<<(r&63)) != 0
	}
	lo := 0
	hi := len(s.chars)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		range_ := s.chars[m]
		if range_.lo <= r && r <= range_.hi {
			return true
		}
		if r < range_.lo {
			hi = m
		} else {
			lo = m + 1
		}
	}
	return false
}

// containsFold reports whether r or any rune in its simple case-folding
// orbit is in s.
func (s *charSet) containsFold(r rune) bool {
	if s.containsRune(r) {
		return true
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if s.containsRune(f) {
			return true
		}
	}
	return false
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

var digitCharSet = &charSet{
	chars: []charRange{
		{lo: '0', hi: '9'},
	},
}

var asciiWordCharSet = &charSet{
	chars: []charRange{
		{lo: '0', hi: '9'},
		{lo: 'A', hi: 'Z'},
		{lo: '_', hi: '_'},
		{lo: 'a', hi: 'z'},
	},
}

// \t \n \v \f \r and space
var asciiSpaceCharSet = &charSet{
	chars: []charRange{
		{lo: '\t', hi: '\r'},
		{lo: ' ', hi: ' '},
	},
}

func isASCIIWordChar(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isLineTerminator(c rune) bool {
	return c == '\n' || c == '\r' || c == '\u2028' || c == '\u2029'
}

package retrace

import (
	"unicode/utf8"
)

type op uint8

const (
	opEmpty op = iota
	opLiteral
	opCharClass
	opAnyChar
	opConcat
	opAlternate
	opRepeat
	opCapture
	opBackref
	opLineStart
	opLineEnd
	opWordBoundary
	opLookbehind
	opLookahead
)

// node is a parsed pattern element. Nodes form a tree and are never
// modified after parsing.
type node struct {
	op  op
	sub []*node
	// opLiteral
	r rune
	// opCharClass; membership is inverted when negate is set
	set *charSet
	// opRepeat; max == -1 means unbounded
	min, max int
	greedy   bool
	// opCapture, opBackref
	index int
	// opCharClass, opWordBoundary, opLookbehind, opLookahead
	negate bool
}

const maxRepeat = 1000

type parser struct {
	src   string
	pos   int
	flags Flag
	// capturing groups opened so far
	groups int
	// capturing groups in the whole pattern
	totalGroups int
}

func parse(pattern string, flags Flag) (*node, int, error) {
	p := parser{
		src:         pattern,
		flags:       flags,
		totalGroups: countGroups(pattern),
	}
	n, err := p.parseDisjunction()
	if err != nil {
		return nil, 0, err
	}
	if !p.atEnd() {
		// parseAlternative only stops early on ')'
		return nil, 0, newSyntaxError(p.pos, "unmatched ')'")
	}
	return n, p.groups, nil
}

// countGroups returns the number of capturing groups in pattern without
// validating it. Backreferences need the total before the groups are parsed.
func countGroups(pattern string) int {
	n := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '[':
			for i++; i < len(pattern) && pattern[i] != ']'; i++ {
				if pattern[i] == '\\' {
					i++
				}
			}
		case '(':
			if i+1 >= len(pattern) || pattern[i+1] != '?' {
				n++
			}
		}
	}
	return n
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.src)
}

// If the pattern is consumed, returns 0, true
func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, true
	}
	return p.src[p.pos], false
}

func (p *parser) consume(c byte) bool {
	if next, ended := p.peek(); ended || next != c {
		return false
	}
	p.pos++
	return true
}

func (p *parser) consumeString(s string) bool {
	if len(p.src)-p.pos < len(s) || p.src[p.pos:p.pos+len(s)] != s {
		return false
	}
	p.pos += len(s)
	return true
}

func (p *parser) nextRune() rune {
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return r
}

func (p *parser) parseDisjunction() (*node, error) {
	alt, err := p.parseAlternative()
	if err != nil {
		return nil, err
	}
	if !p.consume('|') {
		return alt, nil
	}
	n := &node{op: opAlternate, sub: []*node{alt}}
	for {
		alt, err = p.parseAlternative()
		if err != nil {
			return nil, err
		}
		n.sub = append(n.sub, alt)
		if !p.consume('|') {
			return n, nil
		}
	}
}

func (p *parser) parseAlternative() (*node, error) {
	var terms []*node
	for {
		c, ended := p.peek()
		if ended || c == '|' || c == ')' {
			break
		}
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	switch len(terms) {
	case 0:
		return &node{op: opEmpty}, nil
	case 1:
		return terms[0], nil
	}
	return &node{op: opConcat, sub: terms}, nil
}

func (p *parser) parseTerm() (*node, error) {
	start := p.pos
	atom, quantifiable, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	min, max, found, err := p.parseQuantifier()
	if err != nil {
		return nil, err
	}
	if !found {
		return atom, nil
	}
	if !quantifiable {
		return nil, newSyntaxError(start, "nothing to repeat")
	}
	greedy := !p.consume('?')
	if p.peekQuantifier() {
		return nil, newSyntaxError(p.pos, "nothing to repeat")
	}
	if min == 1 && max == 1 {
		return atom, nil
	}
	return &node{
		op:     opRepeat,
		sub:    []*node{atom},
		min:    min,
		max:    max,
		greedy: greedy,
	}, nil
}

func (p *parser) peekQuantifier() bool {
	saved := p.pos
	_, _, found, err := p.parseQuantifier()
	p.pos = saved
	return found || err != nil
}

// Returns min, max (-1 when unbounded) and whether a quantifier was found.
// A '{' that does not open a well-formed bound is not a quantifier.
func (p *parser) parseQuantifier() (int, int, bool, error) {
	c, ended := p.peek()
	if ended {
		return 0, 0, false, nil
	}
	switch c {
	case '*':
		p.pos++
		return 0, -1, true, nil
	case '+':
		p.pos++
		return 1, -1, true, nil
	case '?':
		p.pos++
		return 0, 1, true, nil
	case '{':
	default:
		return 0, 0, false, nil
	}

	start := p.pos
	p.pos++
	min, ok := p.parseDecimalDigits()
	if !ok {
		p.pos = start
		return 0, 0, false, nil
	}
	max := min
	if p.consume(',') {
		if max, ok = p.parseDecimalDigits(); !ok {
			max = -1
		}
	}
	if !p.consume('}') {
		p.pos = start
		return 0, 0, false, nil
	}
	if min > maxRepeat || max > maxRepeat {
		return 0, 0, false, newSyntaxError(start, "repetition count too large")
	}
	if max != -1 && min > max {
		return 0, 0, false, newSyntaxError(start, "invalid repetition range")
	}
	return min, max, true, nil
}

// If number is valid, returns n, true. Values saturate above maxRepeat.
func (p *parser) parseDecimalDigits() (int, bool) {
	c, ended := p.peek()
	if ended || !isDigit(c) {
		return 0, false
	}
	n := 0
	for ; !ended && isDigit(c); c, ended = p.peek() {
		p.pos++
		if n <= maxRepeat {
			n = n*10 + int(c-'0')
		}
	}
	return n, true
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// Returns the atom and whether a quantifier may follow it.
func (p *parser) parseAtom() (*node, bool, error) {
	start := p.pos
	// parseTerm is never called at the end of the pattern
	c := p.src[p.pos]

	switch c {
	case '.':
		p.pos++
		return &node{op: opAnyChar}, true, nil
	case '^':
		p.pos++
		return &node{op: opLineStart}, false, nil
	case '$':
		p.pos++
		return &node{op: opLineEnd}, false, nil
	case '(':
		return p.parseGroup()
	case '[':
		n, err := p.parseClass()
		return n, true, err
	case '\\':
		return p.parseEscape()
	case '*', '+', '?':
		return nil, false, newSyntaxError(start, "nothing to repeat")
	case '{':
		if p.peekQuantifier() {
			return nil, false, newSyntaxError(start, "nothing to repeat")
		}
		p.pos++
		return &node{op: opLiteral, r: '{'}, true, nil
	}
	return &node{op: opLiteral, r: p.nextRune()}, true, nil
}

func (p *parser) parseGroup() (*node, bool, error) {
	start := p.pos
	p.pos++

	var n *node
	quantifiable := true
	switch {
	case p.consumeString("?:"):
		sub, err := p.parseDisjunction()
		if err != nil {
			return nil, false, err
		}
		n = sub
	case p.consumeString("?<="), p.consumeString("?<!"):
		sub, err := p.parseDisjunction()
		if err != nil {
			return nil, false, err
		}
		n = &node{op: opLookbehind, sub: []*node{sub}, negate: p.src[start+3] == '!'}
		quantifiable = false
	case p.consumeString("?="), p.consumeString("?!"):
		sub, err := p.parseDisjunction()
		if err != nil {
			return nil, false, err
		}
		n = &node{op: opLookahead, sub: []*node{sub}, negate: p.src[start+2] == '!'}
		quantifiable = false
	case p.consume('?'):
		return nil, false, newSyntaxError(start, "invalid group syntax")
	default:
		p.groups++
		index := p.groups
		sub, err := p.parseDisjunction()
		if err != nil {
			return nil, false, err
		}
		n = &node{op: opCapture, sub: []*node{sub}, index: index}
	}
	if !p.consume(')') {
		return nil, false, newSyntaxError(start, "missing ')'")
	}
	return n, quantifiable, nil
}

func (p *parser) parseEscape() (*node, bool, error) {
	start := p.pos
	p.pos++
	c, ended := p.peek()
	if ended {
		return nil, false, newSyntaxError(start, "trailing backslash")
	}
	switch c {
	case 'b', 'B':
		p.pos++
		return &node{op: opWordBoundary, negate: c == 'B'}, false, nil
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		index := int(c - '0')
		if index > p.totalGroups {
			return nil, false, newSyntaxError(start, "backreference to non-existent group")
		}
		p.pos++
		// Take further digits while they still name an existing group.
		for {
			d, ended := p.peek()
			if ended || !isDigit(d) || index*10+int(d-'0') > p.totalGroups {
				break
			}
			index = index*10 + int(d-'0')
			p.pos++
		}
		return &node{op: opBackref, index: index}, true, nil
	}
	if set, negate, ok := p.parseClassEscape(); ok {
		return &node{op: opCharClass, set: set, negate: negate}, true, nil
	}
	r, err := p.parseCharacterEscape(start)
	if err != nil {
		return nil, false, err
	}
	return &node{op: opLiteral, r: r}, true, nil
}

// parseClassEscape parses \d \D \w \W \s \S after the backslash.
func (p *parser) parseClassEscape() (*charSet, bool, bool) {
	c, ended := p.peek()
	if ended {
		return nil, false, false
	}
	var set *charSet
	switch c | ('a' - 'A') {
	case 'd':
		set = digitCharSet
	case 'w':
		set = asciiWordCharSet
	case 's':
		set = asciiSpaceCharSet
	default:
		return nil, false, false
	}
	p.pos++
	return set.clone().seal(), c < 'a', true
}

// parseCharacterEscape parses a single-character escape after the backslash.
// start is the position of the backslash.
func (p *parser) parseCharacterEscape(start int) (rune, error) {
	c := p.src[p.pos]
	switch c {
	case 't':
		p.pos++
		return '\t', nil
	case 'n':
		p.pos++
		return '\n', nil
	case 'r':
		p.pos++
		return '\r', nil
	case 'f':
		p.pos++
		return '\f', nil
	case 'v':
		p.pos++
		return '\v', nil
	case '0':
		p.pos++
		return 0, nil
	case 'x':
		p.pos++
		return p.parseHex(start, 2)
	case 'u':
		p.pos++
		return p.parseHex(start, 4)
	}
	if c >= utf8.RuneSelf {
		return p.nextRune(), nil
	}
	if isASCIIWordChar(rune(c)) {
		return 0, newSyntaxError(start, "invalid escape")
	}
	// escaped punctuation stands for itself
	p.pos++
	return rune(c), nil
}

func (p *parser) parseHex(start, digits int) (rune, error) {
	if len(p.src)-p.pos < digits {
		return 0, newSyntaxError(start, "invalid hex escape")
	}
	var r rune
	for _, c := range []byte(p.src[p.pos : p.pos+digits]) {
		var v byte
		switch {
		case '0' <= c && c <= '9':
			v = c - '0'
		case 'a' <= c|('a'-'A') && c|('a'-'A') <= 'f':
			v = c | ('a' - 'A') - 'a' + 10
		default:
			return 0, newSyntaxError(start, "invalid hex escape")
		}
		r = r<<4 | rune(v)
	}
	p.pos += digits
	return r, nil
}

func (p *parser) parseClass() (*node, error) {
	start := p.pos
	p.pos++
	negate := p.consume('^')
	set := &charSet{}

	for {
		if p.atEnd() {
			return nil, newSyntaxError(start, "unterminated character class")
		}
		if p.consume(']') {
			break
		}
		atomPos := p.pos
		lo, loSet, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if len(p.src)-p.pos < 2 || p.src[p.pos] != '-' || p.src[p.pos+1] == ']' {
			if loSet != nil {
				set.union(loSet)
			} else {
				set.unionChar(lo)
			}
			continue
		}
		p.pos++
		hi, hiSet, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if loSet != nil || hiSet != nil {
			return nil, newSyntaxError(atomPos, "invalid character class range")
		}
		if lo > hi {
			return nil, newSyntaxError(atomPos, "character class range out of order")
		}
		set.unionRange(lo, hi)
	}
	return &node{op: opCharClass, set: set.seal(), negate: negate}, nil
}

// Returns either a single rune or a set (for class escapes).
func (p *parser) parseClassAtom() (rune, *charSet, error) {
	start := p.pos
	if !p.consume('\\') {
		return p.nextRune(), nil, nil
	}
	if p.atEnd() {
		return 0, nil, newSyntaxError(start, "unterminated character class")
	}
	if set, negate, ok := p.parseClassEscape(); ok {
		if negate {
			set = set.clone()
			set.complement()
		}
		return 0, set, nil
	}
	if p.consume('b') {
		// backspace
		return '\b', nil, nil
	}
	r, err := p.parseCharacterEscape(start)
	return r, nil, err
}

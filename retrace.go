// Package retrace is a backtracking regular expression engine.
//
// It supports literals, character classes, the ASCII shorthands \d \w \s,
// greedy and lazy quantifiers including bounded repetition, alternation,
// capturing and non-capturing groups, backreferences, anchors with an
// optional multiline mode, word boundaries, lookahead and lookbehind.
//
// Alternation is first-match: branches are tried left to right and the first
// one that leads to an overall match wins, as in Perl, Java or ECMAScript
// engines (not the POSIX leftmost-longest rule).
//
// Offsets reported by the package are byte offsets into the UTF-8 input.
package retrace

import (
	"strings"
)

// Flag is a bitmask of pattern options.
// The zero value compiles the pattern with no options.
// Combine flags with bitwise OR, e.g. FlagIgnoreCase|FlagMultiline.
type Flag uint16

const (
	// Case-insensitive matching using simple case folding.
	FlagIgnoreCase Flag = 1 << iota

	// "^" and "$" also match at line boundaries.
	FlagMultiline

	// "." also matches line terminators.
	FlagDotAll
)

// DefaultStepLimit is the number of VM instructions a match attempt at a
// single start position may execute before the search fails with
// ErrStepLimitExceeded.
const DefaultStepLimit = 50_000_000

// Pattern represents a compiled regular expression.
// It is safe for concurrent use by multiple goroutines.
// All methods on Pattern do not mutate internal state.
type Pattern struct {
	source    string
	flags     Flag
	byteCode  []instruction
	groups    int
	prefilter *prefilter
	stepLimit int
}

// Compile parses a regular expression pattern and returns a Pattern that can
// be applied to any number of inputs.
//
// A malformed pattern yields a *SyntaxError.
func Compile(pattern string, flags Flag) (*Pattern, error) {
	root, groups, err := parse(pattern, flags)
	if err != nil {
		return nil, err
	}
	return &Pattern{
		source:    pattern,
		flags:     flags,
		byteCode:  compileProgram(root, flags),
		groups:    groups,
		prefilter: newPrefilter(root, flags),
		stepLimit: DefaultStepLimit,
	}, nil
}

// MustCompile is like [Compile] but panics if the expression cannot be parsed.
// It simplifies safe initialization of global variables containing regular
// expressions.
func MustCompile(pattern string, flags Flag) *Pattern {
	p, err := Compile(pattern, flags)
	if err != nil {
		panic("retrace: MustCompile: " + err.Error())
	}
	return p
}

// WithStepLimit returns a copy of p whose searches fail with
// ErrStepLimitExceeded once an attempt at one start position executes n
// instructions. A limit of zero disables the check.
func (p *Pattern) WithStepLimit(n int) *Pattern {
	res := *p
	res.stepLimit = max(n, 0)
	return &res
}

// String returns the source text of the pattern.
func (p *Pattern) String() string {
	return p.source
}

// Flags returns the flags p was compiled with.
func (p *Pattern) Flags() Flag {
	return p.flags
}

// NumGroups returns the number of capturing groups in p.
func (p *Pattern) NumGroups() int {
	return p.groups
}

// Matches reports whether the entire text matches p.
func (p *Pattern) Matches(text string) (bool, error) {
	m, err := p.exec(text, 0, execAnchored|execFull)
	return m != nil, err
}

// ContainsMatchIn reports whether p matches anywhere in text.
func (p *Pattern) ContainsMatchIn(text string) (bool, error) {
	m, err := p.exec(text, 0, 0)
	return m != nil, err
}

// Find returns the leftmost match of p in text.
// If there is no match, it returns nil and a nil error.
func (p *Pattern) Find(text string) (*Match, error) {
	return p.exec(text, 0, 0)
}

// FindAt returns the first match of p that starts at or after the byte
// offset from. If from is out of range or nothing matches, it returns nil.
func (p *Pattern) FindAt(text string, from int) (*Match, error) {
	return p.exec(text, from, 0)
}

// MatchAt returns the match of p that starts exactly at the byte offset pos,
// or nil if p does not match there.
func (p *Pattern) MatchAt(text string, pos int) (*Match, error) {
	return p.exec(text, pos, execAnchored)
}

// Group represents a single captured substring of a match.
type Group struct {
	src string
	// Start is the inclusive start offset of the captured substring,
	// or -1 if the group did not participate in the match.
	Start int
	// End is the exclusive end offset of the captured substring,
	// or -1 if the group did not participate in the match.
	End int
}

// Matched reports whether the group participated in the match.
func (g Group) Matched() bool {
	return g.Start != -1
}

// String returns the captured substring, or "" if the group is unset.
func (g Group) String() string {
	if g.Start == -1 {
		return ""
	}
	return g.src[g.Start:g.End]
}

// Match holds the result of a successful match.
// It is safe for concurrent use by multiple goroutines.
type Match struct {
	// Groups is the ordered list of captures.
	// Groups[0] is the full match; subsequent entries correspond to
	// the capturing groups in the pattern.
	Groups []Group

	re *Pattern
}

// Span returns the start and end offsets of the whole match.
func (m *Match) Span() (int, int) {
	return m.Groups[0].Start, m.Groups[0].End
}

// Value returns the matched text.
func (m *Match) Value() string {
	return m.Groups[0].String()
}

// GroupValue returns the text captured by group index. The second result is
// false if the group did not participate in the match or does not exist.
func (m *Match) GroupValue(index int) (string, bool) {
	if index < 0 || index >= len(m.Groups) || !m.Groups[index].Matched() {
		return "", false
	}
	return m.Groups[index].String(), true
}

// Values returns the text of every capturing group, in order, with "" for
// groups that did not participate.
func (m *Match) Values() []string {
	res := make([]string, len(m.Groups)-1)
	for i, g := range m.Groups[1:] {
		res[i] = g.String()
	}
	return res
}

// Next returns the match that follows m in the same text, or nil if there is
// none. The search resumes at the end of m; after an empty match it starts
// one character further so that iteration always makes progress.
// Calling Next on a nil *Match returns nil.
func (m *Match) Next() (*Match, error) {
	if m == nil {
		return nil, nil
	}
	start, end := m.Span()
	mode := execContinue
	if start == end {
		mode |= execAdvance
	}
	return m.re.exec(m.Groups[0].src, end, mode)
}

// QuoteMeta returns a string that escapes all metacharacters inside s; the
// result is a pattern matching s literally.
func QuoteMeta(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(`\.+*?()|[]{}^$`, s[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

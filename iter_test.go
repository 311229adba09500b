package retrace

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

type span struct{ start, end int }

func spans(t *testing.T, p *Pattern, text string) []span {
	t.Helper()
	var res []span
	for m, err := range p.All(text) {
		assert.NilError(t, err)
		start, end := m.Span()
		res = append(res, span{start, end})
	}
	return res
}

func TestIterSpans(t *testing.T) {
	cases := []struct {
		pattern string
		flags   Flag
		text    string
		want    []span
	}{
		{"", 0, "abc", []span{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
		{"", 0, "", []span{{0, 0}}},
		{"a*", 0, "baaa", []span{{0, 0}, {1, 4}, {4, 4}}},
		{"a*", 0, "aab", []span{{0, 2}, {2, 2}, {3, 3}}},
		{"a*?", 0, "aa", []span{{0, 0}, {1, 1}, {2, 2}}},
		{`\d+`, 0, "a1b22c333", []span{{1, 2}, {3, 5}, {6, 9}}},
		{"aa", 0, "aaaaa", []span{{0, 2}, {2, 4}}},
		{`\b`, 0, "ab cd", []span{{0, 0}, {2, 2}, {3, 3}, {5, 5}}},
		{"x*", 0, "日本", []span{{0, 0}, {3, 3}, {6, 6}}},
		{"^", FlagMultiline, "a\nb\n", []span{{0, 0}, {2, 2}, {4, 4}}},
		{"$", FlagMultiline, "a\nb", []span{{1, 1}, {3, 3}}},
		{"z", 0, "abc", nil},
	}
	for _, c := range cases {
		t.Run(c.pattern, func(t *testing.T) {
			t.Parallel()
			got := spans(t, MustCompile(c.pattern, c.flags), c.text)
			if diff := cmp.Diff(c.want, got, cmp.AllowUnexported(span{})); diff != "" {
				t.Fatalf("spans of %q in %q (-want +got):\n%s", c.pattern, c.text, diff)
			}
		})
	}
}

func TestIterNonOverlapping(t *testing.T) {
	patterns := []string{"", "a*", "a|ab", `\w+`, `(a|b)*?`, `\b`, `(?<=a)b*`, `[^b]*`, `(\w)\1`, "x?"}
	texts := []string{"", "a", "ab", "aab abba", "bbaab", "日a本b", "aaaa bbbb"}
	for _, pattern := range patterns {
		p := MustCompile(pattern, 0)
		for _, text := range texts {
			prevEnd := -1
			prevStart := -1
			for m, err := range p.All(text) {
				assert.NilError(t, err)
				start, end := m.Span()
				assert.Assert(t, 0 <= start && start <= end && end <= len(text))
				assert.Assert(t, start >= prevEnd, "%q in %q: %d..%d overlaps previous end %d", pattern, text, start, end, prevEnd)
				assert.Assert(t, start > prevStart, "%q in %q: start %d does not increase", pattern, text, start)
				for _, g := range m.Groups {
					if g.Matched() {
						assert.Assert(t, 0 <= g.Start && g.Start <= g.End && g.End <= len(text))
					}
				}
				prevStart, prevEnd = start, end
			}
		}
	}
}

func TestIterator(t *testing.T) {
	p := MustCompile(`(\w)(\d)`, 0)
	it := p.Iter("a1 b2 c3")
	assert.Assert(t, it.Match() == nil)

	var got []string
	for it.Next() {
		got = append(got, it.Match().Value())
	}
	assert.NilError(t, it.Err())
	assert.DeepEqual(t, got, []string{"a1", "b2", "c3"})
	assert.Assert(t, it.Match() == nil)
	assert.Assert(t, !it.Next())
}

func TestIteratorMatchesNext(t *testing.T) {
	p := MustCompile(`a|`, 0)
	text := "baab"

	var viaNext []span
	m, err := p.Find(text)
	for ; m != nil && err == nil; m, err = m.Next() {
		start, end := m.Span()
		viaNext = append(viaNext, span{start, end})
	}
	assert.NilError(t, err)
	assert.DeepEqual(t, viaNext, spans(t, p, text), cmp.AllowUnexported(span{}))
	assert.DeepEqual(t, viaNext, []span{{0, 0}, {1, 2}, {2, 3}, {3, 3}, {4, 4}}, cmp.AllowUnexported(span{}))
}

func TestAllEarlyBreak(t *testing.T) {
	p := MustCompile(`\d`, 0)
	count := 0
	for range p.All("123456") {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, count, 2)
}

func TestFindAll(t *testing.T) {
	p := MustCompile(`\w+`, 0)
	text := "one two three"

	values := func(ms []*Match) []string {
		res := make([]string, len(ms))
		for i, m := range ms {
			res[i] = m.Value()
		}
		return res
	}

	ms, err := p.FindAll(text, -1)
	assert.NilError(t, err)
	assert.DeepEqual(t, values(ms), []string{"one", "two", "three"})

	ms, err = p.FindAll(text, 2)
	assert.NilError(t, err)
	assert.DeepEqual(t, values(ms), []string{"one", "two"})

	ms, err = p.FindAll(text, 0)
	assert.NilError(t, err)
	assert.Equal(t, len(ms), 0)

	ms, err = p.FindAll(strings.Repeat(" ", 5), -1)
	assert.NilError(t, err)
	assert.Equal(t, len(ms), 0)
}

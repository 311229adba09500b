package retrace

import (
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func TestCharSet(t *testing.T) {
	t.Run("union", func(t *testing.T) {
		cases := [][3][]charRange{
			{nil, nil, nil},
			{nil, {{1, 2}}, {{1, 2}}},
			{{{1, 2}}, nil, {{1, 2}}},
			{{{5, 10}}, {{5, 10}}, {{5, 10}}},
			{{{5, 10}}, {{6, 9}}, {{5, 10}}},
			{{{5, 10}}, {{6, 11}}, {{5, 11}}},
			{{{5, 10}}, {{4, 9}}, {{4, 10}}},
			{{{5, 10}}, {{4, 11}}, {{4, 11}}},
			{{}, {{1, 2}, {4, 4}}, {{1, 2}, {4, 4}}},
			{{{1, 2}, {4, 4}}, {}, {{1, 2}, {4, 4}}},
			{{{5, 10}}, {{10, 15}}, {{5, 15}}},
			{{{5, 10}}, {{11, 15}}, {{5, 15}}},
			{
				{{1, 3}, {10, 12}, {17, 17}},
				{{2, 4}, {13, 15}, {20, 20}},
				{{1, 4}, {10, 15}, {17, 17}, {20, 20}},
			},
			{{{10, 10}}, {{11, 11}}, {{10, 11}}},
			{{{5, 10}, {13, 15}}, {{11, 11}}, {{5, 11}, {13, 15}}},
			{{{5, 10}, {13, 15}}, {{12, 12}}, {{5, 10}, {12, 15}}},
			{{{5, 10}, {13, 15}}, {{11, 13}}, {{5, 15}}},
			{{{5, 10}, {12, 15}}, {{11, 11}}, {{5, 15}}},
		}
		for _, c := range cases {
			t.Run("", func(t *testing.T) {
				a := charSet{chars: c[0]}
				b := charSet{chars: c[1]}
				a.union(&b)
				assert.DeepEqual(t, c[2], a.chars, cmp.AllowUnexported(charRange{}))
			})
		}
	})

	t.Run("unionChar", func(t *testing.T) {
		cases := []struct {
			base     []charRange
			char     rune
			expected []charRange
		}{
			{nil, 'a', []charRange{{0x61, 0x61}}},
			{[]charRange{}, 'a', []charRange{{0x61, 0x61}}},
			{[]charRange{{5, 10}, {15, 20}}, 7, []charRange{{5, 10}, {15, 20}}},
			{[]charRange{{5, 10}, {15, 20}}, 12, []charRange{{5, 10}, {12, 12}, {15, 20}}},
			{[]charRange{{5, 10}, {15, 20}}, 11, []charRange{{5, 11}, {15, 20}}},
			{[]charRange{{5, 10}, {15, 20}}, 14, []charRange{{5, 10}, {14, 20}}},
			{[]charRange{{5, 10}, {12, 20}}, 11, []charRange{{5, 20}}},
			{[]charRange{{5, 10}, {15, 20}}, 25, []charRange{{5, 10}, {15, 20}, {25, 25}}},
			{[]charRange{{5, 5}}, 1, []charRange{{1, 1}, {5, 5}}},
			{[]charRange{{5, 5}}, 4, []charRange{{4, 5}}},
		}
		for _, c := range cases {
			t.Run("", func(t *testing.T) {
				set := &charSet{chars: c.base}
				set.unionChar(c.char)
				assert.DeepEqual(t, c.expected, set.chars, cmp.AllowUnexported(charRange{}))
			})
		}
	})

	t.Run("complement", func(t *testing.T) {
		cases := [][2][]charRange{
			{nil, {{0, 0x10ffff}}},
			{{}, {{0, 0x10ffff}}},
			{{{5, 5}}, {{0, 4}, {6, 0x10ffff}}},
			{{{3, 5}, {8, 9}}, {{0, 2}, {6, 7}, {10, 0x10ffff}}},
			{{{0, 5}, {8, 9}, {12, 15}}, {{6, 7}, {10, 11}, {16, 0x10ffff}}},
			{{{0, 5}, {8, 9}, {12, 0x10ffff}}, {{6, 7}, {10, 11}}},
			{{{0, 0x10ffff}}, {}},
		}
		for _, c := range cases {
			t.Run("", func(t *testing.T) {
				s := &charSet{chars: c[0]}
				s.complement()
				assert.DeepEqual(t, c[1], s.chars, cmp.AllowUnexported(charRange{}))
			})
		}
	})

	t.Run("contains", func(t *testing.T) {
		set := &charSet{chars: []charRange{{1, 2}, {4, 4}, {6, 7}, {'a', 'c'}, {'é', 'é'}, {0x10000, 0x10010}}}
		for _, sealed := range []bool{false, true} {
			if sealed {
				set = set.clone().seal()
			}
			assert.Equal(t, set.containsRune(0), false)
			assert.Equal(t, set.containsRune(1), true)
			assert.Equal(t, set.containsRune(3), false)
			assert.Equal(t, set.containsRune(4), true)
			assert.Equal(t, set.containsRune(5), false)
			assert.Equal(t, set.containsRune(7), true)
			assert.Equal(t, set.containsRune('b'), true)
			assert.Equal(t, set.containsRune('d'), false)
			assert.Equal(t, set.containsRune('é'), true)
			assert.Equal(t, set.containsRune('è'), false)
			assert.Equal(t, set.containsRune(0x10010), true)
			assert.Equal(t, set.containsRune(0x10011), false)
			assert.Equal(t, set.containsRune(-1), false)
		}
	})

	t.Run("seal", func(t *testing.T) {
		set := (&charSet{chars: []charRange{{'0', '9'}, {'~', 0x200}}}).seal()
		assert.Equal(t, set.ascii[0], uint64(0x3ff)<<'0')
		assert.Equal(t, set.ascii[1], uint64(0b11)<<('~'-64))
		assert.Assert(t, set.sealed)
	})

	t.Run("clone", func(t *testing.T) {
		a := &charSet{chars: []charRange{{1, 2}}}
		b := a.clone()
		b.unionChar(10)
		assert.DeepEqual(t, a.chars, []charRange{{1, 2}}, cmp.AllowUnexported(charRange{}))
	})

	t.Run("containsFold", func(t *testing.T) {
		set := (&charSet{chars: []charRange{{'a', 'c'}, {'k', 'k'}, {'ß', 'ß'}}}).seal()
		assert.Equal(t, set.containsFold('B'), true)
		assert.Equal(t, set.containsFold('K'), true)
		assert.Equal(t, set.containsFold('\u212a'), true)
		assert.Equal(t, set.containsFold('\u1e9e'), true)
		assert.Equal(t, set.containsFold('D'), false)
		assert.Equal(t, set.containsFold('1'), false)
	})

	t.Run("shorthands", func(t *testing.T) {
		for r := rune(0); r < 0x3000; r++ {
			assert.Equal(t, digitCharSet.containsRune(r), '0' <= r && r <= '9', "%U", r)
			assert.Equal(t, asciiWordCharSet.containsRune(r), isASCIIWordChar(r), "%U", r)
			assert.Equal(t, asciiSpaceCharSet.containsRune(r), r < 0x80 && unicode.IsSpace(r), "%U", r)
		}
	})
}

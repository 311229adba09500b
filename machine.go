package retrace

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// frame is a point to resume from once the current path fails. The
// captures and aux values live at that point are kept in the machine's
// saved slices starting at caps and aux.
type frame struct {
	pc, pos int
	caps    int
	aux     int
	auxLen  int
}

// auxStack holds loop counters, group entry offsets and lookaround marks.
type auxStack []int

func (s *auxStack) push(v int) { *s = append(*s, v) }

func (s *auxStack) pop() int {
	n := len(*s) - 1
	v := (*s)[n]
	*s = (*s)[:n]
	return v
}

// top returns the topmost value for in-place updates.
func (s auxStack) top() *int { return &s[len(s)-1] }

type capture struct {
	start int
	end   int
}

// machine is the state of one search. It is owned by a single call and
// reused for every start position that call tries.
type machine struct {
	byteCode []instruction
	text     string
	// whether the match must end at the end of text
	full bool

	pc  int
	pos int

	frames    []frame
	savedCaps []capture
	savedAux  []int
	aux       auxStack

	captures []capture

	failed bool

	// instructions executed by the current attempt
	steps     int
	stepLimit int
	exceeded  bool
}

func newMachine(p *Pattern, text string) *machine {
	return &machine{
		byteCode:  p.byteCode,
		text:      text,
		captures:  make([]capture, p.groups+1),
		stepLimit: p.stepLimit,
	}
}

func (vm *machine) reset(pos int) {
	vm.pc = 0
	vm.pos = pos
	vm.frames = vm.frames[:0]
	vm.savedCaps = vm.savedCaps[:0]
	vm.savedAux = vm.savedAux[:0]
	vm.aux = vm.aux[:0]
	vm.failed = false
	vm.steps = 0
	for i := range vm.captures {
		vm.captures[i].start = -1
		vm.captures[i].end = -1
	}
}

func (vm *machine) moveSP(dir direction) (rune, bool) {
	if dir == directionForward {
		if vm.pos >= len(vm.text) {
			vm.fail()
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(vm.text[vm.pos:])
		vm.pos += size
		return r, true
	}
	if vm.pos == 0 {
		vm.fail()
		return 0, false
	}
	r, size := utf8.DecodeLastRuneInString(vm.text[:vm.pos])
	vm.pos -= size
	return r, true
}

// Returns the rune before the cursor, or -1 at the start of text.
func (vm *machine) prevRune() rune {
	if vm.pos == 0 {
		return -1
	}
	r, _ := utf8.DecodeLastRuneInString(vm.text[:vm.pos])
	return r
}

// Returns the rune at the cursor, or -1 at the end of text.
func (vm *machine) currRune() rune {
	if vm.pos >= len(vm.text) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(vm.text[vm.pos:])
	return r
}

// A "\r\n" pair counts as a single line terminator.
func (vm *machine) atLineStart(multiline bool) bool {
	if vm.pos == 0 {
		return true
	}
	if !multiline {
		return false
	}
	prev := vm.prevRune()
	return isLineTerminator(prev) && !(prev == '\r' && vm.currRune() == '\n')
}

func (vm *machine) atLineEnd(multiline bool) bool {
	if vm.pos == len(vm.text) {
		return true
	}
	if !multiline {
		return false
	}
	curr := vm.currRune()
	return isLineTerminator(curr) && !(curr == '\n' && vm.prevRune() == '\r')
}

func (vm *machine) atWordBoundary() bool {
	return isASCIIWordChar(vm.prevRune()) != isASCIIWordChar(vm.currRune())
}

// matchesCapture compares the text at the cursor with the captured text of
// group index and moves over it on success. An unset group never matches.
func (vm *machine) matchesCapture(dir direction, index int, fold bool) bool {
	c := vm.captures[index]
	if c.start == -1 {
		return false
	}
	captured := vm.text[c.start:c.end]

	if !fold {
		if dir == directionForward {
			if !strings.HasPrefix(vm.text[vm.pos:], captured) {
				return false
			}
			vm.pos += len(captured)
			return true
		}
		if !strings.HasSuffix(vm.text[:vm.pos], captured) {
			return false
		}
		vm.pos -= len(captured)
		return true
	}

	pos := vm.pos
	for len(captured) > 0 {
		var expected, actual rune
		var size int
		if dir == directionForward {
			if pos >= len(vm.text) {
				return false
			}
			expected, size = utf8.DecodeRuneInString(captured)
			captured = captured[size:]
			actual, size = utf8.DecodeRuneInString(vm.text[pos:])
			pos += size
		} else {
			if pos == 0 {
				return false
			}
			expected, size = utf8.DecodeLastRuneInString(captured)
			captured = captured[:len(captured)-size]
			actual, size = utf8.DecodeLastRuneInString(vm.text[:pos])
			pos -= size
		}
		if !equalFold(expected, actual) {
			return false
		}
	}
	vm.pos = pos
	return true
}

// branch records the current state so that a later fail resumes at pc.
func (vm *machine) branch(pc int) {
	vm.frames = append(vm.frames, frame{
		pc:     pc,
		pos:    vm.pos,
		caps:   len(vm.savedCaps),
		aux:    len(vm.savedAux),
		auxLen: len(vm.aux),
	})
	vm.savedCaps = append(vm.savedCaps, vm.captures...)
	vm.savedAux = append(vm.savedAux, vm.aux...)
}

// fail abandons the current path and resumes at the most recent branch.
// With no branch left the attempt has failed.
func (vm *machine) fail() {
	n := len(vm.frames) - 1
	if n < 0 {
		vm.failed = true
		return
	}
	f := vm.frames[n]
	vm.frames = vm.frames[:n]

	vm.pc, vm.pos = f.pc, f.pos
	copy(vm.captures, vm.savedCaps[f.caps:])
	vm.savedCaps = vm.savedCaps[:f.caps]
	vm.aux = append(vm.aux[:0], vm.savedAux[f.aux:f.aux+f.auxLen]...)
	vm.savedAux = vm.savedAux[:f.aux]
}

// run executes instructions until the program ends, every path has failed
// or the attempt uses up its step budget.
func (vm *machine) run() {
	for !vm.failed && vm.pc < len(vm.byteCode) {
		if vm.stepLimit > 0 && vm.steps == vm.stepLimit {
			vm.exceeded = true
			return
		}
		vm.steps++
		vm.byteCode[vm.pc](vm)
	}
}

type execMode uint8

const (
	// only try the start position
	execAnchored execMode = 1 << iota
	// the match must extend to the end of text
	execFull
	// step over one rune before searching, used after a zero-width match
	execAdvance
	// the search continues an earlier one on the same text
	execContinue
)

// exec searches text for the leftmost match starting at or after from.
// Each start position gets a fresh attempt with its own step budget; a
// failed attempt moves the start one rune forward.
func (p *Pattern) exec(text string, from int, mode execMode) (*Match, error) {
	if from < 0 || from > len(text) {
		return nil, nil
	}
	// Never start inside a UTF-8 sequence.
	for i := 0; i < utf8.UTFMax-1 && from > 0 && from < len(text) && !utf8.RuneStart(text[from]); i++ {
		from--
	}
	pos := from
	if mode&execAdvance != 0 {
		if pos >= len(text) {
			return nil, nil
		}
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}

	anchored := mode&execAnchored != 0
	pf := p.prefilter
	if anchored {
		pf = nil
	}
	if pf != nil && mode&execContinue == 0 && !pf.mayMatch(text[pos:]) {
		return nil, nil
	}

	vm := newMachine(p, text)
	vm.full = mode&execFull != 0
	for {
		if pf != nil {
			if pos = pf.next(text, pos); pos < 0 {
				return nil, nil
			}
		}
		vm.reset(pos)
		vm.run()
		if vm.exceeded {
			return nil, fmt.Errorf("%w (limit %d, attempt at offset %d)", ErrStepLimitExceeded, vm.stepLimit, pos)
		}
		if !vm.failed {
			return vm.result(p), nil
		}
		if anchored || pos >= len(text) {
			return nil, nil
		}
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}
}

func (vm *machine) result(p *Pattern) *Match {
	m := &Match{
		Groups: make([]Group, len(vm.captures)),
		re:     p,
	}
	for i, c := range vm.captures {
		m.Groups[i] = Group{
			src:   vm.text,
			Start: c.start,
			End:   c.end,
		}
	}
	return m
}

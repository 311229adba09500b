package retrace

import (
	"math"
	"slices"
)

type direction = int

const (
	directionForward  direction = 1
	directionBackward direction = -1
)

// instruction is a single step of a compiled program. Every instruction
// either advances vm.pc itself or calls vm.fail. Jumps are relative to
// the instruction's own position, so compiled fragments can be concatenated
// and repeated freely.
type instruction = func(vm *machine)

type compiler struct {
	flags Flag
}

func compileProgram(root *node, flags Flag) []instruction {
	c := compiler{flags: flags}
	code := c.compile(&node{op: opCapture, sub: []*node{root}}, directionForward)
	return append(code, func(vm *machine) {
		vm.pc++
		if vm.full && vm.pos != len(vm.text) {
			vm.fail()
		}
	})
}

func (c *compiler) compile(n *node, dir direction) []instruction {
	switch n.op {
	case opEmpty:
		return nil
	case opLiteral:
		return c.compileLiteral(n, dir)
	case opCharClass:
		return c.compileCharClass(n, dir)
	case opAnyChar:
		dotAll := c.flags&FlagDotAll != 0
		return []instruction{func(vm *machine) {
			vm.pc++
			src, moved := vm.moveSP(dir)
			if moved && !dotAll && isLineTerminator(src) {
				vm.fail()
			}
		}}
	case opConcat:
		var code []instruction
		if dir == directionForward {
			for _, sub := range n.sub {
				code = append(code, c.compile(sub, dir)...)
			}
		} else {
			for _, sub := range slices.Backward(n.sub) {
				code = append(code, c.compile(sub, dir)...)
			}
		}
		return code
	case opAlternate:
		return c.compileAlternate(n, dir)
	case opRepeat:
		return c.compileRepeat(n, dir)
	case opCapture:
		return c.compileCapture(n, dir)
	case opBackref:
		index := n.index
		fold := c.flags&FlagIgnoreCase != 0
		return []instruction{func(vm *machine) {
			vm.pc++
			if !vm.matchesCapture(dir, index, fold) {
				vm.fail()
			}
		}}
	case opLineStart:
		multiline := c.flags&FlagMultiline != 0
		return []instruction{func(vm *machine) {
			vm.pc++
			if !vm.atLineStart(multiline) {
				vm.fail()
			}
		}}
	case opLineEnd:
		multiline := c.flags&FlagMultiline != 0
		return []instruction{func(vm *machine) {
			vm.pc++
			if !vm.atLineEnd(multiline) {
				vm.fail()
			}
		}}
	case opWordBoundary:
		negate := n.negate
		return []instruction{func(vm *machine) {
			vm.pc++
			if vm.atWordBoundary() == negate {
				vm.fail()
			}
		}}
	case opLookbehind:
		return c.compileLookaround(n, directionBackward)
	case opLookahead:
		return c.compileLookaround(n, directionForward)
	}
	panic("retrace: unknown node op")
}

func (c *compiler) compileLiteral(n *node, dir direction) []instruction {
	expected := n.r
	if c.flags&FlagIgnoreCase != 0 {
		return []instruction{func(vm *machine) {
			vm.pc++
			src, moved := vm.moveSP(dir)
			if moved && !equalFold(src, expected) {
				vm.fail()
			}
		}}
	}
	return []instruction{func(vm *machine) {
		vm.pc++
		src, moved := vm.moveSP(dir)
		if moved && src != expected {
			vm.fail()
		}
	}}
}

func (c *compiler) compileCharClass(n *node, dir direction) []instruction {
	set := n.set
	negate := n.negate
	if c.flags&FlagIgnoreCase != 0 {
		return []instruction{func(vm *machine) {
			vm.pc++
			src, moved := vm.moveSP(dir)
			if moved && set.containsFold(src) == negate {
				vm.fail()
			}
		}}
	}
	return []instruction{func(vm *machine) {
		vm.pc++
		src, moved := vm.moveSP(dir)
		if moved && set.containsRune(src) == negate {
			vm.fail()
		}
	}}
}

// Branches are tried left to right; the first one that leads to an overall
// match wins.
func (c *compiler) compileAlternate(n *node, dir direction) []instruction {
	var code []instruction
	var gotos []int
	for i, sub := range n.sub {
		branch := c.compile(sub, dir)
		if i == len(n.sub)-1 {
			code = append(code, branch...)
			break
		}
		nextBranchOffset := len(branch) + 1
		code = append(code, func(vm *machine) {
			vm.pc++
			vm.branch(vm.pc + nextBranchOffset)
		})
		code = append(code, branch...)
		gotos = append(gotos, len(code))
		code = append(code, nil)
	}
	for _, pos := range gotos {
		gotoOffset := len(code) - pos - 1
		code[pos] = func(vm *machine) {
			vm.pc += 1 + gotoOffset
		}
	}
	return code
}

// A capture is committed only when the group is left. The position where
// the group was entered waits on the auxiliary stack until then. In backward
// direction the group is entered at its end, hence the min/max.
func (c *compiler) compileCapture(n *node, dir direction) []instruction {
	index := n.index
	code := []instruction{func(vm *machine) {
		vm.pc++
		vm.aux.push(vm.pos)
	}}
	code = append(code, c.compile(n.sub[0], dir)...)
	return append(code, func(vm *machine) {
		vm.pc++
		entered := vm.aux.pop()
		vm.captures[index] = capture{
			start: min(entered, vm.pos),
			end:   max(entered, vm.pos),
		}
	})
}

func (c *compiler) compileRepeat(n *node, dir direction) []instruction {
	quantMin, quantMax := n.min, n.max
	if quantMax == 0 {
		return nil
	}
	atom := c.compile(n.sub[0], dir)
	var code []instruction

	switch {
	case quantMin == 1:
		code = append(code, atom...)
	case quantMin > 1:
		loopOffset := len(atom) + 1
		code = append(code, func(vm *machine) {
			vm.pc++
			vm.aux.push(quantMin)
		})
		code = append(code, atom...)
		code = append(code, func(vm *machine) {
			vm.pc++
			loopsLeft := vm.aux.top()
			(*loopsLeft)--
			if *loopsLeft == 0 {
				vm.aux.pop()
			} else {
				vm.pc -= loopOffset
			}
		})
	}

	if quantMax != -1 && quantMax == quantMin {
		return code
	}

	extraReps := math.MaxInt
	if quantMax != -1 {
		extraReps = quantMax - quantMin
	}
	loopOffset := len(atom) + 2

	code = append(code, func(vm *machine) {
		vm.pc++
		vm.aux.push(extraReps)
	})
	if n.greedy {
		code = append(code, func(vm *machine) {
			vm.pc++
			vm.branch(vm.pc + loopOffset)
		})
	} else {
		code = append(code, func(vm *machine) {
			vm.pc++
			vm.branch(vm.pc)
			vm.pc += loopOffset
		})
	}
	code = append(code, func(vm *machine) {
		vm.pc++
		vm.aux.push(vm.pos)
	})
	code = append(code, atom...)
	code = append(code, func(vm *machine) {
		vm.pc++

		// A zero-width iteration ends the loop.
		if vm.pos == vm.aux.pop() {
			return
		}

		loopsLeft := vm.aux.top()
		(*loopsLeft)--

		if *loopsLeft != 0 {
			vm.pc -= loopOffset + 1
		}
	})
	return append(code, func(vm *machine) {
		vm.pc++
		vm.aux.pop()
	})
}

// Lookarounds are atomic: once the body has matched, its remaining
// alternatives are dropped.
func (c *compiler) compileLookaround(n *node, dir direction) []instruction {
	body := c.compile(n.sub[0], dir)

	if !n.negate {
		code := []instruction{func(vm *machine) {
			vm.pc++
			vm.aux.push(vm.pos)
			vm.aux.push(len(vm.frames))
		}}
		code = append(code, body...)
		return append(code, func(vm *machine) {
			vm.pc++
			vm.frames = vm.frames[:vm.aux.pop()]
			vm.pos = vm.aux.pop()
		})
	}

	bodySize := len(body)
	code := []instruction{func(vm *machine) {
		vm.pc++
		vm.branch(vm.pc + bodySize + 1)
		vm.aux.push(len(vm.frames) - 1)
	}}
	code = append(code, body...)
	return append(code, func(vm *machine) {
		vm.frames = vm.frames[:vm.aux.pop()]
		vm.fail()
	})
}

package retrace

import (
	"errors"
	"strconv"
)

// ErrStepLimitExceeded is returned when a search executes more VM
// instructions than the pattern's step limit allows. The search is aborted;
// the pattern itself stays usable.
var ErrStepLimitExceeded = errors.New("retrace: step limit exceeded")

// SyntaxError describes a malformed pattern.
type SyntaxError struct {
	// Pos is the byte offset in the pattern where the problem was detected.
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return "retrace: " + e.Msg + " at position " + strconv.Itoa(e.Pos)
}

var _ error = (*SyntaxError)(nil)

func newSyntaxError(pos int, msg string) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: msg}
}

// TemplateError describes a replacement template that references a group
// the pattern does not have.
type TemplateError struct {
	// Pos is the byte offset of the offending reference in the template.
	Pos   int
	Group int
}

func (e *TemplateError) Error() string {
	return "retrace: template references group " + strconv.Itoa(e.Group) +
		" that does not exist (position " + strconv.Itoa(e.Pos) + ")"
}

var _ error = (*TemplateError)(nil)

package asm

import (
	"fmt"
	"strings"

	"fpgrars/internal/token"
)

// Diagnostics collects assembly-time errors: all of them, reported
// with file/line/column, with execution never beginning if any are
// present. The assembler is all-or-nothing, never fail-fast on the
// first error.
type Diagnostics struct {
	Errors []error
}

func (d *Diagnostics) Add(err error) {
	if err != nil {
		d.Errors = append(d.Errors, err)
	}
}

func (d *Diagnostics) HasErrors() bool { return len(d.Errors) > 0 }

func (d *Diagnostics) Error() string {
	lines := make([]string, len(d.Errors))
	for i, e := range d.Errors {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// AsError returns d as an error if it holds any, else nil.
func (d *Diagnostics) AsError() error {
	if d.HasErrors() {
		return d
	}
	return nil
}

// posError is the common shape of every assembly-time diagnostic: a
// source position, a taxonomy tag, and a message.
type posError struct {
	Pos token.Pos
	Tag string
	Msg string
}

func (e *posError) Error() string { return fmt.Sprintf("%s: %s: %s", e.Pos, e.Tag, e.Msg) }

func errAt(pos token.Pos, tag, format string, args ...any) error {
	return &posError{Pos: pos, Tag: tag, Msg: fmt.Sprintf(format, args...)}
}

func errExpectedRegister(pos token.Pos, got string) error {
	return errAt(pos, "ExpectedRegister", "expected a register name, got %q", got)
}

func errExpectedImmediate(pos token.Pos, got string) error {
	return errAt(pos, "ExpectedImmediate", "expected an immediate or label, got %q", got)
}

func errImmediateOutOfRange(pos token.Pos, v int64, width int) error {
	return errAt(pos, "ImmediateOutOfRange", "value %d does not fit in %d bits", v, width)
}

func errUndefinedLabel(pos token.Pos, name string) error {
	return errAt(pos, "UndefinedLabel", "undefined label %q", name)
}

func errDuplicateLabel(pos token.Pos, name string) error {
	return errAt(pos, "DuplicateLabel", "label %q already defined", name)
}

func errBranchOutOfRange(pos token.Pos, name string) error {
	return errAt(pos, "BranchOutOfRange", "branch/jump target %q is out of encodable range", name)
}

func errUnknownInstruction(pos token.Pos, mnemonic string) error {
	return errAt(pos, "UnknownInstruction", "unknown instruction %q", mnemonic)
}

func errUnknownDirective(pos token.Pos, name string) error {
	return errAt(pos, "UnknownDirective", "unknown directive %q", name)
}

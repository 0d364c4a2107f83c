// Package asm implements the assembler pipeline: parsing,
// pseudo-instruction expansion, layout/linking, and decoded-IR
// emission. It produces an immutable Program that internal/vm
// executes.
package asm

import (
	"fpgrars/internal/lexer"
	"fpgrars/internal/token"
)

// Source is one named translation unit passed to Assemble. Name is the
// entry point used for diagnostics and for resolving that source's own
// relative .include directives.
type Source struct {
	Name string
	Text string
}

// Assemble runs the full pipeline over one or more sources and returns
// the linked Program, or the collected diagnostics as an error if any
// stage reported one. Assembly is all-or-nothing: execution never
// begins if any stage reported an error, and every stage keeps running
// after a recoverable one so all of them are reported together.
//
// Multiple sources are concatenated, in order, into one token stream
// sharing a single label namespace and a single data image, so a
// program can span more than one translation unit.
func Assemble(sources []Source, read lexer.FileReader) (*Program, error) {
	diag := &Diagnostics{}

	var toks []token.Token
	for _, src := range sources {
		r := read
		if r == nil {
			r = singleFileReader(src.Name, src.Text)
		}
		ts, err := lexer.Preprocess(src.Name, r)
		if err != nil {
			diag.Add(err)
			continue
		}
		// Each source's stream ends in its own EOF token; strip it (and
		// reinstate the line boundary it stood in for) so the parser
		// sees one continuous program rather than stopping at the first
		// file's end.
		if n := len(ts); n > 0 && ts[n-1].Kind == token.EOF {
			ts[n-1].Kind = token.Newline
		}
		toks = append(toks, ts...)
	}
	toks = append(toks, token.Token{Kind: token.EOF})
	if diag.HasErrors() {
		return nil, diag.AsError()
	}

	pr := Parse(toks, DefaultDataBase, diag)
	if diag.HasErrors() {
		return nil, diag.AsError()
	}

	insts, stmtFirstInst := Expand(pr.TextStmts, diag)
	if diag.HasErrors() {
		return nil, diag.AsError()
	}

	prog := Layout(insts, stmtFirstInst, pr, DefaultTextBase, diag)
	if diag.HasErrors() {
		return nil, diag.AsError()
	}
	prog.DataBase = DefaultDataBase
	return prog, nil
}

// singleFileReader returns a FileReader that only knows about one
// in-memory source, for callers (tests, embedded snippets) that never
// use .include.
func singleFileReader(name, text string) lexer.FileReader {
	return func(path string) (string, error) {
		if path == name {
			return text, nil
		}
		return "", &missingSourceError{path: path}
	}
}

type missingSourceError struct{ path string }

func (e *missingSourceError) Error() string {
	return "asm: source not found: " + e.path
}

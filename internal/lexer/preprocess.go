package lexer

import (
	"fmt"
	"path/filepath"

	"fpgrars/internal/token"
)

// FileReader resolves a source path (relative to the including file)
// to its contents. cmd/fpgrars backs this with os.ReadFile; tests
// back it with an in-memory map.
type FileReader func(path string) (string, error)

// CircularIncludeError reports a .include cycle: cycles fail with
// CircularInclude rather than recursing forever.
type CircularIncludeError struct {
	Cycle []string
}

func (e *CircularIncludeError) Error() string {
	msg := "circular include: "
	for i, f := range e.Cycle {
		if i > 0 {
			msg += " -> "
		}
		msg += f
	}
	return msg
}

// Preprocess tokenizes entry and every file it transitively .includes,
// splicing included token streams in place, then resolves .eqv and
// .macro/.end_macro over the merged stream. The result contains no
// .include, .eqv, or .macro/.end_macro directives, only the directives
// and instructions the parser (internal/asm) understands.
func Preprocess(entry string, read FileReader) ([]token.Token, error) {
	toks, err := spliceIncludes(entry, read, nil)
	if err != nil {
		return nil, err
	}
	toks, err = resolveEqv(toks)
	if err != nil {
		return nil, err
	}
	toks, err = expandMacros(toks)
	if err != nil {
		return nil, err
	}
	return toks, nil
}

func spliceIncludes(path string, read FileReader, stack []string) ([]token.Token, error) {
	for _, p := range stack {
		if p == path {
			return nil, &CircularIncludeError{Cycle: append(append([]string{}, stack...), path)}
		}
	}
	stack = append(stack, path)

	src, err := read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	toks, err := Tokenize(path, src)
	if err != nil {
		return nil, err
	}

	var out []token.Token
	dir := filepath.Dir(path)
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == token.Directive && t.Text == ".include" {
			i++
			if i >= len(toks) || toks[i].Kind != token.Str {
				return nil, &Error{Pos: t.Pos, Msg: "expected string path after .include"}
			}
			incPath := toks[i].Str
			if !filepath.IsAbs(incPath) {
				incPath = filepath.Join(dir, incPath)
			}
			spliced, err := spliceIncludes(incPath, read, stack)
			if err != nil {
				return nil, err
			}
			// Drop the spliced file's trailing EOF; it is not a line
			// boundary in the including file.
			if n := len(spliced); n > 0 && spliced[n-1].Kind == token.EOF {
				spliced = spliced[:n-1]
			}
			out = append(out, spliced...)
			// Skip to end of the .include line.
			for i+1 < len(toks) && toks[i+1].Kind != token.Newline && toks[i+1].Kind != token.EOF {
				i++
			}
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

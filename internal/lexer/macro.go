package lexer

import (
	"fmt"

	"fpgrars/internal/token"
)

// MacroRecursionError reports runaway macro expansion: infinite
// expansion traps with MacroRecursion rather than looping forever.
type MacroRecursionError struct {
	Name string
}

func (e *MacroRecursionError) Error() string {
	return fmt.Sprintf("macro recursion limit exceeded expanding %q", e.Name)
}

// MacroArityMismatchError reports a call whose argument count doesn't
// match any definition of the named macro.
type MacroArityMismatchError struct {
	Pos  token.Pos
	Name string
	Got  int
}

func (e *MacroArityMismatchError) Error() string {
	return fmt.Sprintf("%s: no %d-arity definition of macro %q", e.Pos, e.Got, e.Name)
}

type macroKey struct {
	name  string
	arity int
}

type macroDef struct {
	params []string // %p1, %p2, ...
	body   []token.Token
	labels map[string]bool // labels defined at the top level of body
}

const maxMacroExpansionDepth = 256

// expandMacros captures .macro/.end_macro definitions keyed by
// (name, arity), then inlines invocations with %pN -> argN textual
// substitution and per-invocation alpha-renaming of body-local labels.
func expandMacros(in []token.Token) ([]token.Token, error) {
	defs, body, err := collectMacros(in)
	if err != nil {
		return nil, err
	}
	counter := 0
	return expandBody(body, defs, &counter, 0)
}

// collectMacros strips .macro...end_macro regions out of the stream and
// records their definitions.
func collectMacros(in []token.Token) (map[macroKey]*macroDef, []token.Token, error) {
	defs := map[macroKey]*macroDef{}
	var out []token.Token

	for i := 0; i < len(in); i++ {
		t := in[i]
		if t.Kind == token.Directive && t.Text == ".macro" {
			i++
			if i >= len(in) || in[i].Kind != token.Ident {
				return nil, nil, &Error{Pos: t.Pos, Msg: "expected macro name after .macro"}
			}
			name := in[i].Text
			i++
			var params []string
			if i < len(in) && in[i].Kind == token.LParen {
				i++
				for i < len(in) && in[i].Kind != token.RParen {
					if in[i].Kind == token.Ident {
						params = append(params, in[i].Text)
					}
					i++
				}
				if i >= len(in) {
					return nil, nil, &Error{Pos: t.Pos, Msg: "unterminated macro parameter list"}
				}
				i++ // consume RParen
			}
			// skip to end of .macro line
			for i < len(in) && in[i].Kind != token.Newline {
				i++
			}
			var bodyToks []token.Token
			closed := false
			for i < len(in) {
				if in[i].Kind == token.Directive && in[i].Text == ".end_macro" {
					closed = true
					break
				}
				bodyToks = append(bodyToks, in[i])
				i++
			}
			if !closed {
				return nil, nil, &Error{Pos: t.Pos, Msg: fmt.Sprintf("unterminated macro %q (missing .end_macro)", name)}
			}
			defs[macroKey{name: name, arity: len(params)}] = &macroDef{
				params: params,
				body:   bodyToks,
				labels: localLabels(bodyToks),
			}
			continue
		}
		out = append(out, t)
	}
	return defs, out, nil
}

// localLabels finds label definitions ("name:") anywhere in a macro
// body; inlineMacro renames every one of them (and every reference to
// them inside the body) per expansion, so they are local to each
// expansion.
func localLabels(body []token.Token) map[string]bool {
	labels := map[string]bool{}
	for i := 0; i+1 < len(body); i++ {
		if body[i].Kind == token.Ident && body[i+1].Kind == token.Colon {
			labels[body[i].Text] = true
		}
	}
	return labels
}

// expandBody scans toks for macro invocations (NAME or NAME(args...))
// and inlines them, recursing into the result to handle nested/chained
// invocations up to maxMacroExpansionDepth.
func expandBody(toks []token.Token, defs map[macroKey]*macroDef, counter *int, depth int) ([]token.Token, error) {
	if depth > maxMacroExpansionDepth {
		return nil, &MacroRecursionError{Name: "<unknown>"}
	}

	macroNames := map[string]bool{}
	for k := range defs {
		macroNames[k.name] = true
	}

	var out []token.Token
	expandedAny := false

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != token.Ident {
			out = append(out, t)
			continue
		}
		// A label definition sharing a macro's name is not a call.
		if i+1 < len(toks) && toks[i+1].Kind == token.Colon {
			out = append(out, t)
			continue
		}
		// Only treat as an invocation if some arity of this name is
		// defined; otherwise it's an ordinary mnemonic/label/register.
		var args [][]token.Token
		next := i + 1
		if next < len(toks) && toks[next].Kind == token.LParen {
			j := next + 1
			var cur []token.Token
			depthParen := 1
			for j < len(toks) && depthParen > 0 {
				switch toks[j].Kind {
				case token.LParen:
					depthParen++
					cur = append(cur, toks[j])
				case token.RParen:
					depthParen--
					if depthParen == 0 {
						break
					}
					cur = append(cur, toks[j])
				case token.Comma:
					if depthParen == 1 {
						args = append(args, cur)
						cur = nil
					} else {
						cur = append(cur, toks[j])
					}
				default:
					cur = append(cur, toks[j])
				}
				j++
			}
			if len(cur) > 0 || len(args) > 0 {
				args = append(args, cur)
			}
			if depthParen != 0 {
				return nil, &Error{Pos: t.Pos, Msg: "unterminated macro argument list"}
			}
			key := macroKey{name: t.Text, arity: len(args)}
			if def, ok := defs[key]; ok {
				expandedAny = true
				inlined, err := inlineMacro(t, def, args, counter)
				if err != nil {
					return nil, err
				}
				out = append(out, inlined...)
				i = j - 1
				continue
			}
			if macroNames[t.Text] {
				// The name is a macro, just not at this arity.
				return nil, &MacroArityMismatchError{Pos: t.Pos, Name: t.Text, Got: len(args)}
			}
			// Not a macro call; fall through to treat '(' normally.
		} else {
			key := macroKey{name: t.Text, arity: 0}
			if def, ok := defs[key]; ok {
				expandedAny = true
				inlined, err := inlineMacro(t, def, nil, counter)
				if err != nil {
					return nil, err
				}
				out = append(out, inlined...)
				continue
			}
		}
		out = append(out, t)
	}

	if !expandedAny {
		return out, nil
	}
	return expandBody(out, defs, counter, depth+1)
}

func inlineMacro(call token.Token, def *macroDef, args [][]token.Token, counter *int) ([]token.Token, error) {
	if len(args) != len(def.params) {
		return nil, &MacroArityMismatchError{Pos: call.Pos, Name: call.Text, Got: len(args)}
	}
	*counter++
	suffix := fmt.Sprintf("__m%d", *counter)

	argFor := map[string][]token.Token{}
	for i, p := range def.params {
		argFor[p] = args[i]
	}

	var out []token.Token
	for _, bt := range def.body {
		if bt.Kind == token.Ident {
			if arg, ok := argFor[bt.Text]; ok {
				for _, a := range arg {
					c := a
					c.Pos = call.Pos
					out = append(out, c)
				}
				continue
			}
			if def.labels[bt.Text] {
				c := bt
				c.Text = bt.Text + suffix
				c.Pos = call.Pos
				out = append(out, c)
				continue
			}
		}
		c := bt
		c.Pos = call.Pos
		out = append(out, c)
	}
	return out, nil
}

package lexer

import "fpgrars/internal/token"

// resolveEqv performs .eqv's textual-substitution transform: .eqv NAME
// value substitutes NAME with value in subsequent tokens of the same
// translation unit. value may span multiple tokens (up to the end of
// the .eqv line); substitution is one-shot, not recursive: a
// substituted value is not itself re-scanned for further .eqv names,
// matching a single textual-replacement pass.
func resolveEqv(in []token.Token) ([]token.Token, error) {
	table := map[string][]token.Token{}
	var out []token.Token

	for i := 0; i < len(in); i++ {
		t := in[i]
		if t.Kind == token.Directive && t.Text == ".eqv" {
			i++
			if i >= len(in) || in[i].Kind != token.Ident {
				return nil, &Error{Pos: t.Pos, Msg: "expected name after .eqv"}
			}
			name := in[i].Text
			i++
			var value []token.Token
			for i < len(in) && in[i].Kind != token.Newline && in[i].Kind != token.EOF {
				value = append(value, in[i])
				i++
			}
			i-- // the outer loop's i++ will land on the newline/EOF
			table[name] = value
			continue
		}
		if t.Kind == token.Ident {
			if sub, ok := table[t.Text]; ok {
				for _, s := range sub {
					c := s
					c.Pos = t.Pos
					out = append(out, c)
				}
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

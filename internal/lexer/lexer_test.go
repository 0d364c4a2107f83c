package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpgrars/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	var ks []token.Kind
	for _, t := range toks {
		ks = append(ks, t.Kind)
	}
	return ks
}

func TestTokenizeBasic(t *testing.T) {
	toks, err := Tokenize("t.s", "li a0, 0x10 # comment\n")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{
		token.Ident, token.Ident, token.Comma, token.Int, token.Newline, token.EOF,
	}, kinds(toks))
	assert.Equal(t, int64(0x10), toks[3].IntVal)
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize("t.s", `.string "Hello\n"`+"\n")
	require.NoError(t, err)
	require.Equal(t, token.Str, toks[1].Kind)
	assert.Equal(t, "Hello\n", toks[1].Str)
}

func TestTokenizeCharLiteral(t *testing.T) {
	toks, err := Tokenize("t.s", "li a0, '\\n'\n")
	require.NoError(t, err)
	assert.Equal(t, int64('\n'), toks[3].IntVal)
}

func TestTokenizeBinary(t *testing.T) {
	toks, err := Tokenize("t.s", "li a0, 0b1010\n")
	require.NoError(t, err)
	assert.Equal(t, int64(10), toks[3].IntVal)
}

func TestTokenizeLabel(t *testing.T) {
	toks, err := Tokenize("t.s", "loop:\n  j loop\n")
	require.NoError(t, err)
	assert.Equal(t, token.Ident, toks[0].Kind)
	assert.Equal(t, token.Colon, toks[1].Kind)
}

func TestPreprocessInclude(t *testing.T) {
	files := map[string]string{
		"main.s": ".include \"lib.s\"\nli a0, 1\n",
		"lib.s":  "li a1, 2\n",
	}
	toks, err := Preprocess("main.s", func(p string) (string, error) { return files[p], nil })
	require.NoError(t, err)
	var idents []string
	for _, tk := range toks {
		if tk.Kind == token.Ident {
			idents = append(idents, tk.Text)
		}
	}
	assert.Equal(t, []string{"li", "a1", "li", "a0"}, idents)
}

func TestPreprocessIncludeCycle(t *testing.T) {
	files := map[string]string{
		"a.s": ".include \"b.s\"\n",
		"b.s": ".include \"a.s\"\n",
	}
	_, err := Preprocess("a.s", func(p string) (string, error) { return files[p], nil })
	require.Error(t, err)
	var cycleErr *CircularIncludeError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestEqvSubstitution(t *testing.T) {
	toks, err := Tokenize("t.s", ".eqv LIMIT 100\nli a0, LIMIT\n")
	require.NoError(t, err)
	out, err := resolveEqv(toks)
	require.NoError(t, err)
	var ints []int64
	for _, tk := range out {
		if tk.Kind == token.Int {
			ints = append(ints, tk.IntVal)
		}
	}
	assert.Equal(t, []int64{100}, ints)
}

func TestMacroExpansionZeroArity(t *testing.T) {
	toks, err := Tokenize("t.s", ".macro PUSH_A0\naddi sp, sp, -4\nsw a0, 0(sp)\n.end_macro\nPUSH_A0\n")
	require.NoError(t, err)
	out, err := expandMacros(toks)
	require.NoError(t, err)
	var idents []string
	for _, tk := range out {
		if tk.Kind == token.Ident {
			idents = append(idents, tk.Text)
		}
	}
	assert.Equal(t, []string{"addi", "sp", "sp", "sw", "a0", "sp"}, idents)
}

func TestMacroExpansionWithArgsAndLocalLabel(t *testing.T) {
	src := ".macro REPEAT(%n)\nloop:\naddi %n, %n, -1\nbnez %n, loop\n.end_macro\nREPEAT(t0)\nREPEAT(t1)\n"
	toks, err := Tokenize("t.s", src)
	require.NoError(t, err)
	out, err := expandMacros(toks)
	require.NoError(t, err)
	var labels []string
	for i := 0; i+1 < len(out); i++ {
		if out[i].Kind == token.Ident && out[i+1].Kind == token.Colon {
			labels = append(labels, out[i].Text)
		}
	}
	require.Len(t, labels, 2)
	assert.NotEqual(t, labels[0], labels[1], "each expansion must get a unique local label")
}

func TestMacroArityMismatch(t *testing.T) {
	src := ".macro ADD2(%a, %b)\nadd %a, %a, %b\n.end_macro\nADD2(t0)\n"
	toks, err := Tokenize("t.s", src)
	require.NoError(t, err)
	_, err = expandMacros(toks)
	require.Error(t, err)
	var mismatch *MacroArityMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

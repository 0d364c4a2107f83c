package asm

import (
	"encoding/binary"

	"fpgrars/internal/token"
)

// ParseResult is the parser's output: a data image with its labels
// already resolved (data layout is static, so data-label addresses never
// change after parsing), and an ordered list of text-section
// instruction statements with that label table giving each instruction
// index (not yet an address, since pseudo-expansion can grow a single
// line into more than one concrete instruction) any label defined on it.
type ParseResult struct {
	Data         []byte
	DataLabels   map[string]uint32
	TextStmts    []Stmt
	TextLabelIdx map[string]int // label -> index into TextStmts
}

type section int

const (
	sectData section = iota
	sectText
)

type parser struct {
	toks []token.Token
	pos  int
	diag *Diagnostics

	section  section
	dataBase uint32

	data       []byte
	dataLabels map[string]uint32
	textStmts  []Stmt
	textLabels map[string]int
	allLabels  map[string]bool // across both sections, for DuplicateLabel detection
}

// Parse turns a preprocessed token stream into a ParseResult. Syntax
// errors are collected into diag and do not stop parsing; the parser
// keeps going so all parse errors in a source get reported together.
func Parse(toks []token.Token, dataBase uint32, diag *Diagnostics) *ParseResult {
	p := &parser{
		toks:       toks,
		diag:       diag,
		section:    sectText,
		dataBase:   dataBase,
		dataLabels: map[string]uint32{},
		textLabels: map[string]int{},
		allLabels:  map[string]bool{},
	}
	p.run()
	return &ParseResult{
		Data:         p.data,
		DataLabels:   p.dataLabels,
		TextStmts:    p.textStmts,
		TextLabelIdx: p.textLabels,
	}
}

func (p *parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) skipLine() {
	for p.cur().Kind != token.Newline && p.cur().Kind != token.EOF {
		p.advance()
	}
	if p.cur().Kind == token.Newline {
		p.advance()
	}
}

func (p *parser) run() {
	for p.cur().Kind != token.EOF {
		switch p.cur().Kind {
		case token.Newline:
			p.advance()
		case token.Directive:
			p.parseDirectiveLine()
		case token.Ident:
			p.parseLabelOrInstruction()
		default:
			p.diag.Add(errAt(p.cur().Pos, "UnknownDirective", "unexpected token %q", p.cur().String()))
			p.skipLine()
		}
	}
}

func (p *parser) defineLabel(name string, pos token.Pos) {
	if p.allLabels[name] {
		p.diag.Add(errDuplicateLabel(pos, name))
		return
	}
	p.allLabels[name] = true
	if p.section == sectData {
		p.dataLabels[name] = p.dataBase + uint32(len(p.data))
	} else {
		p.textLabels[name] = len(p.textStmts)
	}
}

func (p *parser) parseLabelOrInstruction() {
	name := p.cur().Text
	pos := p.cur().Pos
	if p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.Colon {
		p.advance() // ident
		p.advance() // colon
		p.defineLabel(name, pos)
		return
	}
	p.parseInstruction()
}

func (p *parser) parseInstruction() {
	mnemonic := p.advance().Text
	pos := p.toks[p.pos-1].Pos
	var ops []Operand
	for p.cur().Kind != token.Newline && p.cur().Kind != token.EOF {
		op, ok := p.parseOperand()
		if !ok {
			p.skipLine()
			return
		}
		ops = append(ops, op)
		if p.cur().Kind == token.Comma {
			p.advance()
		} else {
			break
		}
	}
	if p.section == sectText {
		p.textStmts = append(p.textStmts, Stmt{Mnemonic: mnemonic, Operands: ops, Pos: pos})
	} else {
		p.diag.Add(errAt(pos, "UnknownInstruction", "instruction %q outside .text", mnemonic))
	}
	p.skipLine()
}

// parseOperand parses one of: reg, freg, imm, label, imm(reg), label(reg),
// (reg).
func (p *parser) parseOperand() (Operand, bool) {
	t := p.cur()
	switch t.Kind {
	case token.Int:
		p.advance()
		if p.cur().Kind == token.LParen {
			return p.parseMem(t.IntVal, "", false, t.Pos)
		}
		return Operand{Kind: OperandImm, Imm: t.IntVal, Pos: t.Pos}, true
	case token.Ident:
		if r, ok := IntReg(t.Text); ok {
			p.advance()
			return Operand{Kind: OperandReg, Reg: r, Pos: t.Pos}, true
		}
		if r, ok := FloatReg(t.Text); ok {
			p.advance()
			return Operand{Kind: OperandFReg, Reg: r, Pos: t.Pos}, true
		}
		// A bare identifier that isn't a register is a label reference.
		p.advance()
		if p.cur().Kind == token.LParen {
			return p.parseMem(0, t.Text, true, t.Pos)
		}
		return Operand{Kind: OperandLabel, Label: t.Text, Pos: t.Pos}, true
	case token.LParen:
		// (reg) with no offset: the immediate defaults to 0.
		return p.parseMem(0, "", false, t.Pos)
	default:
		p.diag.Add(errExpectedImmediate(t.Pos, t.String()))
		return Operand{}, false
	}
}

func (p *parser) parseMem(imm int64, label string, hasLabel bool, pos token.Pos) (Operand, bool) {
	p.advance() // '('
	rt := p.cur()
	if rt.Kind != token.Ident {
		p.diag.Add(errExpectedRegister(rt.Pos, rt.String()))
		return Operand{}, false
	}
	reg, ok := IntReg(rt.Text)
	if !ok {
		p.diag.Add(errExpectedRegister(rt.Pos, rt.Text))
		return Operand{}, false
	}
	p.advance()
	if p.cur().Kind != token.RParen {
		p.diag.Add(errAt(p.cur().Pos, "ExpectedRegister", "expected ')'"))
		return Operand{}, false
	}
	p.advance()
	return Operand{Kind: OperandMem, Imm: imm, Label: label, HasLabel: hasLabel, MemReg: reg, Pos: pos}, true
}

func (p *parser) parseDirectiveLine() {
	d := p.cur().Text
	pos := p.cur().Pos
	p.advance()
	switch d {
	case ".data":
		p.section = sectData
	case ".text":
		p.section = sectText
	case ".global", ".globl":
		// Accepted, no effect: fpgrars has no separate linking step that
		// visibility annotations would influence.
	case ".word":
		p.parseDataList(4)
	case ".half":
		p.parseDataList(2)
	case ".byte":
		p.parseDataList(1)
	case ".string", ".asciz":
		p.parseStringDirective(true)
	case ".ascii":
		p.parseStringDirective(false)
	case ".space":
		p.parseSpace()
	case ".align":
		p.parseAlign()
	default:
		p.diag.Add(errUnknownDirective(pos, d))
	}
	p.skipLine()
}

func (p *parser) parseDataList(width int) {
	for p.cur().Kind != token.Newline && p.cur().Kind != token.EOF {
		t := p.cur()
		if t.Kind != token.Int {
			p.diag.Add(errExpectedImmediate(t.Pos, t.String()))
			return
		}
		p.advance()
		buf := make([]byte, width)
		switch width {
		case 1:
			buf[0] = byte(t.IntVal)
		case 2:
			binary.LittleEndian.PutUint16(buf, uint16(t.IntVal))
		case 4:
			binary.LittleEndian.PutUint32(buf, uint32(t.IntVal))
		}
		p.data = append(p.data, buf...)
		if p.cur().Kind == token.Comma {
			p.advance()
		} else {
			break
		}
	}
}

// parseStringDirective implements .string/.asciz (NUL-terminated) and
// .ascii (not NUL-terminated). Multiple string literals on one line are
// concatenated with a single trailing NUL.
func (p *parser) parseStringDirective(nulTerminate bool) {
	var content []byte
	for p.cur().Kind == token.Str {
		content = append(content, []byte(p.cur().Str)...)
		p.advance()
		if p.cur().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	if nulTerminate {
		content = append(content, 0)
	}
	p.data = append(p.data, content...)
}

func (p *parser) parseSpace() {
	t := p.cur()
	if t.Kind != token.Int {
		p.diag.Add(errExpectedImmediate(t.Pos, t.String()))
		return
	}
	p.advance()
	p.data = append(p.data, make([]byte, t.IntVal)...)
}

func (p *parser) parseAlign() {
	t := p.cur()
	if t.Kind != token.Int {
		p.diag.Add(errExpectedImmediate(t.Pos, t.String()))
		return
	}
	p.advance()
	boundary := int64(1) << uint(t.IntVal)
	cur := int64(len(p.data))
	rem := cur % boundary
	if rem != 0 {
		p.data = append(p.data, make([]byte, boundary-rem)...)
	}
}

package formula

import (
	"strconv"
	"strings"

	"github.com/adnsv/xlpatch/model"
)

// Parse parses a formula's text (without a leading '=') into an expression
// tree. Grammar, precedence low to high: comparison; concatenation '&';
// additive; multiplicative; exponent; unary (prefix +/-, postfix %);
// primary.
func Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &EmptyInputError{}
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, &UnexpectedTokenError{Text: p.cur().text, Pos: p.cur().pos}
	}
	return expr, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance()    { p.pos++ }
func (p *parser) peekIs(k tokenKind, text string) bool {
	t := p.cur()
	return t.kind == k && (text == "" || t.text == text)
}

func (p *parser) parseComparison() (Expr, error) {
	x, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && isComparisonOp(p.cur().text) {
		op := BinaryOp(p.cur().text)
		p.advance()
		y, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		x = BinaryExpr{Op: op, X: x, Y: y}
	}
	return x, nil
}

func isComparisonOp(s string) bool {
	switch s {
	case "=", "<>", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func (p *parser) parseConcat() (Expr, error) {
	x, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peekIs(tokOp, "&") {
		p.advance()
		y, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		x = BinaryExpr{Op: OpCat, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	x, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "+" || p.cur().text == "-") {
		op := BinaryOp(p.cur().text)
		p.advance()
		y, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		x = BinaryExpr{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	x, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "*" || p.cur().text == "/") {
		op := BinaryOp(p.cur().text)
		p.advance()
		y, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		x = BinaryExpr{Op: op, X: x, Y: y}
	}
	return x, nil
}

// parseExponent is right-associative over unary-expression operands, per
// the grammar placing unary above exponent in precedence.
func (p *parser) parseExponent() (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peekIs(tokOp, "^") {
		p.advance()
		y, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpPow, X: x, Y: y}, nil
	}
	return x, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur().kind == tokOp && (p.cur().text == "+" || p.cur().text == "-") {
		op := UnaryOp(p.cur().text[0])
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: op, X: x}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peekIs(tokOp, "%") {
		p.advance()
		x = UnaryExpr{Op: UnaryPercent, X: x}
	}
	return x, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokNumber:
		p.advance()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &UnexpectedTokenError{Text: t.text, Pos: t.pos}
		}
		return NumberLit{Value: v}, nil
	case tokString:
		p.advance()
		return StringLit{Value: t.text}, nil
	case tokBool:
		p.advance()
		return BoolLit{Value: t.text == "TRUE"}, nil
	case tokErrorLit:
		p.advance()
		return ErrorLit{Kind_: model.ErrorKind(t.text)}, nil
	case tokRef:
		p.advance()
		return parseRefToken(t)
	case tokLParen:
		p.advance()
		x, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, &UnbalancedParensError{Reason: "expected ')'", Pos: p.cur().pos}
		}
		p.advance()
		return x, nil
	case tokIdent:
		name := t.text
		p.advance()
		if p.cur().kind != tokLParen {
			// Bare identifier not followed by '(': a defined-name reference atom,
			// resolved against the workbook at evaluation time.
			return NameRef{Name: name}, nil
		}
		p.advance() // consume '('
		var args []Expr
		if p.cur().kind != tokRParen {
			for {
				arg, err := p.parseComparison()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.cur().kind == tokComma {
					p.advance()
					continue
				}
				break
			}
		}
		if p.cur().kind != tokRParen {
			return nil, &UnbalancedParensError{Reason: "expected ')' to close call to " + name, Pos: p.cur().pos}
		}
		p.advance()
		spec, ok := functionRegistry[strings.ToUpper(name)]
		if !ok {
			return nil, &UnknownFunctionError{Name: name, Pos: t.pos, Suggestions: suggestFunctionNames(strings.ToUpper(name))}
		}
		if len(args) < spec.minArgs || (spec.maxArgs >= 0 && len(args) > spec.maxArgs) {
			return nil, &UnexpectedTokenError{Text: name, Pos: t.pos}
		}
		return CallExpr{Name: strings.ToUpper(name), Args: args}, nil
	case tokEOF:
		return nil, &UnexpectedTokenError{Text: "<eof>", Pos: t.pos}
	default:
		return nil, &UnexpectedTokenError{Text: t.text, Pos: t.pos}
	}
}

// parseRefToken decodes a tokRef's raw text (already validated as
// reference-shaped by the lexer) into a RefExpr, resolving sheet
// qualification, 3-D sheet spans, per-corner anchors, and range vs. single
// cell.
func parseRefToken(t token) (Expr, error) {
	s := t.text
	sheet, sheet2, hasSheet, rest, err := splitRefSheet(s, t.pos)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(rest, ":", 2)
	c1, err := parseAnchoredCellRef(parts[0], t.pos)
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return RefExpr{HasSheet: hasSheet, Sheet: sheet, Sheet2: sheet2, Cell: c1}, nil
	}
	c2, err := parseAnchoredCellRef(parts[1], t.pos)
	if err != nil {
		return nil, err
	}
	start, end := normalizeCellRefPair(c1, c2)
	return RefExpr{IsRange: true, HasSheet: hasSheet, Sheet: sheet, Sheet2: sheet2, Start: start, End: end}, nil
}

func splitRefSheet(s string, pos int) (sheet, sheet2 string, hasSheet bool, rest string, err error) {
	if strings.HasPrefix(s, "'") {
		i := 1
		var sb strings.Builder
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				break
			}
			sb.WriteByte(s[i])
			i++
		}
		i++ // closing quote
		i++ // '!'
		return sb.String(), sb.String(), true, s[i:], nil
	}
	if i := strings.Index(s, "!"); i >= 0 {
		sheetPart := s[:i]
		sheet, sheet2 = sheetPart, sheetPart
		if j := strings.Index(sheetPart, ":"); j >= 0 {
			sheet, sheet2 = sheetPart[:j], sheetPart[j+1:]
		}
		return sheet, sheet2, true, s[i+1:], nil
	}
	return "", "", false, s, nil
}

func parseAnchoredCellRef(s string, pos int) (CellRef, error) {
	ref, colAbs, rowAbs, err := model.ParseAnchoredARef(s)
	if err != nil {
		return CellRef{}, &InvalidRefError{Text: s, Pos: pos, Reason: "malformed cell reference"}
	}
	return CellRef{Col: ref.Col, ColAbs: colAbs, Row: ref.Row, RowAbs: rowAbs}, nil
}

func normalizeCellRefPair(a, b CellRef) (start, end CellRef) {
	start = CellRef{
		Col: minCol(a.Col, b.Col), ColAbs: a.ColAbs,
		Row: minRow(a.Row, b.Row), RowAbs: a.RowAbs,
	}
	end = CellRef{
		Col: maxCol(a.Col, b.Col), ColAbs: b.ColAbs,
		Row: maxRow(a.Row, b.Row), RowAbs: b.RowAbs,
	}
	return
}

func minCol(a, b model.Column) model.Column {
	if a < b {
		return a
	}
	return b
}
func maxCol(a, b model.Column) model.Column {
	if a > b {
		return a
	}
	return b
}
func minRow(a, b model.Row) model.Row {
	if a < b {
		return a
	}
	return b
}
func maxRow(a, b model.Row) model.Row {
	if a > b {
		return a
	}
	return b
}

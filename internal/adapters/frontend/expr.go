package frontend

import (
	"errors"
	"strings"

	"go.trai.ch/recon/internal/core/domain"
)

// errUnsupported marks expression syntax the renderer passes through verbatim.
var errUnsupported = errors.New("unsupported expression")

type expr interface {
	first() domain.Token
}

type (
	atomExpr struct {
		tok domain.Token
	}
	attrExpr struct {
		x    expr
		name domain.Token
	}
	callExpr struct {
		fn   expr
		args []expr
	}
	kwargExpr struct {
		name  domain.Token
		value expr
	}
	indexExpr struct {
		x     expr
		index expr
	}
	unaryExpr struct {
		op domain.Token
		x  expr
	}
	binaryExpr struct {
		op   string
		x, y expr
	}
	parenExpr struct {
		open domain.Token
		x    expr
	}
	// collectionExpr is a list, tuple, set or dict display.
	collectionExpr struct {
		open  domain.Token
		close string
		elems []expr
		// tuple is set for a parenthesized display with a comma.
		tuple bool
	}
	pairExpr struct {
		key, value expr
	}
)

func (e *atomExpr) first() domain.Token       { return e.tok }
func (e *attrExpr) first() domain.Token       { return e.x.first() }
func (e *callExpr) first() domain.Token       { return e.fn.first() }
func (e *kwargExpr) first() domain.Token      { return e.name }
func (e *indexExpr) first() domain.Token      { return e.x.first() }
func (e *unaryExpr) first() domain.Token      { return e.op }
func (e *binaryExpr) first() domain.Token     { return e.x.first() }
func (e *parenExpr) first() domain.Token      { return e.open }
func (e *collectionExpr) first() domain.Token { return e.open }
func (e *pairExpr) first() domain.Token       { return e.key.first() }

// Binding powers, loosest first.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precUnary
	precPower
)

var binaryPrec = map[string]int{
	"or": precOr, "and": precAnd,
	"<": precCompare, ">": precCompare, "==": precCompare, "!=": precCompare,
	"<=": precCompare, ">=": precCompare, "in": precCompare, "is": precCompare,
	"|": precBitOr, "^": precBitXor, "&": precBitAnd,
	"<<": precShift, ">>": precShift,
	"+": precAdd, "-": precAdd,
	"*": precMul, "/": precMul, "//": precMul, "%": precMul, "@": precMul,
	"**": precPower,
}

// parseExpr parses a complete token span as one expression.
func parseExpr(toks []domain.Token) (expr, error) {
	if len(toks) == 0 {
		return nil, errUnsupported
	}
	ep := &exprParser{toks: toks}
	e, err := ep.binary(precOr)
	if err != nil {
		return nil, err
	}
	if ep.i != len(toks) {
		return nil, errUnsupported
	}
	return e, nil
}

type exprParser struct {
	toks []domain.Token
	i    int
}

func (ep *exprParser) peek() domain.Token {
	if ep.i >= len(ep.toks) {
		return domain.Token{Kind: domain.TokenEOF}
	}
	return ep.toks[ep.i]
}

func (ep *exprParser) next() domain.Token {
	t := ep.peek()
	ep.i++
	return t
}

// operator returns the binary operator at the cursor and how many tokens it
// spans, folding `not in` and `is not`.
func (ep *exprParser) operator() (string, int) {
	t := ep.peek()
	if t.Kind != domain.TokenOp && t.Kind != domain.TokenName {
		return "", 0
	}
	if t.Is("not") && ep.i+1 < len(ep.toks) && ep.toks[ep.i+1].Is("in") {
		return "not in", 2
	}
	if t.Is("is") && ep.i+1 < len(ep.toks) && ep.toks[ep.i+1].Is("not") {
		return "is not", 2
	}
	if _, ok := binaryPrec[t.Text]; ok {
		return t.Text, 1
	}
	return "", 0
}

func precOf(op string) int {
	switch op {
	case "not in", "is not":
		return precCompare
	default:
		return binaryPrec[op]
	}
}

func (ep *exprParser) binary(minPrec int) (expr, error) {
	x, err := ep.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, width := ep.operator()
		prec := precOf(op)
		if width == 0 || prec < minPrec {
			return x, nil
		}
		ep.i += width

		// ** is right-associative; everything else is left-associative.
		nextMin := prec + 1
		if op == "**" {
			nextMin = prec
		}
		y, err := ep.binary(nextMin)
		if err != nil {
			return nil, err
		}
		x = &binaryExpr{op: op, x: x, y: y}
	}
}

func (ep *exprParser) unary() (expr, error) {
	t := ep.peek()
	switch {
	case t.Is("not"):
		ep.next()
		x, err := ep.binary(precNot)
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: t, x: x}, nil
	case t.Is("-") || t.Is("+") || t.Is("~"):
		ep.next()
		x, err := ep.binary(precUnary)
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: t, x: x}, nil
	}
	return ep.postfix()
}

func (ep *exprParser) postfix() (expr, error) {
	x, err := ep.primary()
	if err != nil {
		return nil, err
	}
	for {
		t := ep.peek()
		switch {
		case t.Is("."):
			ep.next()
			name := ep.next()
			if name.Kind != domain.TokenName {
				return nil, errUnsupported
			}
			x = &attrExpr{x: x, name: name}
		case t.Is("("):
			ep.next()
			args, err := ep.list(")", true)
			if err != nil {
				return nil, err
			}
			x = &callExpr{fn: x, args: args}
		case t.Is("["):
			ep.next()
			index, err := ep.binary(precOr)
			if err != nil {
				return nil, err
			}
			if !ep.next().Is("]") {
				return nil, errUnsupported
			}
			x = &indexExpr{x: x, index: index}
		default:
			return x, nil
		}
	}
}

func (ep *exprParser) primary() (expr, error) {
	t := ep.next()
	switch t.Kind {
	case domain.TokenName:
		if isReserved(t.Text) {
			return nil, errUnsupported
		}
		return &atomExpr{tok: t}, nil
	case domain.TokenInt, domain.TokenFloat, domain.TokenString:
		return &atomExpr{tok: t}, nil
	case domain.TokenOp:
		switch t.Text {
		case "(":
			return ep.paren(t)
		case "[":
			elems, err := ep.list("]", false)
			if err != nil {
				return nil, err
			}
			return &collectionExpr{open: t, close: "]", elems: elems}, nil
		case "{":
			elems, err := ep.list("}", false)
			if err != nil {
				return nil, err
			}
			return &collectionExpr{open: t, close: "}", elems: elems}, nil
		}
	}
	return nil, errUnsupported
}

func (ep *exprParser) paren(open domain.Token) (expr, error) {
	if ep.peek().Is(")") {
		ep.next()
		return &collectionExpr{open: open, close: ")", tuple: true}, nil
	}
	x, err := ep.binary(precOr)
	if err != nil {
		return nil, err
	}
	if ep.peek().Is(")") {
		ep.next()
		return &parenExpr{open: open, x: x}, nil
	}
	if !ep.peek().Is(",") {
		return nil, errUnsupported
	}
	ep.next()
	rest, err := ep.list(")", false)
	if err != nil {
		return nil, err
	}
	return &collectionExpr{open: open, close: ")", elems: append([]expr{x}, rest...), tuple: true}, nil
}

// list parses comma-separated elements up to closer. Calls accept keyword
// arguments; displays accept dict pairs.
func (ep *exprParser) list(closer string, call bool) ([]expr, error) {
	var elems []expr
	for {
		if ep.peek().Is(closer) {
			ep.next()
			return elems, nil
		}

		var elem expr
		if t := ep.peek(); call && t.Kind == domain.TokenName && ep.i+1 < len(ep.toks) && ep.toks[ep.i+1].Is("=") {
			ep.i += 2
			value, err := ep.binary(precOr)
			if err != nil {
				return nil, err
			}
			elem = &kwargExpr{name: t, value: value}
		} else {
			x, err := ep.binary(precOr)
			if err != nil {
				return nil, err
			}
			elem = x
			if !call && ep.peek().Is(":") {
				ep.next()
				value, err := ep.binary(precOr)
				if err != nil {
					return nil, err
				}
				elem = &pairExpr{key: x, value: value}
			}
		}
		elems = append(elems, elem)

		switch t := ep.next(); {
		case t.Is(","):
		case t.Is(closer):
			return elems, nil
		default:
			return nil, errUnsupported
		}
	}
}

func isReserved(word string) bool {
	switch word {
	case "lambda", "for", "if", "else", "yield", "await", "async":
		return true
	default:
		return false
	}
}

// rawText joins a token span, keeping the spacing of the source line.
func rawText(toks []domain.Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			prev := toks[i-1]
			switch {
			case prev.End.Line != t.Start.Line:
				b.WriteByte(' ')
			case t.Start.Col > prev.End.Col:
				b.WriteString(strings.Repeat(" ", t.Start.Col-prev.End.Col))
			}
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

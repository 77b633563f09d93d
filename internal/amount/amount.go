// Package amount parses user-supplied monetary input into signed decimal
// values. Input may contain currency symbols, grouping separators, or a
// simple arithmetic expression. Anything else is rejected.
package amount

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidFormat  = errors.New("the amount is not a valid number or arithmetic expression")
	ErrOutOfBounds    = errors.New("the amount is outside the allowed bounds")
	ErrDivisionByZero = errors.New("the amount expression divides by zero")
)

// Parse turns the input into a signed decimal amount.
//
// Currency symbols and grouping separators are stripped before
// interpretation. If the remaining string contains an arithmetic operator,
// it is evaluated as a pure numeric expression over + - * / and parentheses.
// Identifiers, function calls and any other characters fail with
// ErrInvalidFormat. Results with an absolute value above maxAbs fail with
// ErrOutOfBounds.
func Parse(input string, maxAbs decimal.Decimal) (decimal.Decimal, error) {
	cleaned := sanitize(input)
	if cleaned == "" {
		return decimal.Zero, ErrInvalidFormat
	}

	for _, r := range cleaned {
		if !strings.ContainsRune("0123456789.+-*/() \t", r) {
			return decimal.Zero, ErrInvalidFormat
		}
	}

	p := parser{input: strings.TrimSpace(cleaned)}
	result, err := p.expression()
	if err != nil {
		return decimal.Zero, err
	}

	p.skipSpace()
	if p.pos != len(p.input) {
		return decimal.Zero, ErrInvalidFormat
	}

	if result.Abs().GreaterThan(maxAbs) {
		return decimal.Zero, ErrOutOfBounds
	}

	return result, nil
}

// sanitize removes currency symbols and grouping separators so that only the
// numeric content remains for interpretation.
func sanitize(input string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(input) {
		switch {
		case unicode.Is(unicode.Sc, r):
			// Currency symbols like $, €, ₦
		case r == ',' || r == '_' || r == '\'':
			// Grouping separators
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parser evaluates arithmetic expressions with the usual precedence rules.
// The grammar is deliberately tiny: numbers, + - * /, unary signs and
// parentheses. There are no identifiers and no function calls.
type parser struct {
	input string
	pos   int
}

func (p *parser) expression() (decimal.Decimal, error) {
	result, err := p.term()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.term()
			if err != nil {
				return decimal.Zero, err
			}
			result = result.Add(right)
		case '-':
			p.pos++
			right, err := p.term()
			if err != nil {
				return decimal.Zero, err
			}
			result = result.Sub(right)
		default:
			return result, nil
		}
	}
}

func (p *parser) term() (decimal.Decimal, error) {
	result, err := p.factor()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.factor()
			if err != nil {
				return decimal.Zero, err
			}
			result = result.Mul(right)
		case '/':
			p.pos++
			right, err := p.factor()
			if err != nil {
				return decimal.Zero, err
			}
			if right.IsZero() {
				return decimal.Zero, ErrDivisionByZero
			}
			result = result.Div(right)
		default:
			return result, nil
		}
	}
}

func (p *parser) factor() (decimal.Decimal, error) {
	p.skipSpace()

	switch p.peek() {
	case '-':
		p.pos++
		result, err := p.factor()
		if err != nil {
			return decimal.Zero, err
		}
		return result.Neg(), nil
	case '+':
		p.pos++
		return p.factor()
	case '(':
		p.pos++
		result, err := p.expression()
		if err != nil {
			return decimal.Zero, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return decimal.Zero, ErrInvalidFormat
		}
		p.pos++
		return result, nil
	}

	return p.number()
}

func (p *parser) number() (decimal.Decimal, error) {
	start := p.pos
	for p.pos < len(p.input) {
		r := p.input[p.pos]
		if (r < '0' || r > '9') && r != '.' {
			break
		}
		p.pos++
	}

	if start == p.pos {
		return decimal.Zero, ErrInvalidFormat
	}

	result, err := decimal.NewFromString(p.input[start:p.pos])
	if err != nil {
		return decimal.Zero, ErrInvalidFormat
	}

	return result, nil
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

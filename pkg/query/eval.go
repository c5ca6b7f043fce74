package query

import (
	"errors"
	"fmt"
)

// Evaluation errors. Every failure also satisfies errors.Is(err, ErrMalformedExpression).
var (
	ErrMalformedExpression   = errors.New("malformed expression")
	ErrMismatchedParenthesis = fmt.Errorf("%w: mismatched parenthesis", ErrMalformedExpression)
	ErrUnexpectedSymbol      = fmt.Errorf("%w: unexpected symbol", ErrMalformedExpression)
	ErrStackUnderflow        = fmt.Errorf("%w: stack underflow", ErrMalformedExpression)
)

// Symbol is one entry of a reduced expression: a truth value or an operator.
type Symbol uint8

const (
	False Symbol = iota
	True
	Not
	And
	Or
	Open
	Close
)

var symbolChars = [...]byte{False: 'F', True: 'T', Not: '!', And: '&', Or: '|', Open: '(', Close: ')'}

// String returns the single-character form used in expression strings.
func (s Symbol) String() string {
	if int(s) < len(symbolChars) {
		return string(symbolChars[s])
	}
	return "?"
}

// IsValue reports whether s is True or False.
func (s Symbol) IsValue() bool {
	return s == True || s == False
}

func valueOf(b bool) Symbol {
	if b {
		return True
	}
	return False
}

// ParseSymbols converts an expression such as "(T|F)&!F" into symbols.
func ParseSymbols(expr string) ([]Symbol, error) {
	syms := make([]Symbol, 0, len(expr))
	for i := 0; i < len(expr); i++ {
		sym, ok := symbolFor(expr[i])
		if !ok {
			return nil, fmt.Errorf("%w %q at offset %d", ErrUnexpectedSymbol, expr[i], i)
		}
		syms = append(syms, sym)
	}
	return syms, nil
}

func symbolFor(c byte) (Symbol, bool) {
	for i, ch := range symbolChars {
		if ch == c {
			return Symbol(i), true
		}
	}
	return 0, false
}

// Evaluate parses and evaluates an expression string of T, F and operators.
func Evaluate(expr string) (bool, error) {
	syms, err := ParseSymbols(expr)
	if err != nil {
		return false, err
	}
	return EvaluateSymbols(syms)
}

// EvaluateSymbols runs the stack machine over syms.
//
// Operators have no precedence: after every push the top of the stack is
// reduced as soon as an operator and its operands are adjacent, so
// T|F&F is ((T|F)&F). Parentheses are the only grouping.
func EvaluateSymbols(syms []Symbol) (bool, error) {
	var st stack
	for _, sym := range syms {
		if sym == Close {
			v, err := st.pop()
			if err != nil {
				return false, err
			}
			open, err := st.pop()
			if err != nil {
				return false, err
			}
			if open != Open {
				return false, ErrMismatchedParenthesis
			}
			st.push(v)
		} else {
			st.push(sym)
		}
		if err := st.reduce(); err != nil {
			return false, err
		}
	}
	if len(st) == 1 && st.topIsValue() {
		return st[0] == True, nil
	}
	return false, ErrMalformedExpression
}

type stack []Symbol

func (s *stack) push(sym Symbol) {
	*s = append(*s, sym)
}

func (s *stack) pop() (Symbol, error) {
	n := len(*s)
	if n == 0 {
		return 0, ErrStackUnderflow
	}
	sym := (*s)[n-1]
	*s = (*s)[:n-1]
	return sym, nil
}

// atStart reports whether the stack is at the start of a (sub)expression.
func (s stack) atStart() bool {
	return len(s) == 0 || s[len(s)-1] == Open
}

func (s stack) topIsValue() bool {
	return len(s) > 0 && s[len(s)-1].IsValue()
}

// reduce applies operators while a value sits on top of one.
func (s *stack) reduce() error {
	for !s.atStart() && s.topIsValue() {
		rhs, _ := s.pop()
		if s.atStart() {
			s.push(rhs)
			return nil
		}
		op, _ := s.pop()
		switch op {
		case Or:
			lhs, err := s.pop()
			if err != nil {
				return err
			}
			s.push(valueOf(lhs == True || rhs == True))
		case And:
			lhs, err := s.pop()
			if err != nil {
				return err
			}
			s.push(valueOf(lhs == True && rhs == True))
		case Not:
			s.push(valueOf(rhs == False))
		default:
			return fmt.Errorf("%w %q", ErrUnexpectedSymbol, op.String())
		}
	}
	return nil
}

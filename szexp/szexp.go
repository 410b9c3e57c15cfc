// Package szexp implements the miniature RPN expression language used
// by user shader passes to describe output sizes and execution
// conditions.
//
// An expression is a space-separated sequence of tokens in reverse
// Polish notation. Tokens are numeric constants, texture dimension
// variables ("NAME.w", "NAME.h", or the long forms ".width" and
// ".height"), and the operators + - * / > < !. For example:
//
//	HOOKED.w 2 * OUTPUT.w <
//
// pushes twice the width of the hooked texture, pushes the output
// width, and compares them.
//
// Expressions are fixed-capacity value types ([MaxSize] tokens) so a
// parsed pass descriptor stays a plain value with no heap references
// beyond the variable names.
package szexp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// MaxSize is the maximum number of tokens in an expression. It also
// bounds the evaluation stack: an expression of at most MaxSize tokens
// can never push more than MaxSize values.
const MaxSize = 32

// Evaluation and parse errors.
var (
	// ErrTooLong is returned when an expression exceeds MaxSize tokens.
	ErrTooLong = errors.New("szexp: expression too long")

	// ErrBadToken is returned for a token that is neither a variable,
	// an operator, nor a numeric constant.
	ErrBadToken = errors.New("szexp: unparseable token")

	// ErrUnderflow is returned when an operator pops an empty stack.
	ErrUnderflow = errors.New("szexp: stack underflow")

	// ErrUnknownVariable is returned when the lookup function cannot
	// resolve a variable name.
	ErrUnknownVariable = errors.New("szexp: variable not found")

	// ErrNonFinite is returned when an operation produces NaN or an
	// infinity, e.g. division by zero.
	ErrNonFinite = errors.New("szexp: illegal operation")

	// ErrMalformedStack is returned when evaluation does not end with
	// exactly one value on the stack.
	ErrMalformedStack = errors.New("szexp: malformed stack")
)

// Op identifies an operator.
type Op uint8

// Operators. Not is the sole monadic operator.
const (
	Add Op = iota
	Sub
	Mul
	Div
	Not
	Gt
	Lt
)

// Tag discriminates the token union. The zero value is End, so a
// zeroed Expr is a well-formed empty expression.
type Tag uint8

// Token kinds.
const (
	End Tag = iota // terminator; all trailing slots are End
	Const
	VarW
	VarH
	Op2 // pop two, push result
	Op1 // pop one, push result
)

// Token is one element of an RPN expression.
type Token struct {
	Tag  Tag
	CVal float32 // Const
	Name string  // VarW, VarH
	Op   Op      // Op1, Op2
}

// Expr is a fixed-capacity RPN expression. Unused trailing slots hold
// the zero token (End).
type Expr [MaxSize]Token

// ConstExpr returns an expression that evaluates to the constant c.
func ConstExpr(c float32) Expr {
	return Expr{{Tag: Const, CVal: c}}
}

// VarWExpr returns an expression that evaluates to the width of the
// named texture.
func VarWExpr(name string) Expr {
	return Expr{{Tag: VarW, Name: name}}
}

// VarHExpr returns an expression that evaluates to the height of the
// named texture.
func VarHExpr(name string) Expr {
	return Expr{{Tag: VarH, Name: name}}
}

// Parse parses one line of RPN text into an expression. Tokens are
// separated by ASCII spaces; empty tokens are skipped.
func Parse(line string) (Expr, error) {
	var out Expr
	pos := 0

	for _, word := range strings.Split(line, " ") {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}

		if pos >= MaxSize {
			return Expr{}, ErrTooLong
		}
		tok := &out[pos]
		pos++

		if rest, ok := trimDimSuffix(word, ".w", ".width"); ok {
			tok.Tag, tok.Name = VarW, rest
			continue
		}
		if rest, ok := trimDimSuffix(word, ".h", ".height"); ok {
			tok.Tag, tok.Name = VarH, rest
			continue
		}

		switch word[0] {
		case '+':
			tok.Tag, tok.Op = Op2, Add
			continue
		case '-':
			tok.Tag, tok.Op = Op2, Sub
			continue
		case '*':
			tok.Tag, tok.Op = Op2, Mul
			continue
		case '/':
			tok.Tag, tok.Op = Op2, Div
			continue
		case '!':
			tok.Tag, tok.Op = Op1, Not
			continue
		case '>':
			tok.Tag, tok.Op = Op2, Gt
			continue
		case '<':
			tok.Tag, tok.Op = Op2, Lt
			continue
		}

		if word[0] >= '0' && word[0] <= '9' {
			c, err := strconv.ParseFloat(word, 32)
			if err != nil {
				return Expr{}, fmt.Errorf("%w: %q", ErrBadToken, word)
			}
			tok.Tag, tok.CVal = Const, float32(c)
			continue
		}

		return Expr{}, fmt.Errorf("%w: %q", ErrBadToken, word)
	}

	return out, nil
}

func trimDimSuffix(word, short, long string) (string, bool) {
	if rest, ok := strings.CutSuffix(word, short); ok {
		return rest, true
	}
	if rest, ok := strings.CutSuffix(word, long); ok {
		return rest, true
	}
	return word, false
}

// LookupFunc resolves a texture name to its width and height.
type LookupFunc func(name string) (w, h float32, ok bool)

// Eval runs the expression against the given variable lookup and
// returns the single resulting value. The evaluation stack is bounded
// by MaxSize; a well-formed expression leaves exactly one value.
func Eval(expr *Expr, lookup LookupFunc) (float32, error) {
	var stack [MaxSize]float32
	idx := 0 // next slot to push

loop:
	for i := range expr {
		tok := &expr[i]
		switch tok.Tag {
		case End:
			break loop

		case Const:
			stack[idx] = tok.CVal
			idx++

		case VarW, VarH:
			w, h, ok := lookup(tok.Name)
			if !ok {
				return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, tok.Name)
			}
			if tok.Tag == VarW {
				stack[idx] = w
			} else {
				stack[idx] = h
			}
			idx++

		case Op1:
			if idx < 1 {
				return 0, ErrUnderflow
			}
			// Not is the only monadic operator.
			if stack[idx-1] == 0 {
				stack[idx-1] = 1
			} else {
				stack[idx-1] = 0
			}

		case Op2:
			if idx < 2 {
				return 0, ErrUnderflow
			}
			op2 := stack[idx-1]
			op1 := stack[idx-2]
			idx -= 2

			var res float32
			switch tok.Op {
			case Add:
				res = op1 + op2
			case Sub:
				res = op1 - op2
			case Mul:
				res = op1 * op2
			case Div:
				res = op1 / op2
			case Gt:
				if op1 > op2 {
					res = 1
				}
			case Lt:
				if op1 < op2 {
					res = 1
				}
			}

			if math32.IsNaN(res) || math32.IsInf(res, 0) {
				return 0, ErrNonFinite
			}
			stack[idx] = res
			idx++
		}
	}

	if idx != 1 {
		return 0, ErrMalformedStack
	}
	return stack[0], nil
}

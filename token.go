package parsekit

import "fmt"

// TokType is a category type for a Token. Values are dense, grammar-assigned
// indices (see lr.Symbol.TokenType); applications never define their own.
type TokType int

// Token is produced by a Recognizer and consumed by the LR and GLR runtimes.
// It reflects a single terminal match in the input.
//
//	TokType = Float       // identifier for this kind of token (grammar-assigned)
//	Lexeme  = "3.1416"    // matched input substring
//	Value   = "3.1416"    // recognizer.Recognizer sets Value to the lexeme
//	Span    = 67…73       // where this token occurred in the input
type Token interface {
	TokType() TokType
	Lexeme() string
	Value() interface{}
	Span() Span
}

// Span captures a half-open range [from,to) of input positions covered by a
// terminal or a reduced nonterminal.
type Span [2]uint64

// From returns the start position of a span.
func (s Span) From() uint64 { return s[0] }

// To returns the position just behind the end of a span.
func (s Span) To() uint64 { return s[1] }

// Len returns the length of the span.
func (s Span) Len() uint64 {
	if s[1] < s[0] {
		invariant("Span.Len", fmt.Sprintf("end %d precedes start %d", s[1], s[0]))
		return 0
	}
	return s[1] - s[0]
}

// IsNull reports whether the span is the zero span.
func (s Span) IsNull() bool { return s == Span{} }

// Extend grows s to also cover other, returning the enclosing span.
func (s Span) Extend(other Span) Span {
	if other.IsNull() {
		return s
	}
	if s.IsNull() {
		return other
	}
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}

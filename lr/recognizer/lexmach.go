package recognizer

import (
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/scanfree/parsekit/lr"
)

// LexmachineRecognizer compiles pattern (lexmachine regular-expression
// syntax) into a single-rule DFA and returns a lr.CustomRecognizeFunc
// backed by it. Use this for terminals whose recognition logic is more
// naturally expressed as a lexmachine rule than as a Go regexp.Regexp
// pattern (e.g. patterns relying on lexmachine's character-class
// escapes).
//
// The returned func reports a match only if the DFA accepts starting
// exactly at pos; it never skips ahead to find a later match.
func LexmachineRecognizer(pattern string) (lr.CustomRecognizeFunc, error) {
	lexer := lexmachine.NewLexer()
	lexer.Add([]byte(pattern), func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(0, string(m.Bytes), m), nil
	})
	if err := lexer.Compile(); err != nil {
		return nil, err
	}
	return func(input string, pos uint64) (string, bool) {
		if pos > uint64(len(input)) {
			return "", false
		}
		scanner, err := lexer.Scanner([]byte(input[pos:]))
		if err != nil {
			return "", false
		}
		tok, err, eof := scanner.Next()
		if err != nil || eof {
			return "", false
		}
		token := tok.(*lexmachine.Token)
		return string(token.Lexeme), true
	}, nil
}

// Package literal implements per-engine string literal grammars and the
// partition value encodings used in data file paths.
package literal

import (
	"fmt"
	"strings"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
)

// Grammar quotes raw strings as SQL string literals and parses such
// literals back. Unquote is a scanner for the grammar, not the inverse of
// Quote, so that round trips are actually verified.
type Grammar interface {
	// Name identifies the grammar in diagnostics
	Name() string

	// Quote renders raw as a string literal including the quotes
	Quote(raw string) string

	// Unquote parses a complete string literal
	Unquote(literal string) (string, error)

	// QuoteIdentifier renders a delimited identifier
	QuoteIdentifier(name string) string
}

// DoubledQuote is the ANSI grammar: a quote inside a literal is written twice.
var DoubledQuote Grammar = doubledQuote{}

// Backslash is the Hive-style grammar: backslash and quote are escaped with
// a backslash, and backslash sequences are interpreted when parsing.
var Backslash Grammar = backslash{}

// EscapeStringLiteral quotes raw with g and verifies that g parses the
// literal back to raw. A mismatch is an EncodingRoundTripError.
func EscapeStringLiteral(g Grammar, raw string) (string, error) {
	lit := g.Quote(raw)
	back, err := g.Unquote(lit)
	if err != nil {
		return "", oerrors.NewEncodingRoundTripError(g.Name(), raw, lit, err.Error())
	}
	if back != raw {
		return "", oerrors.NewEncodingRoundTripError(g.Name(), raw, lit, back)
	}
	return lit, nil
}

// scanner walks a literal byte by byte. Multi-byte UTF-8 sequences never
// contain ASCII bytes, so quotes and backslashes are found reliably.
type scanner struct {
	input string
	pos   int
	ch    byte
}

func newScanner(input string) *scanner {
	s := &scanner{input: input, pos: -1}
	s.readChar()
	return s
}

func (s *scanner) readChar() {
	s.pos++
	if s.pos >= len(s.input) {
		s.ch = 0
		s.pos = len(s.input)
		return
	}
	s.ch = s.input[s.pos]
}

func (s *scanner) peekChar() byte {
	if s.pos+1 >= len(s.input) {
		return 0
	}
	return s.input[s.pos+1]
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.input)
}

type doubledQuote struct{}

func (doubledQuote) Name() string { return "doubled-quote" }

func (doubledQuote) Quote(raw string) string {
	return "'" + strings.ReplaceAll(raw, "'", "''") + "'"
}

func (doubledQuote) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (doubledQuote) Unquote(literal string) (string, error) {
	s := newScanner(literal)
	if s.ch != '\'' {
		return "", fmt.Errorf("literal must start with a quote: %s", literal)
	}
	s.readChar() // Skip opening quote

	var b strings.Builder
	for {
		if s.atEnd() {
			return "", fmt.Errorf("unterminated string: %s", literal)
		}
		if s.ch == '\'' {
			if s.peekChar() == '\'' {
				// Escaped quote
				b.WriteByte('\'')
				s.readChar()
				s.readChar()
				continue
			}
			break
		}
		b.WriteByte(s.ch)
		s.readChar()
	}

	s.readChar() // Skip closing quote
	if !s.atEnd() {
		return "", fmt.Errorf("unexpected input after closing quote at offset %d: %s", s.pos, literal)
	}
	return b.String(), nil
}

type backslash struct{}

func (backslash) Name() string { return "backslash" }

func (backslash) Quote(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\', '\'':
			b.WriteByte('\\')
		}
		b.WriteByte(raw[i])
	}
	b.WriteByte('\'')
	return b.String()
}

func (backslash) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Unquote accepts single- or double-quoted literals and interprets the
// escape sequences the engine's parser does: \0 \b \n \r \t \Z, \uXXXX,
// octal \ddd, while \% and \_ keep their backslash. Any other escaped
// character stands for itself.
func (backslash) Unquote(literal string) (string, error) {
	s := newScanner(literal)
	quote := s.ch
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("literal must start with a quote: %s", literal)
	}
	s.readChar() // Skip opening quote

	var b strings.Builder
	for {
		if s.atEnd() {
			return "", fmt.Errorf("unterminated string: %s", literal)
		}
		if s.ch == quote {
			break
		}
		if s.ch != '\\' {
			b.WriteByte(s.ch)
			s.readChar()
			continue
		}

		s.readChar() // Skip backslash
		if s.atEnd() {
			return "", fmt.Errorf("unterminated escape: %s", literal)
		}
		switch s.ch {
		case 'u':
			if s.pos+5 > len(s.input) {
				return "", fmt.Errorf("short unicode escape at offset %d: %s", s.pos, literal)
			}
			var r rune
			if _, err := fmt.Sscanf(s.input[s.pos+1:s.pos+5], "%04x", &r); err != nil {
				return "", fmt.Errorf("invalid unicode escape at offset %d: %s", s.pos, literal)
			}
			b.WriteRune(r)
			for i := 0; i < 5; i++ {
				s.readChar()
			}
			continue
		case '0', '1', '2', '3':
			if oct, ok := octalAt(s.input, s.pos); ok {
				b.WriteByte(oct)
				s.readChar()
				s.readChar()
				s.readChar()
				continue
			}
			if s.ch == '0' {
				b.WriteByte(0)
			} else {
				b.WriteByte(s.ch)
			}
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'Z':
			b.WriteByte(0x1A)
		case '%', '_':
			b.WriteByte('\\')
			b.WriteByte(s.ch)
		default:
			b.WriteByte(s.ch)
		}
		s.readChar()
	}

	s.readChar() // Skip closing quote
	if !s.atEnd() {
		return "", fmt.Errorf("unexpected input after closing quote at offset %d: %s", s.pos, literal)
	}
	return b.String(), nil
}

// octalAt reads a three digit octal escape starting at pos.
func octalAt(input string, pos int) (byte, bool) {
	if pos+3 > len(input) {
		return 0, false
	}
	d := input[pos : pos+3]
	if d[0] < '0' || d[0] > '3' {
		return 0, false
	}
	for i := 1; i < 3; i++ {
		if d[i] < '0' || d[i] > '7' {
			return 0, false
		}
	}
	return (d[0]-'0')<<6 | (d[1]-'0')<<3 | (d[2] - '0'), true
}

package contentstream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

const (
	nullChar           = '\000'
	tabChar            = '\t'
	lineFeedChar       = '\n'
	formFeedChar       = '\f'
	carriageReturnChar = '\r'
	spaceChar          = ' '
)

// isWhitespace checks if a character is PDF whitespace.
func isWhitespace(ch byte) bool {
	return ch == nullChar || ch == tabChar || ch == lineFeedChar ||
		ch == formFeedChar || ch == carriageReturnChar || ch == spaceChar
}

// isDelimiter checks if a character is a PDF delimiter.
func isDelimiter(ch byte) bool {
	switch ch {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// isRegular checks if a character is neither whitespace nor a delimiter.
func isRegular(ch byte) bool {
	return !isWhitespace(ch) && !isDelimiter(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func hexValue(ch byte) byte {
	switch {
	case ch <= '9':
		return ch - '0'
	case ch <= 'F':
		return ch - 'A' + 10
	default:
		return ch - 'a' + 10
	}
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenString
	tokenName
	tokenKeyword
	tokenArrayStart
	tokenArrayEnd
	tokenDictStart
	tokenDictEnd
)

type token struct {
	kind tokenKind
	text string
	data []byte
	pos  int64
}

// lexer tokenizes a decoded content stream byte by byte.
type lexer struct {
	reader   *bufio.Reader
	position int64
	current  byte
	hasNext  bool
	err      error
}

func newLexer(reader io.Reader) *lexer {
	l := &lexer{
		reader:   bufio.NewReader(reader),
		position: -1,
		hasNext:  true,
	}
	l.advance()
	return l
}

// advance reads the next character from the input.
func (l *lexer) advance() {
	if !l.hasNext {
		return
	}
	ch, err := l.reader.ReadByte()
	if err != nil {
		l.hasNext = false
		l.current = 0
		if err != io.EOF {
			l.err = err
		}
		return
	}
	l.current = ch
	l.position++
}

// peek looks at the next character without advancing.
func (l *lexer) peek() byte {
	if !l.hasNext {
		return 0
	}
	next, err := l.reader.Peek(1)
	if err != nil || len(next) == 0 {
		return 0
	}
	return next[0]
}

func (l *lexer) skipWhitespace() {
	for l.hasNext && isWhitespace(l.current) {
		l.advance()
	}
}

// skipComment skips a comment up to the end of its line.
func (l *lexer) skipComment() {
	for l.hasNext && l.current != lineFeedChar && l.current != carriageReturnChar {
		l.advance()
	}
}

// next returns the next token from the input.
func (l *lexer) next() (token, error) {
	for l.hasNext {
		if isWhitespace(l.current) {
			l.skipWhitespace()
		} else if l.current == '%' {
			l.skipComment()
		} else {
			break
		}
	}
	if l.err != nil {
		return token{kind: tokenEOF, pos: l.position}, l.err
	}
	if !l.hasNext {
		return token{kind: tokenEOF, pos: l.position}, nil
	}

	pos := l.position
	switch l.current {
	case '(':
		return l.readLiteralString()
	case '<':
		if l.peek() == '<' {
			l.advance()
			l.advance()
			return token{kind: tokenDictStart, pos: pos}, nil
		}
		return l.readHexString()
	case '>':
		if l.peek() == '>' {
			l.advance()
			l.advance()
			return token{kind: tokenDictEnd, pos: pos}, nil
		}
		return token{}, fmt.Errorf("stray '>' at byte %d", pos)
	case '[':
		l.advance()
		return token{kind: tokenArrayStart, pos: pos}, nil
	case ']':
		l.advance()
		return token{kind: tokenArrayEnd, pos: pos}, nil
	case '/':
		return l.readName()
	case '{', '}', ')':
		return token{}, fmt.Errorf("unexpected %q at byte %d", l.current, pos)
	default:
		if isDigit(l.current) || l.current == '+' || l.current == '-' || l.current == '.' {
			return l.readNumber()
		}
		return l.readKeyword()
	}
}

// readLiteralString reads a string enclosed in parentheses, resolving escape
// sequences and balanced inner parentheses.
func (l *lexer) readLiteralString() (token, error) {
	pos := l.position
	var buffer bytes.Buffer

	l.advance()
	depth := 1

	for l.hasNext && depth > 0 {
		ch := l.current
		switch {
		case ch == '(':
			depth++
			buffer.WriteByte(ch)
		case ch == ')':
			depth--
			if depth > 0 {
				buffer.WriteByte(ch)
			}
		case ch == '\\':
			l.advance()
			if !l.hasNext {
				break
			}
			switch l.current {
			case 'n':
				buffer.WriteByte('\n')
			case 'r':
				buffer.WriteByte('\r')
			case 't':
				buffer.WriteByte('\t')
			case 'b':
				buffer.WriteByte('\b')
			case 'f':
				buffer.WriteByte('\f')
			case '(', ')', '\\':
				buffer.WriteByte(l.current)
			case lineFeedChar:
				// line continuation
			case carriageReturnChar:
				if l.peek() == lineFeedChar {
					l.advance()
				}
			default:
				if l.current >= '0' && l.current <= '7' {
					value := int(l.current - '0')
					for i := 0; i < 2 && l.peek() >= '0' && l.peek() <= '7'; i++ {
						l.advance()
						value = value*8 + int(l.current-'0')
					}
					buffer.WriteByte(byte(value & 0xff))
				} else {
					// unknown escape, the backslash is dropped
					buffer.WriteByte(l.current)
				}
			}
		default:
			buffer.WriteByte(ch)
		}
		l.advance()
	}

	if depth != 0 {
		return token{}, fmt.Errorf("unclosed string starting at byte %d", pos)
	}
	return token{kind: tokenString, data: buffer.Bytes(), pos: pos}, nil
}

// readHexString reads a hex string enclosed in angle brackets and decodes it
// into its bytes. An odd number of digits is padded with a trailing zero.
func (l *lexer) readHexString() (token, error) {
	pos := l.position
	var digits []byte

	l.advance()
	for l.hasNext && l.current != '>' {
		if isWhitespace(l.current) {
			l.advance()
			continue
		}
		if !isHexDigit(l.current) {
			return token{}, fmt.Errorf("invalid hex digit %q at byte %d", l.current, l.position)
		}
		digits = append(digits, l.current)
		l.advance()
	}
	if !l.hasNext {
		return token{}, fmt.Errorf("unclosed hex string starting at byte %d", pos)
	}
	l.advance()

	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	decoded := make([]byte, len(digits)/2)
	for i := 0; i < len(decoded); i++ {
		decoded[i] = hexValue(digits[2*i])<<4 | hexValue(digits[2*i+1])
	}
	return token{kind: tokenString, data: decoded, pos: pos}, nil
}

// readName reads a name, resolving #xx escapes.
func (l *lexer) readName() (token, error) {
	pos := l.position
	var buffer bytes.Buffer

	l.advance()
	for l.hasNext && isRegular(l.current) {
		if l.current == '#' && isHexDigit(l.peek()) {
			l.advance()
			high := l.current
			if !isHexDigit(l.peek()) {
				buffer.WriteByte('#')
				buffer.WriteByte(high)
				l.advance()
				continue
			}
			l.advance()
			buffer.WriteByte(hexValue(high)<<4 | hexValue(l.current))
			l.advance()
			continue
		}
		buffer.WriteByte(l.current)
		l.advance()
	}
	return token{kind: tokenName, text: buffer.String(), pos: pos}, nil
}

// readNumber reads an integer or real number.
func (l *lexer) readNumber() (token, error) {
	pos := l.position
	var buffer bytes.Buffer

	if l.current == '+' || l.current == '-' {
		buffer.WriteByte(l.current)
		l.advance()
	}
	for l.hasNext && isDigit(l.current) {
		buffer.WriteByte(l.current)
		l.advance()
	}
	if l.hasNext && l.current == '.' {
		buffer.WriteByte(l.current)
		l.advance()
		for l.hasNext && isDigit(l.current) {
			buffer.WriteByte(l.current)
			l.advance()
		}
	}
	return token{kind: tokenNumber, text: buffer.String(), pos: pos}, nil
}

// readKeyword reads an operator or one of the keywords true, false and null.
// Quote and star characters are regular in content streams, they form the
// operators ', " and the *-suffixed path and text operators.
func (l *lexer) readKeyword() (token, error) {
	pos := l.position
	var buffer bytes.Buffer

	for l.hasNext && isRegular(l.current) {
		buffer.WriteByte(l.current)
		l.advance()
	}
	if buffer.Len() == 0 {
		return token{}, fmt.Errorf("unexpected %q at byte %d", l.current, pos)
	}
	return token{kind: tokenKeyword, text: buffer.String(), pos: pos}, nil
}

// skipInlineImageData discards raw image bytes following an ID operator up
// to and including the closing EI.
func (l *lexer) skipInlineImageData() error {
	// one whitespace byte separates ID from the data
	if l.hasNext && isWhitespace(l.current) {
		l.advance()
	}
	previousWhitespace := true
	for l.hasNext {
		if previousWhitespace && l.current == 'E' && l.peek() == 'I' {
			l.advance()
			l.advance()
			if !l.hasNext || isWhitespace(l.current) || isDelimiter(l.current) {
				return nil
			}
		}
		previousWhitespace = isWhitespace(l.current)
		l.advance()
	}
	return fmt.Errorf("unterminated inline image at byte %d", l.position)
}

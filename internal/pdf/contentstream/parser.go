package contentstream

import (
	"fmt"
	"io"
	"strconv"
)

// Parser assembles content stream tokens into operations. Operands pile up
// on a stack until an operator token consumes them.
type Parser struct {
	lexer      *lexer
	operations []Operation
	stack      []Object
}

// NewParser creates a parser reading a decoded content stream.
func NewParser(reader io.Reader) *Parser {
	return &Parser{lexer: newLexer(reader)}
}

// Parse reads a decoded content stream and returns its operations in order.
func Parse(reader io.Reader) ([]Operation, error) {
	return NewParser(reader).Parse()
}

// Parse consumes the whole stream. Operands left without an operator at the
// end of the stream are dropped.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		tok, err := p.lexer.next()
		if err != nil {
			return nil, err
		}

		switch tok.kind {
		case tokenEOF:
			return p.operations, nil
		case tokenKeyword:
			if err := p.handleKeyword(tok); err != nil {
				return nil, err
			}
		case tokenArrayEnd:
			return nil, fmt.Errorf("unbalanced ']' at byte %d", tok.pos)
		case tokenDictEnd:
			return nil, fmt.Errorf("unbalanced '>>' at byte %d", tok.pos)
		default:
			operand, err := p.readOperand(tok)
			if err != nil {
				return nil, err
			}
			p.stack = append(p.stack, operand)
		}
	}
}

func (p *Parser) handleKeyword(tok token) error {
	switch tok.text {
	case "true":
		p.stack = append(p.stack, &Bool{Value: true})
	case "false":
		p.stack = append(p.stack, &Bool{Value: false})
	case "null":
		p.stack = append(p.stack, &Null{})
	case "BI":
		return p.skipInlineImage()
	default:
		operands := make([]Object, len(p.stack))
		copy(operands, p.stack)
		p.operations = append(p.operations, Operation{Operator: tok.text, Operands: operands})
		p.stack = p.stack[:0]
	}
	return nil
}

// skipInlineImage discards everything between BI and EI. The image dictionary
// tokens parse like ordinary operands, the binary payload after ID is skipped
// byte-wise. Inline images carry no text, so no operation is emitted.
func (p *Parser) skipInlineImage() error {
	for {
		tok, err := p.lexer.next()
		if err != nil {
			return err
		}
		switch tok.kind {
		case tokenEOF:
			return fmt.Errorf("unterminated inline image at byte %d", tok.pos)
		case tokenKeyword:
			if tok.text == "ID" {
				p.stack = p.stack[:0]
				return p.lexer.skipInlineImageData()
			}
		default:
			// image dictionary entries, dropped with the image
		}
	}
}

// readOperand turns a token into an object, recursing into arrays and
// dictionaries.
func (p *Parser) readOperand(tok token) (Object, error) {
	switch tok.kind {
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at byte %d", tok.text, tok.pos)
		}
		return &Number{Value: value}, nil
	case tokenString:
		return &String{Value: tok.data}, nil
	case tokenName:
		return &Name{Value: tok.text}, nil
	case tokenArrayStart:
		return p.readArray(tok.pos)
	case tokenDictStart:
		return p.readDictionary(tok.pos)
	default:
		return nil, fmt.Errorf("unexpected token at byte %d", tok.pos)
	}
}

func (p *Parser) readArray(start int64) (Object, error) {
	array := &Array{}
	for {
		tok, err := p.lexer.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenArrayEnd:
			return array, nil
		case tokenEOF:
			return nil, fmt.Errorf("unclosed array starting at byte %d", start)
		case tokenKeyword:
			operand, err := keywordOperand(tok)
			if err != nil {
				return nil, err
			}
			array.Items = append(array.Items, operand)
		default:
			operand, err := p.readOperand(tok)
			if err != nil {
				return nil, err
			}
			array.Items = append(array.Items, operand)
		}
	}
}

func (p *Parser) readDictionary(start int64) (Object, error) {
	dict := &Dictionary{Items: make(map[string]Object)}
	for {
		tok, err := p.lexer.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenDictEnd:
			return dict, nil
		case tokenEOF:
			return nil, fmt.Errorf("unclosed dictionary starting at byte %d", start)
		case tokenName:
			value, err := p.readDictionaryValue()
			if err != nil {
				return nil, err
			}
			dict.Items[tok.text] = value
		default:
			return nil, fmt.Errorf("expected name key in dictionary at byte %d", tok.pos)
		}
	}
}

func (p *Parser) readDictionaryValue() (Object, error) {
	tok, err := p.lexer.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokenKeyword {
		return keywordOperand(tok)
	}
	if tok.kind == tokenEOF || tok.kind == tokenDictEnd || tok.kind == tokenArrayEnd {
		return nil, fmt.Errorf("missing dictionary value at byte %d", tok.pos)
	}
	return p.readOperand(tok)
}

func keywordOperand(tok token) (Object, error) {
	switch tok.text {
	case "true":
		return &Bool{Value: true}, nil
	case "false":
		return &Bool{Value: false}, nil
	case "null":
		return &Null{}, nil
	default:
		return nil, fmt.Errorf("unexpected keyword %q at byte %d", tok.text, tok.pos)
	}
}

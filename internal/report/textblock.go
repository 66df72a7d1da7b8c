package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/wisdom-oss/nlwkn-go/internal/pdf/contentstream"
)

// Report text is stored in the single byte WinAnsiEncoding, which maps onto
// Windows-1252.
var textEncoding = charmap.Windows1252

// TextBlock is one reconstructed text region of a report page. Position,
// font and fill color carry the first value seen inside the region; the
// content is the merged text of all show operations.
type TextBlock struct {
	X          *float64
	Y          *float64
	FontFamily *string
	FontSize   *float64
	FillColor  *[3]float64
	Content    *string
}

// AssembleTextBlocks folds the drawing operations of a document into text
// blocks. It returns the blocks in drawing order together with non-fatal
// anomaly messages for operations arriving in an unexpected state.
func AssembleTextBlocks(operations []contentstream.Operation) ([]TextBlock, []string) {
	assembler := assembler{}
	for i := range operations {
		assembler.consume(&operations[i])
	}
	return assembler.blocks, assembler.warnings
}

type assembler struct {
	blocks   []TextBlock
	open     *TextBlock
	warnings []string
}

func (a *assembler) consume(operation *contentstream.Operation) {
	switch operation.Operator {
	case "BT":
		if a.open != nil {
			a.warnf("text block did already begin, got '%s'", operation.Operator)
			return
		}
		a.open = &TextBlock{}

	case "Tm":
		if a.open == nil {
			a.warnf("no text block opened, got '%s'", operation.Operator)
			return
		}
		// only take the first x and y coordinates
		if a.open.X != nil || a.open.Y != nil {
			return
		}
		a.open.X = a.numberOperand(operation, 4)
		a.open.Y = a.numberOperand(operation, 5)

	case "Tf":
		if a.open == nil {
			a.warnf("no text block opened, got '%s'", operation.Operator)
			return
		}
		// take only the first font configuration
		if a.open.FontFamily != nil || a.open.FontSize != nil {
			return
		}
		a.open.FontFamily = a.fontOperand(operation)
		a.open.FontSize = a.numberOperand(operation, 1)

	case "rg":
		if a.open == nil {
			return
		}
		// take only the first fill color
		if a.open.FillColor != nil {
			return
		}
		r := a.numberOperand(operation, 0)
		g := a.numberOperand(operation, 1)
		b := a.numberOperand(operation, 2)
		if r != nil && g != nil && b != nil {
			a.open.FillColor = &[3]float64{*r, *g, *b}
		}

	case "Tj":
		if a.open == nil {
			a.warnf("no text block opened, got '%s'", operation.Operator)
			return
		}
		a.appendText(operation)

	case "ET":
		if a.open == nil {
			a.warnf("no text block opened, got '%s'", operation.Operator)
			return
		}
		a.blocks = append(a.blocks, *a.open)
		a.open = nil
	}
}

// appendText decodes all string operands of one show operation and merges
// them into the open block. Fragment boundaries follow a line heuristic: a
// trailing dash or slash marks a mid-word break, a trailing period or
// semicolon marks the end of a displayed line, everything else continues
// the same line.
func (a *assembler) appendText(operation *contentstream.Operation) {
	var decoded strings.Builder
	for _, operand := range operation.Operands {
		str, ok := operand.(*contentstream.String)
		if !ok {
			continue
		}
		decoded.WriteString(decodeText(str.Value))
	}

	content := decoded.String()
	if content == "" {
		return
	}

	block := a.open
	if block.Content == nil {
		block.Content = &content
		return
	}

	previous := *block.Content
	var joined string
	switch previous[len(previous)-1] {
	case '-', '/':
		joined = previous + content
	case '.', ';':
		joined = previous + "\n" + content
	default:
		joined = previous + " " + content
	}
	block.Content = &joined
}

// numberOperand reads a numeric operand, tolerating missing operands and
// warning about operands of the wrong type.
func (a *assembler) numberOperand(operation *contentstream.Operation, index int) *float64 {
	if index >= len(operation.Operands) {
		return nil
	}
	number, ok := operation.Operands[index].(*contentstream.Number)
	if !ok {
		a.warnf("expected number for '%s' operand[%d]", operation.Operator, index)
		return nil
	}
	value := number.Value
	return &value
}

// fontOperand reads the font identifier of a Tf operation, which reports
// encode either as a name or as a string literal.
func (a *assembler) fontOperand(operation *contentstream.Operation) *string {
	if len(operation.Operands) == 0 {
		return nil
	}
	switch operand := operation.Operands[0].(type) {
	case *contentstream.Name:
		family := decodeText([]byte(operand.Value))
		return &family
	case *contentstream.String:
		family := decodeText(operand.Value)
		return &family
	default:
		a.warnf("expected string for '%s' operand[0]", operation.Operator)
		return nil
	}
}

func (a *assembler) warnf(format string, args ...any) {
	a.warnings = append(a.warnings, fmt.Sprintf(format, args...))
}

func decodeText(raw []byte) string {
	var builder strings.Builder
	builder.Grow(len(raw))
	for _, b := range raw {
		builder.WriteRune(textEncoding.DecodeByte(b))
	}
	return builder.String()
}

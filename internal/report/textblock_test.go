package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/wisdom-oss/nlwkn-go/internal/pdf/contentstream"
)

func op(operator string, operands ...contentstream.Object) contentstream.Operation {
	return contentstream.Operation{Operator: operator, Operands: operands}
}

func num(value float64) contentstream.Object {
	return &contentstream.Number{Value: value}
}

func fontName(value string) contentstream.Object {
	return &contentstream.Name{Value: value}
}

// text encodes a string operand the way reports store text.
func text(value string) contentstream.Object {
	encoded, err := charmap.Windows1252.NewEncoder().String(value)
	if err != nil {
		panic(err)
	}
	return &contentstream.String{Value: []byte(encoded)}
}

// blockOps builds the operations of one complete text block showing the
// given fragments.
func blockOps(font string, x, y float64, fragments ...string) []contentstream.Operation {
	ops := []contentstream.Operation{
		op("BT"),
		op("Tf", fontName(font), num(11.25)),
		op("Tm", num(1), num(0), num(0), num(1), num(x), num(y)),
	}
	for _, fragment := range fragments {
		ops = append(ops, op("Tj", text(fragment)))
	}
	return append(ops, op("ET"))
}

func TestAssembleTextBlocks(t *testing.T) {
	t.Run("complete block", func(t *testing.T) {
		blocks, warnings := AssembleTextBlocks(blockOps("F1", 56.7, 745.6, "Wasserbuchblatt"))

		require.Len(t, blocks, 1)
		assert.Empty(t, warnings)

		block := blocks[0]
		require.NotNil(t, block.X)
		assert.Equal(t, 56.7, *block.X)
		require.NotNil(t, block.Y)
		assert.Equal(t, 745.6, *block.Y)
		require.NotNil(t, block.FontFamily)
		assert.Equal(t, "F1", *block.FontFamily)
		require.NotNil(t, block.FontSize)
		assert.Equal(t, 11.25, *block.FontSize)
		require.NotNil(t, block.Content)
		assert.Equal(t, "Wasserbuchblatt", *block.Content)
	})

	t.Run("first settings win", func(t *testing.T) {
		operations := []contentstream.Operation{
			op("BT"),
			op("Tf", fontName("F1"), num(11.25)),
			op("Tf", fontName("F2"), num(8)),
			op("Tm", num(1), num(0), num(0), num(1), num(10), num(20)),
			op("Tm", num(1), num(0), num(0), num(1), num(30), num(40)),
			op("rg", num(0), num(0), num(0)),
			op("rg", num(1), num(0), num(0)),
			op("Tj", text("Aurich")),
			op("ET"),
		}

		blocks, warnings := AssembleTextBlocks(operations)

		require.Len(t, blocks, 1)
		assert.Empty(t, warnings)
		assert.Equal(t, "F1", *blocks[0].FontFamily)
		assert.Equal(t, 11.25, *blocks[0].FontSize)
		assert.Equal(t, 10.0, *blocks[0].X)
		assert.Equal(t, 20.0, *blocks[0].Y)
		assert.Equal(t, [3]float64{0, 0, 0}, *blocks[0].FillColor)
	})

	t.Run("font as string literal", func(t *testing.T) {
		operations := []contentstream.Operation{
			op("BT"),
			op("Tf", text("F2"), num(8)),
			op("Tj", text("Leer")),
			op("ET"),
		}

		blocks, warnings := AssembleTextBlocks(operations)

		require.Len(t, blocks, 1)
		assert.Empty(t, warnings)
		assert.Equal(t, "F2", *blocks[0].FontFamily)
	})

	t.Run("unclosed block is dropped", func(t *testing.T) {
		operations := blockOps("F1", 56.7, 745.6, "Wasserbuchblatt")
		operations = operations[:len(operations)-1]

		blocks, warnings := AssembleTextBlocks(operations)

		assert.Empty(t, blocks)
		assert.Empty(t, warnings)
	})

	t.Run("umlauts decode", func(t *testing.T) {
		blocks, _ := AssembleTextBlocks(blockOps("F1", 0, 0, "Wasserbuchbehörde"))

		require.Len(t, blocks, 1)
		assert.Equal(t, "Wasserbuchbehörde", *blocks[0].Content)
	})
}

func TestAssembleTextBlocksJoins(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		want      string
	}{
		{"plain fragments join with a space", []string{"erteilt", "am:"}, "erteilt am:"},
		{"dash keeps the word together", []string{"Wasser-", "wirtschaft"}, "Wasser-wirtschaft"},
		{"slash keeps the unit together", []string{"m³/", "a"}, "m³/a"},
		{"period ends the line", []string{"Bremer Str.", "15"}, "Bremer Str.\n15"},
		{"semicolon ends the line", []string{"aktiv;", "real"}, "aktiv;\nreal"},
		{"empty fragments are ignored", []string{"", "Hannover", ""}, "Hannover"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, _ := AssembleTextBlocks(blockOps("F2", 0, 0, tt.fragments...))

			require.Len(t, blocks, 1)
			require.NotNil(t, blocks[0].Content)
			assert.Equal(t, tt.want, *blocks[0].Content)
		})
	}

	t.Run("strings of one operation concatenate", func(t *testing.T) {
		operations := []contentstream.Operation{
			op("BT"),
			op("Tf", fontName("F2"), num(8)),
			op("Tj", text("Nutzungs"), text("ort")),
			op("ET"),
		}

		blocks, _ := AssembleTextBlocks(operations)

		require.Len(t, blocks, 1)
		assert.Equal(t, "Nutzungsort", *blocks[0].Content)
	})

	t.Run("no text leaves content unset", func(t *testing.T) {
		blocks, _ := AssembleTextBlocks(blockOps("F2", 0, 0))

		require.Len(t, blocks, 1)
		assert.Nil(t, blocks[0].Content)
	})
}

func TestAssembleTextBlocksWarnings(t *testing.T) {
	t.Run("double begin keeps the open block", func(t *testing.T) {
		operations := []contentstream.Operation{
			op("BT"),
			op("BT"),
			op("Tj", text("Norden")),
			op("ET"),
		}

		blocks, warnings := AssembleTextBlocks(operations)

		require.Len(t, blocks, 1)
		assert.Equal(t, "Norden", *blocks[0].Content)
		assert.Equal(t, []string{"text block did already begin, got 'BT'"}, warnings)
	})

	t.Run("operations outside a block", func(t *testing.T) {
		operations := []contentstream.Operation{
			op("Tm", num(1), num(0), num(0), num(1), num(10), num(20)),
			op("Tf", fontName("F1"), num(11.25)),
			op("Tj", text("Norden")),
			op("ET"),
		}

		blocks, warnings := AssembleTextBlocks(operations)

		assert.Empty(t, blocks)
		assert.Equal(t, []string{
			"no text block opened, got 'Tm'",
			"no text block opened, got 'Tf'",
			"no text block opened, got 'Tj'",
			"no text block opened, got 'ET'",
		}, warnings)
	})

	t.Run("fill color outside a block is ignored", func(t *testing.T) {
		blocks, warnings := AssembleTextBlocks([]contentstream.Operation{
			op("rg", num(0), num(0), num(0)),
		})

		assert.Empty(t, blocks)
		assert.Empty(t, warnings)
	})

	t.Run("position with wrong operand type", func(t *testing.T) {
		operations := []contentstream.Operation{
			op("BT"),
			op("Tm", num(1), num(0), num(0), num(1), text("x"), num(7)),
			op("ET"),
		}

		blocks, warnings := AssembleTextBlocks(operations)

		require.Len(t, blocks, 1)
		assert.Nil(t, blocks[0].X)
		require.NotNil(t, blocks[0].Y)
		assert.Equal(t, 7.0, *blocks[0].Y)
		assert.Equal(t, []string{"expected number for 'Tm' operand[4]"}, warnings)
	})

	t.Run("font with wrong operand type", func(t *testing.T) {
		operations := []contentstream.Operation{
			op("BT"),
			op("Tf", num(5), num(8)),
			op("ET"),
		}

		blocks, warnings := AssembleTextBlocks(operations)

		require.Len(t, blocks, 1)
		assert.Nil(t, blocks[0].FontFamily)
		require.NotNil(t, blocks[0].FontSize)
		assert.Equal(t, 8.0, *blocks[0].FontSize)
		assert.Equal(t, []string{"expected string for 'Tf' operand[0]"}, warnings)
	})

	t.Run("missing operands stay unset silently", func(t *testing.T) {
		operations := []contentstream.Operation{
			op("BT"),
			op("Tm", num(1), num(0)),
			op("ET"),
		}

		blocks, warnings := AssembleTextBlocks(operations)

		require.Len(t, blocks, 1)
		assert.Nil(t, blocks[0].X)
		assert.Nil(t, blocks[0].Y)
		assert.Empty(t, warnings)
	})
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "Wöß€", decodeText([]byte{0x57, 0xF6, 0xDF, 0x80}))
}

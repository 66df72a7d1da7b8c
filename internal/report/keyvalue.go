package report

// KeyValuePair is one label block together with the value blocks that
// followed it.
type KeyValuePair struct {
	Key    string
	Values []string
}

// fontRole classifies a text block by font family. Reports render labels
// in F1 and values in F2, with F3 used for emphasized values.
type fontRole int

const (
	fontRoleUnknown fontRole = iota
	fontRoleLabel
	fontRoleValue
)

var fontRoles = map[string]fontRole{
	"F1": fontRoleLabel,
	"F2": fontRoleValue,
	"F3": fontRoleValue,
}

// GroupKeyValues pairs label blocks with the value blocks following them,
// page by page. A value block starting a page before any label continues
// the column it shares its x coordinate with, so values wrapping onto the
// next page reach the pair they belong to. Blocks without content or font
// information carry no data and are dropped.
func GroupKeyValues(pages [][]TextBlock) []KeyValuePair {
	g := grouper{columns: make(map[int]*KeyValuePair)}
	for _, blocks := range pages {
		g.groupPage(blocks)
	}

	result := make([]KeyValuePair, len(g.pairs))
	for i, pair := range g.pairs {
		result[i] = *pair
	}
	return result
}

type grouper struct {
	pairs []*KeyValuePair

	// pairs by the truncated x coordinate of their label block, kept
	// across pages
	columns map[int]*KeyValuePair
}

func (g *grouper) groupPage(blocks []TextBlock) {
	var open *KeyValuePair

	for i := range blocks {
		block := &blocks[i]
		if block.Content == nil || block.FontFamily == nil {
			continue
		}
		content := *block.Content

		switch fontRoles[*block.FontFamily] {
		case fontRoleLabel:
			if open != nil {
				g.pairs = append(g.pairs, open)
			}
			open = &KeyValuePair{Key: content}
			if block.X != nil {
				g.columns[int(*block.X)] = open
			}

		case fontRoleValue:
			if open != nil {
				open.Values = append(open.Values, content)
				continue
			}
			g.continueColumn(block, content)
		}
	}

	if open != nil {
		g.pairs = append(g.pairs, open)
	}
}

// continueColumn attaches a value block seen before any label of its page
// to the most recent pair opened at the same x coordinate. Values with no
// position or no matching column are dropped.
func (g *grouper) continueColumn(block *TextBlock, content string) {
	if block.X == nil {
		return
	}
	column, ok := g.columns[int(*block.X)]
	if !ok {
		return
	}
	if len(column.Values) == 0 {
		column.Values = append(column.Values, content)
		return
	}
	column.Values[len(column.Values)-1] += " " + content
}

package cadenza

import (
	"cmp"
	"reflect"
	"slices"
)

// TableDiff describes how one table export evolved into another. Rows are
// matched by water right number and usage location number; matched rows that
// differ in any cell count as modified, with the old state first.
type TableDiff struct {
	// Compared holds the timestamps of both tables, old before new.
	Compared [2]*string `json:"compared"`
	Added    []Row      `json:"added"`
	Removed  []Row      `json:"removed"`
	Modified [][2]Row   `json:"modified"`
}

// Diff compares the table against a newer export.
func (t *Table) Diff(other *Table) TableDiff {
	oldRows := make(map[[2]uint64]*Row, len(t.rows))
	for i := range t.rows {
		oldRows[t.rows[i].key()] = &t.rows[i]
	}
	newRows := make(map[[2]uint64]*Row, len(other.rows))
	for i := range other.rows {
		newRows[other.rows[i].key()] = &other.rows[i]
	}

	keys := make([][2]uint64, 0, max(len(oldRows), len(newRows)))
	for key := range oldRows {
		keys = append(keys, key)
	}
	for key := range newRows {
		if _, known := oldRows[key]; !known {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b [2]uint64) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})

	diff := TableDiff{
		Compared: [2]*string{t.IsoDate(), other.IsoDate()},
		Added:    []Row{},
		Removed:  []Row{},
		Modified: [][2]Row{},
	}
	for _, key := range keys {
		oldRow, inOld := oldRows[key]
		newRow, inNew := newRows[key]
		switch {
		case inOld && !inNew:
			diff.Removed = append(diff.Removed, *oldRow)
		case !inOld && inNew:
			diff.Added = append(diff.Added, *newRow)
		case !reflect.DeepEqual(oldRow, newRow):
			diff.Modified = append(diff.Modified, [2]Row{*oldRow, *newRow})
		}
	}

	return diff
}

// WaterRightNos returns the distinct water right numbers of all added and
// modified rows in ascending order. These are the rights whose reports need
// to be fetched again.
func (d *TableDiff) WaterRightNos() []uint64 {
	known := make(map[uint64]bool)
	var nos []uint64
	for i := range d.Added {
		if no := d.Added[i].No; !known[no] {
			known[no] = true
			nos = append(nos, no)
		}
	}
	for i := range d.Modified {
		if no := d.Modified[i][1].No; !known[no] {
			known[no] = true
			nos = append(nos, no)
		}
	}
	slices.Sort(nos)
	return nos
}

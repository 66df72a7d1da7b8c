package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pair(key string, values ...string) KeyValuePair {
	return KeyValuePair{Key: key, Values: values}
}

// flatten restores the pair sequence a record was segmented from.
func flatten(record *GroupedRecord) []KeyValuePair {
	var pairs []KeyValuePair
	pairs = append(pairs, record.Root...)
	for _, department := range record.Departments {
		pairs = append(pairs, pair(departmentKey, department.Label))
		for _, location := range department.UsageLocations {
			pairs = append(pairs, location...)
		}
	}
	if record.Annotation != nil {
		pairs = append(pairs, pair(*record.Annotation))
	}
	return pairs
}

func TestSegment(t *testing.T) {
	pairs := []KeyValuePair{
		pair("Wasserbuchbehörde", "Landkreis Aurich"),
		pair("Aktenzeichen:", "OOWV 52"),
		pair("Abteilung:", "E - Entnahme", " von Grundwasser"),
		pair("Nutzungsort Lfd. Nr.:", "101 (aktiv, real)"),
		pair("Gewässer:", "-"),
		pair("Nutzungsort Lfd. Nr.:", "102 (inaktiv, virtuell)"),
		pair("Abteilung:", "A - Entnahme von Wasser"),
		pair("Nutzungsort Lfd. Nr.:", "201 (aktiv, real)"),
		pair("Bemerkung:"),
		pair("wichtig"),
	}

	record, err := Segment(pairs, DefaultSegmentOptions())
	require.NoError(t, err)

	assert.Equal(t, []KeyValuePair{
		pair("Wasserbuchbehörde", "Landkreis Aurich"),
		pair("Aktenzeichen:", "OOWV 52"),
	}, record.Root)

	require.Len(t, record.Departments, 2)

	first := record.Departments[0]
	assert.Equal(t, "E - Entnahme von Grundwasser", first.Label)
	assert.Equal(t, [][]KeyValuePair{
		{
			pair("Nutzungsort Lfd. Nr.:", "101 (aktiv, real)"),
			pair("Gewässer:", "-"),
		},
		{pair("Nutzungsort Lfd. Nr.:", "102 (inaktiv, virtuell)")},
	}, first.UsageLocations)

	second := record.Departments[1]
	assert.Equal(t, "A - Entnahme von Wasser", second.Label)
	assert.Equal(t, [][]KeyValuePair{
		{pair("Nutzungsort Lfd. Nr.:", "201 (aktiv, real)")},
	}, second.UsageLocations)

	require.NotNil(t, record.Annotation)
	assert.Equal(t, "Bemerkung: wichtig", *record.Annotation)
}

func TestSegmentAnnotation(t *testing.T) {
	t.Run("no trailing empty pairs means no annotation", func(t *testing.T) {
		record, err := Segment([]KeyValuePair{
			pair("Betreff:", "Trinkwasser"),
		}, DefaultSegmentOptions())

		require.NoError(t, err)
		assert.Nil(t, record.Annotation)
		assert.Len(t, record.Root, 1)
	})

	t.Run("annotation keeps document order", func(t *testing.T) {
		record, err := Segment([]KeyValuePair{
			pair("Betreff:", "Trinkwasser"),
			pair("Bemerkung:"),
			pair("gilt nur"),
			pair("im Sommer"),
		}, DefaultSegmentOptions())

		require.NoError(t, err)
		require.NotNil(t, record.Annotation)
		assert.Equal(t, "Bemerkung: gilt nur im Sommer", *record.Annotation)
	})
}

func TestSegmentEmptyTrailingLocation(t *testing.T) {
	empty := []KeyValuePair{
		pair("Abteilung:", "K - Zwangsrechte"),
	}
	populated := []KeyValuePair{
		pair("Abteilung:", "K - Zwangsrechte"),
		pair("Nutzungsort Lfd. Nr.:", "301 (aktiv, real)"),
	}

	t.Run("empty department keeps one empty location by default", func(t *testing.T) {
		record, err := Segment(empty, DefaultSegmentOptions())

		require.NoError(t, err)
		require.Len(t, record.Departments, 1)
		require.Len(t, record.Departments[0].UsageLocations, 1)
		assert.Empty(t, record.Departments[0].UsageLocations[0])
	})

	t.Run("empty department loses the location when disabled", func(t *testing.T) {
		record, err := Segment(empty, SegmentOptions{KeepEmptyTrailingLocation: false})

		require.NoError(t, err)
		require.Len(t, record.Departments, 1)
		assert.Empty(t, record.Departments[0].UsageLocations)
	})

	t.Run("populated locations are unaffected", func(t *testing.T) {
		record, err := Segment(populated, SegmentOptions{KeepEmptyTrailingLocation: false})

		require.NoError(t, err)
		require.Len(t, record.Departments, 1)
		require.Len(t, record.Departments[0].UsageLocations, 1)
		assert.NotEmpty(t, record.Departments[0].UsageLocations[0])
	})
}

func TestSegmentIdempotent(t *testing.T) {
	pairs := []KeyValuePair{
		pair("Wasserbuchbehörde", "Landkreis Aurich"),
		pair("Abteilung:", "E - Entnahme von Grundwasser"),
		pair("Nutzungsort Lfd. Nr.:", "101 (aktiv, real)"),
		pair("Gewässer:", "Leine"),
		pair("Nutzungsort Lfd. Nr.:", "102 (aktiv, real)"),
		pair("Abteilung:", "K - Zwangsrechte"),
		pair("Bemerkung:"),
		pair("wichtig"),
	}

	record, err := Segment(pairs, DefaultSegmentOptions())
	require.NoError(t, err)

	again, err := Segment(flatten(record), DefaultSegmentOptions())
	require.NoError(t, err)

	assert.Equal(t, record, again)
}

package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/flightprep/internal/table"
)

func TestAppendRejectsWrongWidth(t *testing.T) {
	tbl := table.New(
		table.Column{Name: "a", Kind: table.KindString},
		table.Column{Name: "b", Kind: table.KindFloat},
	)
	require.NoError(t, tbl.Append([]*string{table.String("x"), nil}))
	require.Error(t, tbl.Append([]*string{table.String("x")}))
	assert.Equal(t, 1, tbl.NumRows())
}

func TestAddColumn(t *testing.T) {
	tbl := table.New(table.Column{Name: "a", Kind: table.KindString})
	require.NoError(t, tbl.Append([]*string{table.String("x")}))
	require.NoError(t, tbl.Append([]*string{table.String("y")}))

	require.NoError(t, tbl.AddColumn(
		table.Column{Name: "b", Kind: table.KindInt},
		[]*string{table.Int(1), nil},
	))
	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())

	cell := tbl.Cell(0, "b")
	require.NotNil(t, cell)
	assert.Equal(t, "1", *cell)
	assert.Nil(t, tbl.Cell(1, "b"))

	// Duplicate names and mismatched value counts are rejected.
	require.Error(t, tbl.AddColumn(table.Column{Name: "b"}, []*string{nil, nil}))
	require.Error(t, tbl.AddColumn(table.Column{Name: "c"}, []*string{nil}))
}

func TestCellFormatters(t *testing.T) {
	assert.Equal(t, "1.5", *table.Float(1.5))
	assert.Equal(t, "12", *table.Float(12))
	assert.Equal(t, "-3", *table.Int(-3))
	assert.Nil(t, table.FloatPtr(nil))
	v := 2.25
	assert.Equal(t, "2.25", *table.FloatPtr(&v))
}

func TestCellOutOfRange(t *testing.T) {
	tbl := table.New(table.Column{Name: "a", Kind: table.KindString})
	assert.Nil(t, tbl.Cell(0, "a"))
	assert.Nil(t, tbl.Cell(0, "missing"))
}

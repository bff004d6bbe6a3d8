package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/flightprep/internal/profile"
	"github.com/tigerroll/flightprep/internal/table"
)

func buildTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New(
		table.Column{Name: "ArrDelay", Kind: table.KindString},
		table.Column{Name: "aircraft_model", Kind: table.KindString},
		table.Column{Name: "sparse", Kind: table.KindString},
	)
	rows := [][]*string{
		{table.String("10"), table.String("737-800"), nil},
		{table.String("20"), table.String("737-800"), nil},
		{table.String("30"), table.String("A320"), table.String("x")},
		{nil, table.String("A320"), nil},
		{table.String("not-a-number"), table.String("A319"), nil},
	}
	for _, row := range rows {
		require.NoError(t, tbl.Append(row))
	}
	return tbl
}

func TestSummarizeNullRanking(t *testing.T) {
	s := profile.Summarize(buildTable(t), profile.Options{TopNullColumns: 2})

	assert.Equal(t, 5, s.Rows)
	assert.Equal(t, 3, s.Columns)
	require.Len(t, s.TopNulls, 2)
	assert.Equal(t, "sparse", s.TopNulls[0].Name)
	assert.Equal(t, 4, s.TopNulls[0].Nulls)
	assert.Equal(t, 80.0, s.TopNulls[0].Percent)
}

func TestSummarizeNumericDescription(t *testing.T) {
	s := profile.Summarize(buildTable(t), profile.Options{
		NumericColumns: []string{"ArrDelay", "absent_column"},
	})

	// Absent columns are skipped, not reported.
	require.Len(t, s.Numeric, 1)
	n := s.Numeric[0]
	assert.Equal(t, "ArrDelay", n.Name)
	assert.Equal(t, 3, n.Count)
	// The nil cell and the unparseable cell both count as nulls.
	assert.Equal(t, 2, n.Nulls)
	require.NotNil(t, n.Mean)
	assert.Equal(t, 20.0, *n.Mean)
	require.NotNil(t, n.Std)
	assert.Equal(t, 10.0, *n.Std)
	require.NotNil(t, n.Median)
	assert.Equal(t, 20.0, *n.Median)
	require.NotNil(t, n.Min)
	assert.Equal(t, 10.0, *n.Min)
	require.NotNil(t, n.Max)
	assert.Equal(t, 30.0, *n.Max)
}

func TestSummarizeNumericSingleValueHasNoStd(t *testing.T) {
	tbl := table.New(table.Column{Name: "v", Kind: table.KindString})
	require.NoError(t, tbl.Append([]*string{table.String("5")}))

	s := profile.Summarize(tbl, profile.Options{NumericColumns: []string{"v"}})
	require.Len(t, s.Numeric, 1)
	assert.Nil(t, s.Numeric[0].Std)
	require.NotNil(t, s.Numeric[0].Mean)
	assert.Equal(t, 5.0, *s.Numeric[0].Mean)
}

func TestSummarizeCategoricalTopK(t *testing.T) {
	s := profile.Summarize(buildTable(t), profile.Options{
		CategoricalColumns: []string{"aircraft_model"},
		TopK:               2,
	})

	values := s.Categorical["aircraft_model"]
	require.Len(t, values, 2)
	// Tied counts rank by value ascending.
	assert.Equal(t, profile.ValueCount{Value: "737-800", Count: 2}, values[0])
	assert.Equal(t, profile.ValueCount{Value: "A320", Count: 2}, values[1])
}

func TestSummarizeEmptyTable(t *testing.T) {
	tbl := table.New(table.Column{Name: "v", Kind: table.KindString})
	s := profile.Summarize(tbl, profile.DefaultOptions())
	assert.Equal(t, 0, s.Rows)
	require.Len(t, s.TopNulls, 1)
	assert.Equal(t, 0.0, s.TopNulls[0].Percent)
}

package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/flightprep/internal/schema"
)

func TestResolverMatchesAlternatives(t *testing.T) {
	r := schema.Resolver{
		Alternatives: map[string][]string{
			"flight_date": {"FL_DATE", "FlightDate"},
			"origin":      {"Origin", "ORIGIN"},
		},
		Required: []string{"flight_date", "origin"},
	}

	cols, err := r.Resolve([]string{"FlightDate", "ORIGIN", "Dest"})
	require.NoError(t, err)
	assert.Equal(t, 0, cols["flight_date"])
	assert.Equal(t, 1, cols["origin"])
}

func TestResolverFailsFastNamingAlternatives(t *testing.T) {
	r := schema.Resolver{
		Alternatives: map[string][]string{
			"flight_date": {"FL_DATE", "FlightDate"},
		},
		Required: []string{"flight_date"},
	}

	_, err := r.Resolve([]string{"SomethingElse"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FL_DATE")
	assert.Contains(t, err.Error(), "FlightDate")
}

func TestNullCoercer(t *testing.T) {
	c := schema.NewNullCoercer([]string{"null", "NULL", ""})

	assert.Nil(t, c.Float("null"))
	assert.Nil(t, c.Float("NULL"))
	assert.Nil(t, c.Float(""))
	assert.Nil(t, c.Float("  "))
	assert.Nil(t, c.Float("M")) // unparseable, also missing

	v := c.Float("3.5")
	require.NotNil(t, v)
	assert.Equal(t, 3.5, *v)

	zero := c.Float("0")
	require.NotNil(t, zero)
	assert.Equal(t, 0.0, *zero)
}

func TestParseCSVPadsShortRows(t *testing.T) {
	f, err := schema.ParseCSV(strings.NewReader("a,b,c\n1,2\n"), "test")
	require.NoError(t, err)
	require.Len(t, f.Rows, 1)
	assert.Equal(t, "1", f.Cell(f.Rows[0], 0))
	assert.Equal(t, "", f.Cell(f.Rows[0], 2))
	assert.Equal(t, "", f.Cell(f.Rows[0], 99))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "BWI", schema.NormalizeCode(" bwi "))
	assert.Equal(t, "N123AB", schema.NormalizeCode("n123ab"))
	assert.Equal(t, "", schema.NormalizeCode("  "))
}

func TestNormalizeHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A0B1C2", "a0b1c2"},
		{"0xA0B1C2", "a0b1c2"},
		{" a0b1c2 ", "a0b1c2"},
		{"4ca", "0004ca"},   // left-pad to six
		{"a0-b1.c2", "a0b1c2"}, // non-hex characters stripped
		{"xyz", ""},         // no hex characters at all
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, schema.NormalizeHex(tc.in), "in=%q", tc.in)
	}
}

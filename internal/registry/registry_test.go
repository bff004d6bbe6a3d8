package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/registry"
)

func TestNewIndexDedupesByRecency(t *testing.T) {
	records := []entity.RegistryAircraft{
		{ICAO24: "a0b1c2", AircraftModel: "OLD", LastActionDate: "2015-06-01"},
		{ICAO24: "a0b1c2", AircraftModel: "NEW", LastActionDate: "2019-02-14"},
		{ICAO24: "a0b1c2", AircraftModel: "UNDATED"},
	}
	idx := registry.NewIndex(records)

	r, ok := idx.ByICAO24("a0b1c2")
	require.True(t, ok)
	// Dated records beat undated ones regardless of order.
	assert.Equal(t, "NEW", r.AircraftModel)

	nICAO, nTail := idx.Size()
	assert.Equal(t, 1, nICAO)
	assert.Equal(t, 0, nTail)
}

func TestNewIndexUndatedTieLastOccurrenceWins(t *testing.T) {
	records := []entity.RegistryAircraft{
		{NNumber: "N123AB", RegistrantName: "FIRST"},
		{NNumber: "N123AB", RegistrantName: "SECOND"},
	}
	idx := registry.NewIndex(records)

	r, ok := idx.ByTail("N123AB")
	require.True(t, ok)
	assert.Equal(t, "SECOND", r.RegistrantName)
}

func TestIndexNormalizesLookupKeys(t *testing.T) {
	idx := registry.NewIndex([]entity.RegistryAircraft{
		{ICAO24: "a0b1c2", NNumber: "N123AB", AircraftModel: "737-800"},
	})

	r, ok := idx.ByICAO24("0xA0B1C2")
	require.True(t, ok)
	assert.Equal(t, "737-800", r.AircraftModel)

	r, ok = idx.ByTail(" n123ab ")
	require.True(t, ok)
	assert.Equal(t, "737-800", r.AircraftModel)

	_, ok = idx.ByICAO24("ffffff")
	assert.False(t, ok)
}

func TestLoadCSVResolvesFAAHeaders(t *testing.T) {
	csv := "N-NUMBER,MODE S CODE HEX,MFR,MODEL,LAST ACTION DATE\n" +
		"n123ab ,0xA0B1C2,BOEING,737-800,20190214\n"
	path := filepath.Join(t.TempDir(), "registry.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	records, err := registry.Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "a0b1c2", r.ICAO24)
	assert.Equal(t, "N123AB", r.NNumber)
	assert.Equal(t, "BOEING", r.AircraftManufacturer)
	assert.Equal(t, "20190214", r.LastActionDate)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := registry.Load("registry.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry.json")
}

func TestStoreReplaceAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := registry.OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	records := []entity.RegistryAircraft{
		{ICAO24: "a0b1c2", NNumber: "N123AB", AircraftModel: "737-800"},
		{ICAO24: "ffffff", NNumber: "N999ZZ", AircraftModel: "A320"},
	}
	require.NoError(t, store.Replace(records))

	n, err = store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	found, err := store.LookupICAO24([]string{"0xA0B1C2", "deadbe"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "737-800", found["a0b1c2"].AircraftModel)

	row, err := store.LookupTail("n999zz")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "A320", row.AircraftModel)

	row, err = store.LookupTail("N000XX")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestStoreReplaceSwapsContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := registry.OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Replace([]entity.RegistryAircraft{{ICAO24: "a0b1c2"}}))
	require.NoError(t, store.Replace([]entity.RegistryAircraft{{ICAO24: "ffffff"}}))

	found, err := store.LookupICAO24([]string{"a0b1c2", "ffffff"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	_, gone := found["a0b1c2"]
	assert.False(t, gone)
}

package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const header = "FtoResumoVendaGeralItem[loja_id];FtoResumoVendaGeralItem[material_descr];FtoResumoVendaGeralItem[vl_total];FtoResumoVendaGeralItem[dt_contabil]\n"

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadValidFile(t *testing.T) {
	csv := header +
		"1;Picanha  Angus;1.234,56;07/03/2024\n" +
		"1;chopp;10,00;07/03/2024\n" +
		"2;PICANHA ANGUS;99,90;08/03/2024\n"

	loader := NewLoader(DefaultColumns())
	records, err := loader.Load(writeTemp(t, []byte(csv)))
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, "1", records[0].StoreID)
	require.Equal(t, "PICANHA ANGUS", records[0].Product)
	require.True(t, decimal.RequireFromString("1234.56").Equal(records[0].Amount))
	require.Equal(t, 7, records[0].Date.Day())
}

func TestLoadDropsBadRows(t *testing.T) {
	csv := header +
		"1;GOOD;100,00;07/03/2024\n" +
		"1;ZERO AMOUNT;0,00;07/03/2024\n" +
		"1;BAD AMOUNT;abc;07/03/2024\n" +
		"1;BAD DATE;50,00;99/99/2024\n" +
		"1;;50,00;07/03/2024\n" +
		"1;NaN;50,00;07/03/2024\n"

	loader := NewLoader(DefaultColumns())
	records, err := loader.Load(writeTemp(t, []byte(csv)))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "GOOD", records[0].Product)
}

func TestLoadLatin1Fallback(t *testing.T) {
	// "AÇAÍ" in Latin-1: Ç=0xC7, Í=0xCD. Invalid as UTF-8, so the
	// fallback chain must kick in.
	row := []byte("1;A\xc7A\xcd;10,00;07/03/2024\n")
	data := append([]byte(header), row...)

	loader := NewLoader(DefaultColumns())
	records, err := loader.Load(writeTemp(t, data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "AÇAÍ", records[0].Product)
}

func TestLoadMissingColumnIsFatal(t *testing.T) {
	csv := "loja;produto;valor\n1;X;10,00\n"

	loader := NewLoader(DefaultColumns())
	_, err := loader.Load(writeTemp(t, []byte(csv)))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInput)

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	require.Len(t, missing.Missing, 4)
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	loader := NewLoader(DefaultColumns())
	_, err := loader.Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, ErrInput)
}

func TestLoadNoValidRecordsIsFatal(t *testing.T) {
	csv := header + "1;ONLY ZEROS;0,00;07/03/2024\n"
	loader := NewLoader(DefaultColumns())
	_, err := loader.Load(writeTemp(t, []byte(csv)))
	require.ErrorIs(t, err, ErrInput)
}

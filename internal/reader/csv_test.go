package reader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestReadCSV_Basic(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5,6\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"4", "5", "6"}, rows[2])
}

func TestReadCSV_SkipRows(t *testing.T) {
	input := "Konsumsi Listrik Menurut Provinsi,,\n(GWh),,\nProvinsi,2020,\nACEH,\"2,937.99\",\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{SkipRows: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Provinsi", rows[0][0])
	assert.Equal(t, []string{"ACEH", "2,937.99", ""}, rows[1])
}

func TestReadCSV_SkipRowsCountsBlankLines(t *testing.T) {
	input := "Konsumsi Listrik Menurut Provinsi\n\nProvinsi,2020\nACEH,12\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{SkipRows: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Provinsi", "2020"}, rows[0])
	assert.Equal(t, []string{"ACEH", "12"}, rows[1])
}

func TestReadCSV_SkipRowsPastEnd(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("only one line"), CSVOptions{SkipRows: 2})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSV_StripsBOM(t *testing.T) {
	input := "\ufeffProvinsi,Nilai\nACEH,1\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Provinsi", rows[0][0])
}

func TestReadCSV_BlankLinesIgnored(t *testing.T) {
	input := "h1,h2\n\n,\nACEH,1\n  ,  \nBALI,2\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "BALI", rows[2][0])
}

func TestReadCSV_VariableFields(t *testing.T) {
	input := "a,b\n1,2,3,4\n5\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Len(t, rows[1], 4)
	assert.Len(t, rows[2], 1)
}

func TestReadCSV_TrimSpace(t *testing.T) {
	input := "  ACEH  , 12 \n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{TrimSpace: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ACEH", "12"}, rows[0])
}

func TestReadCSV_SniffsSemicolon(t *testing.T) {
	input := "Judul\nProvinsi;Nilai\nACEH;2,90\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ACEH", "2,90"}, rows[1])
}

func TestReadCSV_ExplicitDelimiter(t *testing.T) {
	input := "a|b\n1|2\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{Delimiter: '|'})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, rows[1])
}

func TestReadCSV_Windows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("Provínsi,Nilai\nACEH,1\n")
	require.NoError(t, err)

	rows, err := ReadCSV(strings.NewReader(encoded), CSVOptions{Encoding: "windows-1252"})
	require.NoError(t, err)
	assert.Equal(t, "Provínsi", rows[0][0])
}

func TestReadCSV_UnknownEncoding(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n"), CSVOptions{Encoding: "klingon-8"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestReadCSV_Empty(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(""), CSVOptions{SkipRows: 2})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

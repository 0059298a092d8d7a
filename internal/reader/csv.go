// Package reader parses the tabular exports published by the statistics
// agency (CSV with an arbitrary charset, or XLSX workbooks) into string rows.
package reader

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter rune   // default ','; 0 sniffs ',' vs ';' from the first data line
	Encoding  string // WHATWG label, default "utf-8"
	SkipRows  int    // physical preamble lines discarded before the header
	TrimSpace bool
}

// ReadCSV decodes r and returns every non-blank row after the preamble. The
// preamble is counted in physical lines, blank ones included. A UTF-8
// byte-order mark is removed whatever the declared encoding.
func ReadCSV(r io.Reader, opts CSVOptions) ([][]string, error) {
	dec, err := decoderFor(opts.Encoding)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return nil, eris.Wrap(err, "csv: decode input")
	}

	raw = skipLines(raw, opts.SkipRows)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = opts.Delimiter
	if reader.Comma == 0 {
		reader.Comma = sniffDelimiter(raw)
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		if isBlank(record) {
			continue
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}
		rows = append(rows, record)
	}

	return rows, nil
}

// decoderFor resolves a charset label. The returned transformer always strips
// a leading UTF-8 BOM.
func decoderFor(label string) (transform.Transformer, error) {
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unsupported encoding %q", label)
	}
	return unicode.BOMOverride(enc.NewDecoder()), nil
}

// skipLines drops the first n lines of data.
func skipLines(data []byte, n int) []byte {
	for range n {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return nil
		}
		data = data[i+1:]
	}
	return data
}

// sniffDelimiter picks ';' when the first non-blank line contains more
// semicolons than commas. Exports saved from spreadsheets in id-ID locale use ';'.
func sniffDelimiter(data []byte) rune {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(strings.Trim(line, ",;\r")) == "" {
			continue
		}
		if strings.Count(line, ";") > strings.Count(line, ",") {
			return ';'
		}
		return ','
	}
	return ','
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

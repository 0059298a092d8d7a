// Package export writes pipeline artifacts: delimited tables, workbooks and
// GeoJSON feature collections.
package export

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/features"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// gwh formats consumption values in plain decimal notation, never with an
// exponent.
type gwh float64

func (g gwh) MarshalText() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(g), 'f', -1, 64), nil
}

func (g *gwh) UnmarshalText(text []byte) error {
	v, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return eris.Wrapf(err, "export: parse %s value %q", model.ColElectricity, text)
	}
	*g = gwh(v)
	return nil
}

// plainRecord is the three-column clean table without the boundary name.
type plainRecord struct {
	Province    string `csv:"Province"`
	Year        int    `csv:"Year"`
	Electricity gwh    `csv:"Electricity_GWh"`
}

// geoRecord is the clean table with the boundary name column. An unmapped
// record leaves the column empty.
type geoRecord struct {
	Province    string  `csv:"Province"`
	Year        int     `csv:"Year"`
	Electricity gwh     `csv:"Electricity_GWh"`
	ProvinceGeo *string `csv:"Province_GeoJSON"`
}

// WriteRecords encodes records as CSV with a header row. The
// Province_GeoJSON column is written only when withGeo is set.
func WriteRecords(w io.Writer, records []model.CleanRecord, withGeo bool) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	var err error
	if withGeo {
		rows := make([]geoRecord, len(records))
		for i, r := range records {
			rows[i] = geoRecord{Province: r.Province, Year: r.Year, Electricity: gwh(r.Electricity), ProvinceGeo: r.ProvinceGeo}
		}
		err = encodeAll(enc, geoRecord{}, rows)
	} else {
		rows := make([]plainRecord, len(records))
		for i, r := range records {
			rows[i] = plainRecord{Province: r.Province, Year: r.Year, Electricity: gwh(r.Electricity)}
		}
		err = encodeAll(enc, plainRecord{}, rows)
	}
	if err != nil {
		return err
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteRecordsCSV writes records to path, creating parent directories.
func WriteRecordsCSV(path string, records []model.CleanRecord, withGeo bool) error {
	return writeFile(path, func(w io.Writer) error { return WriteRecords(w, records, withGeo) })
}

// ReadRecords decodes a table written by WriteRecords. The boundary name
// column is optional.
func ReadRecords(r io.Reader) ([]model.CleanRecord, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "export: read csv header")
	}

	var out []model.CleanRecord
	for {
		var row geoRecord
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrap(err, "export: decode csv row")
		}
		rec := model.CleanRecord{Province: row.Province, Year: row.Year, Electricity: float64(row.Electricity)}
		if row.ProvinceGeo != nil && *row.ProvinceGeo != "" {
			rec.ProvinceGeo = row.ProvinceGeo
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadRecordsCSV reads a table from path.
func ReadRecordsCSV(path string) ([]model.CleanRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadRecords(f)
}

// WriteRawRecords writes the combined pre-cleaning table.
func WriteRawRecords(w io.Writer, records []model.RawRecord) error {
	cw := csv.NewWriter(w)
	if err := encodeAll(csvutil.NewEncoder(cw), model.RawRecord{}, records); err != nil {
		return err
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteRawRecordsCSV writes the combined pre-cleaning table to path.
func WriteRawRecordsCSV(path string, records []model.RawRecord) error {
	return writeFile(path, func(w io.Writer) error { return WriteRawRecords(w, records) })
}

// WriteFeatures encodes transformed feature rows as CSV.
func WriteFeatures(w io.Writer, rows []features.Row) error {
	cw := csv.NewWriter(w)
	if err := encodeAll(csvutil.NewEncoder(cw), features.Row{}, rows); err != nil {
		return err
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteFeaturesCSV writes transformed feature rows to path.
func WriteFeaturesCSV(path string, rows []features.Row) error {
	return writeFile(path, func(w io.Writer) error { return WriteFeatures(w, rows) })
}

// encodeAll writes the header of the row type, then every row, so an empty
// table still carries its header.
func encodeAll(enc *csvutil.Encoder, header any, rows any) error {
	if err := enc.EncodeHeader(header); err != nil {
		return eris.Wrap(err, "export: encode csv header")
	}
	if err := enc.Encode(rows); err != nil {
		return eris.Wrap(err, "export: encode csv rows")
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// Package loader reads the yearly provincial consumption exports into raw
// records. It owns the structural checks of the export format; numeric
// parsing and name canonicalization belong to package clean.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/clean"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/reader"
)

var (
	// ErrNoData is returned when no requested year could be loaded.
	ErrNoData = errors.New("loader: no data loaded")
	// ErrMissingColumns is returned when a file lacks the name and value
	// columns.
	ErrMissingColumns = errors.New("loader: missing required columns")
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Reason names why a row was rejected.
type Reason string

// Rejection reasons.
const (
	ReasonBlankName Reason = "blank_name"
	ReasonYearName  Reason = "year_in_name"
	ReasonBadValue  Reason = "bad_value"
)

// Options describes the export format.
type Options struct {
	// SkipRows is the number of physical preamble lines before the header,
	// blank lines included.
	SkipRows     int
	Encoding     string
	Delimiter    rune
	MissingToken string
	SheetName    string
	// FilePattern names the file of a year, e.g. "electricity_%d.csv".
	FilePattern string
}

// DefaultOptions returns the options of the standard export.
func DefaultOptions() Options {
	return Options{
		SkipRows:     2,
		Encoding:     "utf-8",
		MissingToken: "-",
		FilePattern:  "electricity_%d.csv",
	}
}

// Result is the output of loading one file.
type Result struct {
	Path     string            `json:"path"`
	Year     int               `json:"year"`
	Header   []string          `json:"header"`
	Rows     int               `json:"rows"`
	Records  []model.RawRecord `json:"-"`
	Rejected map[Reason]int    `json:"rejected"`
}

// RejectedTotal returns the number of rejected data rows.
func (r *Result) RejectedTotal() int {
	n := 0
	for _, c := range r.Rejected {
		n += c
	}
	return n
}

// LoadFile reads one yearly export. The file type is chosen by extension:
// .xlsx files are read as workbooks, anything else as delimited text.
func LoadFile(path string, year int, opts Options) (*Result, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = reader.ReadXLSX(path, reader.XLSXOptions{
			SheetName: opts.SheetName,
			SkipRows:  opts.SkipRows,
		})
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "loader: open %s", path)
		}
		defer f.Close()

		rows, err = reader.ReadCSV(f, reader.CSVOptions{
			Delimiter: opts.Delimiter,
			Encoding:  opts.Encoding,
			SkipRows:  opts.SkipRows,
		})
	}
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s", path)
	}

	res, err := FromRows(rows, year, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: %s", path)
	}
	res.Path = path
	return res, nil
}

// FromRows builds a Result from rows already stripped of the preamble. The
// first row is the header and must have at least two columns.
func FromRows(rows [][]string, year int, opts Options) (*Result, error) {
	if len(rows) == 0 || len(rows[0]) < 2 {
		return nil, ErrMissingColumns
	}

	res := &Result{
		Year:     year,
		Header:   rows[0][:2],
		Rows:     len(rows) - 1,
		Rejected: make(map[Reason]int),
	}

	for _, row := range rows[1:] {
		name := strings.TrimSpace(row[0])
		value := ""
		if len(row) > 1 {
			value = strings.TrimSpace(row[1])
		}

		if reason, ok := reject(name, value, opts.MissingToken); ok {
			res.Rejected[reason]++
			continue
		}
		res.Records = append(res.Records, model.RawRecord{
			Province: name,
			Year:     year,
			Value:    value,
		})
	}
	return res, nil
}

// reject applies the per-row structural checks. The missing token is
// accepted: the cleaner decides what a null value becomes.
func reject(name, value, missingToken string) (Reason, bool) {
	switch {
	case name == "":
		return ReasonBlankName, true
	case yearPattern.MatchString(name):
		return ReasonYearName, true
	}
	if missingToken != "" && value == missingToken {
		return "", false
	}
	if _, ok := clean.ParseNumber(value, missingToken); !ok {
		return ReasonBadValue, true
	}
	return "", false
}

// Batch is the combined output of a multi-year load.
type Batch struct {
	Records []model.RawRecord `json:"-"`
	Files   []*Result         `json:"files"`
	Years   []int             `json:"years"`
	Missing []int             `json:"missing"`
	Failed  map[int]string    `json:"failed"`
}

// Rejected sums the rejection counts of all loaded files.
func (b *Batch) Rejected() map[Reason]int {
	out := make(map[Reason]int)
	for _, f := range b.Files {
		for reason, n := range f.Rejected {
			out[reason] += n
		}
	}
	return out
}

// LoadYears loads the file of each year from dir. Missing files and files
// that fail to read are skipped with a warning; a file without the required
// columns aborts the load. At least one year must load or ErrNoData is
// returned. Records keep the request order of years.
func LoadYears(dir string, years []int, opts Options) (*Batch, error) {
	return loadYears(dir, years, opts, LoadFile)
}

type loadFunc func(path string, year int, opts Options) (*Result, error)

func loadYears(dir string, years []int, opts Options, load loadFunc) (*Batch, error) {
	log := zap.L().With(zap.String("component", "loader"))

	pattern := opts.FilePattern
	if pattern == "" {
		pattern = DefaultOptions().FilePattern
	}

	b := &Batch{Missing: []int{}, Failed: make(map[int]string)}
	for _, year := range years {
		path := filepath.Join(dir, fmt.Sprintf(pattern, year))

		if _, err := os.Stat(path); err != nil {
			log.Warn("loader: file not found, skipping year",
				zap.Int("year", year),
				zap.String("path", path),
			)
			b.Missing = append(b.Missing, year)
			continue
		}

		res, err := load(path, year, opts)
		if errors.Is(err, ErrMissingColumns) {
			return nil, err
		}
		if err != nil {
			log.Warn("loader: failed to load file, skipping year",
				zap.Int("year", year),
				zap.String("path", path),
				zap.Error(err),
			)
			b.Failed[year] = err.Error()
			continue
		}

		log.Info("loader: loaded file",
			zap.Int("year", year),
			zap.String("path", path),
			zap.Int("rows", len(res.Records)),
			zap.Int("rejected", res.RejectedTotal()),
		)
		b.Files = append(b.Files, res)
		b.Years = append(b.Years, year)
		b.Records = append(b.Records, res.Records...)
	}

	if len(b.Files) == 0 {
		return nil, eris.Wrapf(ErrNoData, "loader: none of %d requested years in %s", len(years), dir)
	}

	log.Info("loader: batch complete",
		zap.Int("rows", len(b.Records)),
		zap.Ints("years", b.Years),
		zap.Ints("missing", b.Missing),
	)
	return b, nil
}

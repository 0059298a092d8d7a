package export

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// WriteWorkbook writes records to an XLSX workbook with one sheet per year
// plus an "all" sheet, each headed by the column contract.
func WriteWorkbook(path string, records []model.CleanRecord) error {
	file := xlsx.NewFile()

	if err := addRecordSheet(file, "all", records); err != nil {
		return err
	}
	for _, year := range model.Years(records) {
		if err := addRecordSheet(file, strconv.Itoa(year), model.FilterYear(records, year)); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

func addRecordSheet(file *xlsx.File, name string, records []model.CleanRecord) error {
	sheet, err := file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header := sheet.AddRow()
	for _, col := range []string{model.ColProvince, model.ColYear, model.ColElectricity, model.ColProvinceGeo} {
		header.AddCell().SetString(col)
	}
	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Province)
		row.AddCell().SetInt(r.Year)
		row.AddCell().SetFloat(r.Electricity)
		row.AddCell().SetString(r.GeoName())
	}
	return nil
}

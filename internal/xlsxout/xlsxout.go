// Package xlsxout writes an exported table to a spreadsheet or CSV file. It
// is the I/O collaborator of the ledger export: the core builds the dataset,
// this package puts it on disk.
package xlsxout

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ansel1/merry"
	"github.com/fpawel/vctool/internal/view"
	"github.com/tealeg/xlsx/v3"
)

// SheetName names the single sheet of a written workbook.
const SheetName = "virtual condition"

// Write dispatches on the file extension: .xlsx or .csv.
func Write(filename string, t *view.Table) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return WriteXlsx(filename, t)
	case ".csv":
		return WriteCsv(filename, t)
	}
	return merry.Errorf("%s: unsupported export format", filename)
}

func WriteXlsx(filename string, t *view.Table) error {
	wb := xlsx.NewFile()
	sh, err := wb.AddSheet(SheetName)
	if err != nil {
		return merry.Append(err, filename)
	}

	row := sh.AddRow()
	for _, s := range t.Columns() {
		row.AddCell().SetValue(s)
	}
	for _, r := range t.Rows() {
		xr := sh.AddRow()
		for _, c := range r.Cells() {
			cell := xr.AddCell()
			if c.Numeric {
				cell.NumFmt = "0.000"
				cell.SetValue(c.Number)
			} else {
				cell.SetValue(c.Text)
			}
		}
	}

	if err := wb.Save(filename); err != nil {
		return merry.Append(err, filename)
	}
	sh.Close()
	return nil
}

func WriteCsv(filename string, t *view.Table) error {
	f, err := os.Create(filename)
	if err != nil {
		return merry.Append(err, filename)
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Columns()); err != nil {
		_ = f.Close()
		return merry.Append(err, filename)
	}
	for _, r := range t.Rows() {
		rec := make([]string, 0, len(r.Cells()))
		for _, c := range r.Cells() {
			if c.Numeric {
				rec = append(rec, strconv.FormatFloat(c.Number, 'f', -1, 64))
			} else {
				rec = append(rec, c.Text)
			}
		}
		if err := w.Write(rec); err != nil {
			_ = f.Close()
			return merry.Append(err, filename)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return merry.Append(err, filename)
	}
	return f.Close()
}

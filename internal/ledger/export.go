package ledger

import (
	"github.com/fpawel/vctool/internal/view"
)

// ExportColumns is the fixed export schema. Consumers of exported files
// depend on this exact order and naming.
var ExportColumns = []string{
	"Nominal",
	"Upper Limit",
	"Lower Limit",
	"Position Tolerance",
	"Feature Type",
	"Datum",
	"VC@75",
	"VC@80",
	"VC@90",
	"VC@100",
}

// Export builds the tabular dataset of all entries, one row per entry in
// storage order. Writing the table to a file is the caller's concern.
func (x *Ledger) Export() (*view.Table, error) {
	entries, err := x.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyStore.Here()
	}
	t := view.NewTable(ExportColumns...)
	for _, e := range entries {
		row := t.AddRow()
		row.AddNumber(e.Nominal)
		row.AddNumber(e.Upper)
		row.AddNumber(e.Lower)
		row.AddNumber(e.Tolerance)
		row.AddText(e.Feature.String())
		row.AddText(e.Datum)
		row.AddNumber(e.VC75)
		row.AddNumber(e.VC80)
		row.AddNumber(e.VC90)
		row.AddNumber(e.VC100)
	}
	return t, nil
}

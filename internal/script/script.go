// Package script drives a ledger session from a user Lua script. The store
// lives only for the duration of the process, so a batch run — add entries,
// correct them, export — is expressed as one script over one ledger.
//
// The script sees a global `vc` object:
//
//	vc:Add{nominal=0.5, upper=0.01, lower=0.01, tolerance=0.02, feature="pin", datum="A"}
//	vc:EditField(0, "tolerance", "0.03")
//	vc:Delete(0)
//	vc:Save("out.xlsx")
//
// Indices are the ledger's own zero-based indices. Core errors are raised as
// Lua errors and can be caught with pcall.
package script

import (
	"fmt"

	"github.com/ansel1/merry"
	"github.com/fpawel/vctool/internal/calc"
	"github.com/fpawel/vctool/internal/ledger"
	"github.com/fpawel/vctool/internal/xlsxout"
	"github.com/powerman/structlog"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
	luar "layeh.com/gopher-luar"
)

var log = structlog.New()

// Import is the `vc` object exposed to scripts.
type Import struct {
	l   *lua.LState
	lgr *ledger.Ledger
}

func NewImport(l *lua.LState, lgr *ledger.Ledger) *Import {
	return &Import{l: l, lgr: lgr}
}

// Run executes the script file over the given ledger.
func Run(filename string, lgr *ledger.Ledger) error {
	l := lua.NewState()
	defer l.Close()
	l.SetGlobal("vc", luar.New(l, NewImport(l, lgr)))
	log.Info("run script", "file", filename)
	if err := l.DoFile(filename); err != nil {
		return merry.Append(err, filename)
	}
	return nil
}

type entryArgs struct {
	Nominal   float64
	Upper     float64
	Lower     float64
	Tolerance float64
	Feature   string
	Datum     string
}

func (x *Import) input(t *lua.LTable) (calc.Input, string) {
	var a entryArgs
	x.check(gluamapper.Map(t, &a))
	feature, err := calc.ParseFeatureType(a.Feature)
	x.check(err)
	return calc.Input{
		Nominal:   a.Nominal,
		Upper:     a.Upper,
		Lower:     a.Lower,
		Tolerance: a.Tolerance,
		Feature:   feature,
	}, a.Datum
}

// Compute previews the virtual condition values of the given fields without
// touching the ledger.
func (x *Import) Compute(t *lua.LTable) *lua.LTable {
	in, _ := x.input(t)
	res, err := calc.Compute(in)
	x.check(err)
	r := x.l.NewTable()
	r.RawSetString("mmc", lua.LNumber(res.MMC))
	r.RawSetString("vc75", lua.LNumber(res.VC75))
	r.RawSetString("vc80", lua.LNumber(res.VC80))
	r.RawSetString("vc90", lua.LNumber(res.VC90))
	r.RawSetString("vc100", lua.LNumber(res.VC100))
	return r
}

// Add commits an entry and returns its index.
func (x *Import) Add(t *lua.LTable) int {
	in, datum := x.input(t)
	index, err := x.lgr.Add(in, datum)
	x.check(err)
	return index
}

func (x *Import) EditField(index int, field string, value string) {
	f, err := ledger.ParseFieldName(field)
	x.check(err)
	x.check(x.lgr.EditField(index, f, value))
}

func (x *Import) Delete(index int) {
	x.check(x.lgr.Delete(index))
}

func (x *Import) Count() int {
	n, err := x.lgr.Len()
	x.check(err)
	return n
}

// List returns the committed entries in storage order.
func (x *Import) List() []ledger.Entry {
	entries, err := x.lgr.List()
	x.check(err)
	return entries
}

// Save exports the ledger to the named .xlsx or .csv file.
func (x *Import) Save(filename string) {
	t, err := x.lgr.Export()
	x.check(err)
	x.check(xlsxout.Write(filename, t))
	log.Info("saved", "file", filename)
}

// Print writes the current entries to stdout as an aligned text table.
func (x *Import) Print() {
	t, err := x.lgr.Export()
	x.check(err)
	fmt.Print(t.String())
}

func (x *Import) check(err error) {
	if err != nil {
		x.l.RaiseError("%s", err)
	}
}

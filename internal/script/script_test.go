package script

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpawel/vctool/internal/calc"
	"github.com/fpawel/vctool/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	lgr, err := ledger.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, lgr.Close())
	})
	return lgr
}

func runScript(t *testing.T, lgr *ledger.Ledger, src string) error {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "session.lua")
	require.NoError(t, os.WriteFile(filename, []byte(src), 0666))
	return Run(filename, lgr)
}

func TestScriptSession(t *testing.T) {
	lgr := newTestLedger(t)
	err := runScript(t, lgr, `
local i = vc:Add{nominal=0.5, upper=0.01, lower=0.01, tolerance=0.02, feature="pin", datum="a"}
assert(i == 0)
vc:Add{nominal=1, lower=0.1, tolerance=0.05, feature="hole"}
vc:EditField(1, "tolerance", "0.1")
vc:Delete(0)
assert(vc:Count() == 1)
`)
	require.NoError(t, err)

	entries, err := lgr.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, calc.Hole, e.Feature)
	assert.Equal(t, 0.1, e.Tolerance)
	assert.Equal(t, 1.0, e.VC100) // mmc 1.1 - 0.1
}

func TestScriptCompute(t *testing.T) {
	lgr := newTestLedger(t)
	err := runScript(t, lgr, `
local r = vc:Compute{nominal=0.5, upper=0.01, lower=0.01, tolerance=0.02, feature="pin"}
assert(math.abs(r.vc75 - 0.475) < 1e-9)
assert(math.abs(r.vc100 - 0.470) < 1e-9)
assert(vc:Count() == 0)
`)
	require.NoError(t, err)
}

func TestScriptErrorsAreCatchable(t *testing.T) {
	lgr := newTestLedger(t)
	err := runScript(t, lgr, `
local ok = pcall(function() vc:Delete(5) end)
assert(not ok, "delete of missing row must raise")
ok = pcall(function() vc:EditField(0, "nominal", "1") end)
assert(not ok, "edit of missing row must raise")
ok = pcall(function() vc:Save("x.xlsx") end)
assert(not ok, "export of empty ledger must raise")
`)
	require.NoError(t, err)
}

func TestScriptFailureIsReported(t *testing.T) {
	lgr := newTestLedger(t)
	err := runScript(t, lgr, `vc:Delete(0)`)
	assert.Error(t, err)
}

func TestScriptSave(t *testing.T) {
	lgr := newTestLedger(t)
	out := filepath.Join(t.TempDir(), "out.csv")
	err := runScript(t, lgr, fmt.Sprintf(`
vc:Add{nominal=0.5, upper=0.01, lower=0.01, tolerance=0.02, feature="pin", datum="a"}
vc:Save(%q)
`, out))
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Position Tolerance")
	assert.Contains(t, string(data), "0.475")
}

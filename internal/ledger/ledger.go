// Package ledger keeps the ordered collection of committed virtual condition
// entries. The backing store is an in-memory sqlite database: it lives exactly
// as long as the process, which is the whole lifecycle the ledger supports --
// nothing survives a restart except what was explicitly exported.
//
// Entries are addressed by index in storage order. The autoincrement entry_id
// is the stable row identifier: a consumer that re-sorts rows for display must
// map back through it, never through its own display positions.
package ledger

import (
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/ansel1/merry"
	"github.com/fpawel/vctool/internal/calc"
	"github.com/fpawel/vctool/internal/pkg"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	"github.com/powerman/structlog"
)

var (
	ErrIncompleteEntry     = merry.New("incomplete entry")
	ErrInvalidNumericValue = merry.New("invalid numeric value")
	ErrInvalidDatum        = merry.New("datum must be a single letter")
	ErrIndexOutOfRange     = merry.New("index out of range")
	ErrEmptyStore          = merry.New("no entries")
)

var log = structlog.New()

// NoDatum is the stored marker for an entry committed without a datum
// reference.
const NoDatum = "-"

// Entry is a committed record. The four VC values are rounded to three
// decimals at commit time and that rounding is canonical: the stored value is
// the value, not a display artifact.
type Entry struct {
	EntryID   int64            `db:"entry_id" json:"entry_id"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	Nominal   float64          `db:"nominal" json:"nominal"`
	Upper     float64          `db:"upper_limit" json:"upper"`
	Lower     float64          `db:"lower_limit" json:"lower"`
	Tolerance float64          `db:"tolerance" json:"tolerance"`
	Feature   calc.FeatureType `db:"feature" json:"feature"`
	Datum     string           `db:"datum" json:"datum"`
	VC75      float64          `db:"vc75" json:"vc75"`
	VC80      float64          `db:"vc80" json:"vc80"`
	VC90      float64          `db:"vc90" json:"vc90"`
	VC100     float64          `db:"vc100" json:"vc100"`
}

// Input returns the dimensional fields of the entry for recomputation.
func (x Entry) Input() calc.Input {
	return calc.Input{
		Nominal:   x.Nominal,
		Upper:     x.Upper,
		Lower:     x.Lower,
		Tolerance: x.Tolerance,
		Feature:   x.Feature,
	}
}

type Ledger struct {
	db *sqlx.DB
}

// New opens a fresh empty ledger over an in-memory database.
func New() (*Ledger, error) {
	db, err := pkg.OpenSqliteDBx(":memory:")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(SQLCreate); err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func (x *Ledger) Close() error {
	return x.db.Close()
}

// Add validates the input, computes the four VC values, rounds them for
// storage and appends the entry, returning its index.
func (x *Ledger) Add(in calc.Input, datum string) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, ErrIncompleteEntry.WithCause(err)
	}
	d, err := normDatum(datum)
	if err != nil {
		return 0, err
	}
	res, err := calc.Compute(in)
	if err != nil {
		return 0, ErrIncompleteEntry.WithCause(err)
	}
	res = calc.Round3All(res)
	r, err := x.db.Exec(`
INSERT INTO entry (nominal, upper_limit, lower_limit, tolerance, feature, datum, vc75, vc80, vc90, vc100)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Nominal, in.Upper, in.Lower, in.Tolerance, in.Feature.String(), d,
		res.VC75, res.VC80, res.VC90, res.VC100)
	if err != nil {
		return 0, err
	}
	id, err := pkg.SqlGetNewInsertedID(r)
	if err != nil {
		return 0, err
	}
	n, err := x.Len()
	if err != nil {
		return 0, err
	}
	log.Debug("entry added", "entry_id", id, "index", n-1)
	return n - 1, nil
}

// AddRaw commits raw field values from the presentation layer. Unlike the
// preview contract, a blank numeric field here is missing required data, not
// zero.
func (x *Ledger) AddRaw(raw calc.RawInput, datum string) (int, error) {
	var missing *multierror.Error
	for _, f := range []struct {
		name string
		raw  string
	}{
		{"nominal", raw.Nominal},
		{"upper", raw.Upper},
		{"lower", raw.Lower},
		{"tolerance", raw.Tolerance},
	} {
		if strings.TrimSpace(f.raw) == "" {
			missing = multierror.Append(missing, merry.Errorf("field %s was not supplied", f.name))
		}
	}
	if err := missing.ErrorOrNil(); err != nil {
		return 0, ErrIncompleteEntry.WithCause(err)
	}
	in, err := calc.ParseInput(raw)
	if err != nil {
		return 0, err
	}
	return x.Add(in, datum)
}

// Field identifies an editable column of an entry.
type Field string

const (
	FieldNominal   Field = "nominal"
	FieldUpper     Field = "upper"
	FieldLower     Field = "lower"
	FieldTolerance Field = "tolerance"
	FieldFeature   Field = "feature"
	FieldDatum     Field = "datum"
)

func ParseFieldName(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldNominal, FieldUpper, FieldLower, FieldTolerance, FieldFeature, FieldDatum:
		return f, nil
	}
	return "", merry.Errorf("no such field: %q", s)
}

// EditField updates one field of the entry at index. Editing any dimensional
// field recomputes and overwrites all four stored VC values; a failed parse
// rejects the edit and leaves the entry exactly as it was. The VC columns
// themselves are derived and cannot be edited.
func (x *Ledger) EditField(index int, field Field, raw string) error {
	e, err := x.at(index)
	if err != nil {
		return err
	}
	recompute := true
	switch field {
	case FieldNominal, FieldUpper, FieldLower, FieldTolerance:
		v, err := parseEditNumber(raw)
		if err != nil {
			return err
		}
		switch field {
		case FieldNominal:
			e.Nominal = v
		case FieldUpper:
			e.Upper = v
		case FieldLower:
			e.Lower = v
		case FieldTolerance:
			e.Tolerance = v
		}
	case FieldFeature:
		t, err := calc.ParseFeatureType(raw)
		if err != nil {
			return err
		}
		e.Feature = t
	case FieldDatum:
		d, err := normDatum(raw)
		if err != nil {
			return err
		}
		e.Datum = d
		recompute = false
	default:
		return merry.Errorf("no such field: %q", field)
	}

	if recompute {
		res, err := calc.Compute(e.Input())
		if err != nil {
			return ErrInvalidNumericValue.WithCause(err)
		}
		res = calc.Round3All(res)
		e.VC75, e.VC80, e.VC90, e.VC100 = res.VC75, res.VC80, res.VC90, res.VC100
	}

	// single statement, so a failed edit never leaves the row half written
	_, err = x.db.Exec(`
UPDATE entry
SET nominal=?, upper_limit=?, lower_limit=?, tolerance=?, feature=?, datum=?, vc75=?, vc80=?, vc90=?, vc100=?
WHERE entry_id = ?`,
		e.Nominal, e.Upper, e.Lower, e.Tolerance, e.Feature.String(), e.Datum,
		e.VC75, e.VC80, e.VC90, e.VC100, e.EntryID)
	if err != nil {
		return err
	}
	log.Debug("entry edited", "entry_id", e.EntryID, "field", string(field))
	return nil
}

// Delete removes the entry at index. Entries after it shift down by one.
func (x *Ledger) Delete(index int) error {
	e, err := x.at(index)
	if err != nil {
		return err
	}
	if _, err := x.db.Exec(`DELETE FROM entry WHERE entry_id = ?`, e.EntryID); err != nil {
		return err
	}
	log.Debug("entry deleted", "entry_id", e.EntryID, "index", index)
	return nil
}

// List returns a snapshot of all entries in storage order.
func (x *Ledger) List() ([]Entry, error) {
	var entries []Entry
	err := x.db.Select(&entries, `SELECT * FROM entry ORDER BY entry_id`)
	return entries, err
}

// Get returns the entry at index.
func (x *Ledger) Get(index int) (Entry, error) {
	return x.at(index)
}

func (x *Ledger) Len() (int, error) {
	var n int
	err := x.db.Get(&n, `SELECT count(*) FROM entry`)
	return n, err
}

func (x *Ledger) at(index int) (Entry, error) {
	if index < 0 {
		return Entry{}, ErrIndexOutOfRange.Appendf("%d", index)
	}
	var e Entry
	err := x.db.Get(&e, `SELECT * FROM entry ORDER BY entry_id LIMIT 1 OFFSET ?`, index)
	if err == sql.ErrNoRows {
		return Entry{}, ErrIndexOutOfRange.Appendf("%d", index)
	}
	return e, err
}

// parseEditNumber parses a numeric cell edit. A blank value is rejected here:
// the blank-means-zero default belongs to the preview contract only.
func parseEditNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrInvalidNumericValue.Append("blank")
	}
	v, err := calc.ParseField(s)
	if err != nil {
		return 0, ErrInvalidNumericValue.Appendf("%q", raw)
	}
	return v, nil
}

func normDatum(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == NoDatum {
		return NoDatum, nil
	}
	r := []rune(s)
	if len(r) != 1 || !unicode.IsLetter(r[0]) {
		return "", ErrInvalidDatum.Appendf("%q", s)
	}
	return strings.ToUpper(s), nil
}

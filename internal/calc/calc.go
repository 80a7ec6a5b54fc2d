// Package calc computes virtual condition values for pin and hole features
// under position tolerancing. The calculation is pure: identical inputs yield
// bit-identical results, and rounding for storage is left to the caller.
package calc

import (
	"database/sql/driver"
	"math"
	"strconv"
	"strings"

	"github.com/ansel1/merry"
	"github.com/hashicorp/go-multierror"
)

// ErrInvalidInput reports a field which could not be resolved to a finite number.
var ErrInvalidInput = merry.New("invalid input")

// FeatureType tells whether the toleranced feature is an external (pin) or
// internal (hole) feature of size.
type FeatureType int

const (
	Pin FeatureType = iota
	Hole
)

func (x FeatureType) String() string {
	switch x {
	case Pin:
		return "Pin"
	case Hole:
		return "Hole"
	}
	return "FeatureType(" + strconv.Itoa(int(x)) + ")"
}

// ParseFeatureType accepts "pin" and "hole", case-insensitive, with or
// without a "size" suffix as the combo boxes of GUI clients send it.
func ParseFeatureType(s string) (FeatureType, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	t = strings.TrimSuffix(t, " size")
	switch t {
	case "pin":
		return Pin, nil
	case "hole":
		return Hole, nil
	}
	return 0, ErrInvalidInput.Appendf("feature type %q", s)
}

func (x FeatureType) MarshalText() ([]byte, error) {
	switch x {
	case Pin, Hole:
		return []byte(x.String()), nil
	}
	return nil, ErrInvalidInput.Appendf("feature type %d", int(x))
}

func (x *FeatureType) UnmarshalText(b []byte) error {
	t, err := ParseFeatureType(string(b))
	if err != nil {
		return err
	}
	*x = t
	return nil
}

func (x FeatureType) Value() (driver.Value, error) {
	b, err := x.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (x *FeatureType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return x.UnmarshalText([]byte(v))
	case []byte:
		return x.UnmarshalText(v)
	}
	return ErrInvalidInput.Appendf("feature type: %+v", src)
}

// Input holds the resolved dimensional fields of a feature. Upper and Lower
// are signed offsets from Nominal.
type Input struct {
	Nominal   float64
	Upper     float64
	Lower     float64
	Tolerance float64
	Feature   FeatureType
}

// RawInput carries the field values exactly as the presentation layer
// collected them. A blank numeric field resolves to zero.
type RawInput struct {
	Nominal   string
	Upper     string
	Lower     string
	Tolerance string
	Feature   FeatureType
}

// Result holds the virtual condition at each of the fixed bonus tolerance
// percentages, unrounded.
type Result struct {
	MMC   float64
	VC75  float64
	VC80  float64
	VC90  float64
	VC100 float64
}

// ParseField resolves a single numeric field. A blank field means zero, which
// is a deliberate default of the preview contract, not a validation bypass.
func ParseField(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidInput.Appendf("%q", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidInput.Appendf("%q: not finite", raw)
	}
	return v, nil
}

// ParseInput resolves all numeric fields of raw, collecting every failed
// field rather than stopping at the first.
func ParseInput(raw RawInput) (Input, error) {
	in := Input{Feature: raw.Feature}
	var errs *multierror.Error
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"nominal", raw.Nominal, &in.Nominal},
		{"upper", raw.Upper, &in.Upper},
		{"lower", raw.Lower, &in.Lower},
		{"tolerance", raw.Tolerance, &in.Tolerance},
	} {
		v, err := ParseField(f.raw)
		if err != nil {
			errs = multierror.Append(errs, merry.Appendf(err, "field %s", f.name))
			continue
		}
		*f.dst = v
	}
	if err := errs.ErrorOrNil(); err != nil {
		return Input{}, ErrInvalidInput.WithCause(err)
	}
	return in, nil
}

// Validate rejects NaN and infinities. Unusual but well-formed values such as
// negative tolerances or zero nominal are accepted.
func (x Input) Validate() error {
	var errs *multierror.Error
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"nominal", x.Nominal},
		{"upper", x.Upper},
		{"lower", x.Lower},
		{"tolerance", x.Tolerance},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			errs = multierror.Append(errs, ErrInvalidInput.Appendf("field %s: %v is not finite", f.name, f.v))
		}
	}
	if _, err := x.Feature.MarshalText(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return ErrInvalidInput.WithCause(err)
	}
	return nil
}

// Compute returns the virtual condition of the feature at 75, 80, 90 and 100
// percent of the position tolerance.
//
// MMC size is nominal-lower for a pin and nominal+lower for a hole: a pin
// contains the most material at its largest permissible size, a hole at its
// smallest. Each VC value is mmc - tolerance*percentage, in exactly that
// arithmetic order, so results are reproducible bit for bit.
func Compute(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	var mmc float64
	switch in.Feature {
	case Pin:
		mmc = in.Nominal - in.Lower
	case Hole:
		mmc = in.Nominal + in.Lower
	}
	return Result{
		MMC:   mmc,
		VC75:  mmc - in.Tolerance*0.75,
		VC80:  mmc - in.Tolerance*0.80,
		VC90:  mmc - in.Tolerance*0.90,
		VC100: mmc - in.Tolerance*1.00,
	}, nil
}

// Round3 is the canonical rounding applied to computed values before they are
// committed to the ledger. Once stored, the rounded value is the value.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Round3All returns r with every value rounded for storage.
func Round3All(r Result) Result {
	return Result{
		MMC:   Round3(r.MMC),
		VC75:  Round3(r.VC75),
		VC80:  Round3(r.VC80),
		VC90:  Round3(r.VC90),
		VC100: Round3(r.VC100),
	}
}

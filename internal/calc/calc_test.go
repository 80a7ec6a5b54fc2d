package calc

import (
	"math"
	"testing"

	"github.com/ansel1/merry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePinConcreteCase(t *testing.T) {
	res, err := Compute(Input{
		Nominal:   0.500,
		Upper:     0.010,
		Lower:     0.010,
		Tolerance: 0.020,
		Feature:   Pin,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.490, Round3(res.MMC))
	assert.Equal(t, 0.475, Round3(res.VC75))
	assert.Equal(t, 0.474, Round3(res.VC80))
	assert.Equal(t, 0.472, Round3(res.VC90))
	assert.Equal(t, 0.470, Round3(res.VC100))
}

func TestComputeFeatureTypeAsymmetry(t *testing.T) {
	in := Input{Nominal: 1.000, Lower: 0.010}

	in.Feature = Pin
	res, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 0.990, Round3(res.MMC))

	in.Feature = Hole
	res, err = Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 1.010, Round3(res.MMC))
}

func TestComputeDeterministic(t *testing.T) {
	in := Input{Nominal: 12.7003, Upper: 0.0551, Lower: 0.0449, Tolerance: 0.1117, Feature: Hole}
	a, err := Compute(in)
	require.NoError(t, err)
	b, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeMonotonic(t *testing.T) {
	for _, in := range []Input{
		{Nominal: 0.5, Lower: 0.01, Tolerance: 0.02, Feature: Pin},
		{Nominal: 3, Lower: 0.2, Tolerance: 0, Feature: Hole},
		{Nominal: 10, Upper: 0.1, Lower: 0.1, Tolerance: 1.5, Feature: Hole},
	} {
		res, err := Compute(in)
		require.NoError(t, err)
		assert.LessOrEqual(t, res.VC100, res.VC90)
		assert.LessOrEqual(t, res.VC90, res.VC80)
		assert.LessOrEqual(t, res.VC80, res.VC75)
	}
}

func TestComputeAcceptsUnusualValues(t *testing.T) {
	// negative tolerance and zero nominal are valid, only unparseable or
	// missing data is rejected
	_, err := Compute(Input{Nominal: 0, Tolerance: -0.5, Feature: Pin})
	assert.NoError(t, err)
}

func TestParseField(t *testing.T) {
	v, err := ParseField("")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = ParseField("  0.25 ")
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	v, err = ParseField("-1.5e-3")
	require.NoError(t, err)
	assert.Equal(t, -0.0015, v)

	_, err = ParseField("abc")
	assert.True(t, merry.Is(err, ErrInvalidInput))

	_, err = ParseField("inf")
	assert.True(t, merry.Is(err, ErrInvalidInput))

	_, err = ParseField("NaN")
	assert.True(t, merry.Is(err, ErrInvalidInput))
}

func TestParseInput(t *testing.T) {
	in, err := ParseInput(RawInput{Nominal: "0.5", Tolerance: "0.02", Feature: Pin})
	require.NoError(t, err)
	assert.Equal(t, Input{Nominal: 0.5, Tolerance: 0.02, Feature: Pin}, in)

	_, err = ParseInput(RawInput{Nominal: "x", Upper: "y", Feature: Pin})
	require.Error(t, err)
	assert.True(t, merry.Is(err, ErrInvalidInput))
}

func TestValidateRejectsNonFinite(t *testing.T) {
	err := Input{Nominal: math.NaN(), Feature: Pin}.Validate()
	assert.True(t, merry.Is(err, ErrInvalidInput))

	err = Input{Tolerance: math.Inf(1), Feature: Hole}.Validate()
	assert.True(t, merry.Is(err, ErrInvalidInput))
}

func TestParseFeatureType(t *testing.T) {
	for s, want := range map[string]FeatureType{
		"pin":       Pin,
		"Pin":       Pin,
		"Pin Size":  Pin,
		"hole":      Hole,
		"HOLE":      Hole,
		"Hole Size": Hole,
	} {
		got, err := ParseFeatureType(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := ParseFeatureType("slot")
	assert.True(t, merry.Is(err, ErrInvalidInput))
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.474, Round3(0.49-0.02*0.80))
	assert.Equal(t, 1.001, Round3(1.0006))
	assert.Equal(t, -0.001, Round3(-0.0012))
}

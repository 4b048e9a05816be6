package pricing

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTruncatesAboveOneDollar(t *testing.T) {
	cases := []struct {
		raw  float64
		want string
	}{
		{150.567, "150.56"},
		{150.50, "150.50"},
		{150.0, "150.00"},
		{1.005, "1.00"},
		{1.0, "1.00"},
		{42.039, "42.03"},
		{9999.999, "9999.99"},
	}

	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			got, err := Format(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatTruncatesBelowOneDollar(t *testing.T) {
	cases := []struct {
		raw  float64
		want string
	}{
		{0.12345, "0.1234"},
		{0.1, "0.1000"},
		{0.99999, "0.9999"},
		{0.0001, "0.0001"},
		{0.5, "0.5000"},
	}

	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			got, err := Format(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatNeverExceedsInput(t *testing.T) {
	// Truncation must never produce a price above what was requested.
	inputs := []float64{0.0001, 0.12345, 0.9999, 1.005, 1.015, 10.999, 150.567, 1234.5678}

	for _, raw := range inputs {
		t.Run(fmt.Sprintf("%v", raw), func(t *testing.T) {
			got, err := Format(raw)
			require.NoError(t, err)

			parsed, err := strconv.ParseFloat(got, 64)
			require.NoError(t, err)
			assert.LessOrEqual(t, parsed, raw)
		})
	}
}

func TestFormatRejectsNonPositivePrices(t *testing.T) {
	for _, raw := range []float64{0, -5, -0.0001} {
		_, err := Format(raw)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	}
}

package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piggyvault/config"
)

func TestParseAmount(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())

	t.Run("scales decimal strings to base units", func(t *testing.T) {
		for input, want := range map[string]int64{
			"1000":     1_000_000_000,
			"1000.5":   1_000_500_000,
			"0.000001": 1,
			"0":        0,
		} {
			got, err := parseAmount(input)
			require.NoError(t, err, input)
			assert.Equal(t, want, got, input)
		}
	})

	t.Run("rejects strings that are not numbers", func(t *testing.T) {
		for _, input := range []string{"", "ten", "1,5", "1e3x"} {
			_, err := parseAmount(input)
			assert.Error(t, err, input)
		}
	})

	t.Run("rejects precision beyond the asset's decimals", func(t *testing.T) {
		_, err := parseAmount("0.0000001")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decimal places")
	})

	t.Run("rejects amounts beyond the ledger range", func(t *testing.T) {
		_, err := parseAmount("10000000000000")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	})
}

func TestFormatUnits(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())

	assert.Equal(t, "1000", formatUnits(1_000_000_000))
	assert.Equal(t, "2.303638", formatUnits(2_303_638))
	assert.Equal(t, "0.000001", formatUnits(1))
	assert.Equal(t, "0", formatUnits(0))
}

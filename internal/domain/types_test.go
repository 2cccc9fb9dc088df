package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftbazaar/marketgate/internal/domain"
)

func TestParseSUI(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint64
		wantErr bool
	}{
		{"whole amount", "5", 5_000_000_000, false},
		{"fractional amount", "0.5", 500_000_000, false},
		{"bare fraction", ".25", 250_000_000, false},
		{"nine decimals", "0.000000001", 1, false},
		{"surrounding whitespace", " 1 ", 1_000_000_000, false},
		{"maximum amount", "1000000", 1_000_000 * domain.MISTPerSUI, false},
		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"zero with decimals", "0.000", 0, true},
		{"negative", "-1", 0, true},
		{"not a number", "abc", 0, true},
		{"two dots", "1.2.3", 0, true},
		{"ten decimals", "0.0000000001", 0, true},
		{"over the cap", "1000001", 0, true},
		{"fraction over the cap", "1000000.1", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ParseSUI(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatSUI(t *testing.T) {
	tests := []struct {
		name string
		mist uint64
		want string
	}{
		{"whole", 5_000_000_000, "5"},
		{"trimmed decimals", 1_500_000_000, "1.5"},
		{"three decimals", 1_234_000_000, "1.234"},
		{"sub unit keeps six", 500_000_000, "0.500000"},
		{"tiny sub unit", 1_000, "0.000001"},
		{"zero", 0, "0.000000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.FormatSUI(tc.mist))
		})
	}
}

func TestActivityKey(t *testing.T) {
	key := domain.ActivityKey("0xdigest", "2", domain.EventKindSale)
	assert.Equal(t, "0xdigest-2-sale", key)

	// Same transaction, different sequence or kind, different key
	assert.NotEqual(t, key, domain.ActivityKey("0xdigest", "3", domain.EventKindSale))
	assert.NotEqual(t, key, domain.ActivityKey("0xdigest", "2", domain.EventKindCancel))
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMerchant(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name", "SPOTIFY", "SPOTIFY"},
		{"lowercase input", "spotify", "SPOTIFY"},
		{"web suffix and card fragment", "NETFLIX.COM 4521", "NETFLIX"},
		{"generic payment noun", "NETFLIX AUTOPAY", "NETFLIX"},
		{"paypal prefix", "PAYPAL *SPOTIFY", "SPOTIFY"},
		{"square prefix", "SQ *BLUE BOTTLE COFFEE", "BLUE BOTTLE COFFEE"},
		{"legal suffix", "ACME CORP", "ACME"},
		{"date fragment", "ACME 12/05", "ACME"},
		{"long reference number", "ACME 928870021", "ACME"},
		{"punctuation collapse", "HELLO-FRESH", "HELLO FRESH"},
		{"subscription noun", "DISNEY PLUS SUBSCRIPTION", "DISNEY PLUS"},
		{"empty description", "", UnknownMerchant},
		{"pure noise", "PAYMENT 123456", UnknownMerchant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMerchant(tt.input))
		})
	}
}

// Descriptions differing only in embedded numeric ids or date fragments
// must collapse to the same key, otherwise grouping breaks.
func TestNormalizeMerchantCollapsesVariants(t *testing.T) {
	variants := [][2]string{
		{"NETFLIX.COM 4521", "NETFLIX AUTOPAY"},
		{"ACME 12345", "ACME 99999"},
		{"ACME 12/05", "ACME 31/12"},
		{"spotify", "SPOTIFY  "},
		{"GYM CO PAYMENT", "GYM BILL"},
	}

	for _, pair := range variants {
		assert.Equal(t, NormalizeMerchant(pair[0]), NormalizeMerchant(pair[1]),
			"%q and %q should share a key", pair[0], pair[1])
	}
}

func TestNormalizeMerchantDeterministic(t *testing.T) {
	input := "PAYPAL *NETFLIX.COM 4521 10/03"
	first := NormalizeMerchant(input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, NormalizeMerchant(input))
	}
}

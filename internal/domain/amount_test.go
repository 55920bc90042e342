package domain_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora-sync/internal/domain"
)

func TestFormatAmount(t *testing.T) {
	testCases := []struct {
		name     string
		amount   string
		expected string
	}{
		{name: "zero", amount: "0", expected: "0"},
		{name: "one whole unit", amount: "1000000000000000000", expected: "1"},
		{name: "fraction trims zeros", amount: "1500000000000000000", expected: "1.5"},
		{name: "small fraction", amount: "1", expected: "0.000000000000000001"},
		{name: "negative", amount: "-2500000000000000000", expected: "-2.5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amount, ok := new(big.Int).SetString(tc.amount, 10)
			require.True(t, ok)
			assert.Equal(t, tc.expected, domain.FormatAmount(amount))
		})
	}
}

func TestFormatAmount_Nil(t *testing.T) {
	assert.Equal(t, "0", domain.FormatAmount(nil))
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "whole", input: "3", expected: "3000000000000000000"},
		{name: "fraction", input: "0.05", expected: "50000000000000000"},
		{name: "mixed", input: "12.25", expected: "12250000000000000000"},
		{name: "negative", input: "-0.5", expected: "-500000000000000000"},
		{name: "full precision", input: "0.000000000000000001", expected: "1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ParseAmount(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.String())
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "1.2.3", "0.0000000000000000001"} {
		_, err := domain.ParseAmount(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "1.5", "0.000001", "123456.789"} {
		amount, err := domain.ParseAmount(s)
		require.NoError(t, err)
		assert.Equal(t, s, domain.FormatAmount(amount))
	}
}

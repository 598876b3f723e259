package npdsdk

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAmountFromFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{1, "1.00"},
		{10.5, "10.50"},
		{150.555, "150.56"},
		{0.125, "0.13"},
		{99.999, "100.00"},
		{0.3, "0.30"},
		{1.005, "1.01"},
		{1.015, "1.02"},
		{0.285, "0.29"},
		{10.075, "10.08"},
		{2.675, "2.68"},
	}
	for _, tt := range tests {
		a, err := AmountFromFloat(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, a.String(), tt.in)
	}
}

func TestAmountFromFloatRejects(t *testing.T) {
	t.Parallel()

	for _, in := range []float64{-0.01, math.NaN(), math.Inf(1), 1e16} {
		_, err := AmountFromFloat(in)
		require.ErrorIs(t, err, ErrInvalidIncome, in)
	}
}

func TestAmountJSON(t *testing.T) {
	t.Parallel()

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`12.345`), &a))
	require.Equal(t, Amount(1235), a)
	require.Equal(t, 12.35, a.Float())

	data, err := json.Marshal(a)
	require.NoError(t, err)
	require.Equal(t, "12.35", string(data))

	require.NoError(t, json.Unmarshal([]byte(`1.005`), &a))
	require.Equal(t, Amount(101), a)

	require.ErrorIs(t, json.Unmarshal([]byte(`-1`), &a), ErrInvalidIncome)
	require.Error(t, json.Unmarshal([]byte(`"12"`), &a))
}

func TestTotalOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		services []Service
		want     string
	}{
		{name: "empty", services: nil, want: "0.00"},
		{name: "single line", services: []Service{{Amount: 15056, Quantity: 2}}, want: "301.12"},
		{name: "many lines", services: []Service{{Amount: 10000, Quantity: 1}, {Amount: 10100, Quantity: 1}}, want: "201.00"},
		{name: "quantity multiplies", services: []Service{{Amount: 10000, Quantity: 1}, {Amount: 5050, Quantity: 2}}, want: "201.00"},
		{name: "fractional quantity rounds once", services: []Service{{Amount: 333, Quantity: 1.5}}, want: "5.00"},
		{name: "sum of tenths stays exact", services: []Service{{Amount: 10, Quantity: 1}, {Amount: 20, Quantity: 1}}, want: "0.30"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, totalOf(tt.services).String(), tt.name)
	}
}

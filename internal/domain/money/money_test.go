package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNegative(t *testing.T) {
	_, err := New(decimal.NewFromInt(-1), "USD")
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestSub(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Price
		want    string
		wantErr error
	}{
		{
			name: "simple subtraction",
			a:    MustParse("100.00", "USD"),
			b:    MustParse("10.00", "USD"),
			want: "90.00",
		},
		{
			name: "result zero",
			a:    MustParse("5.00", "EUR"),
			b:    MustParse("5.00", "EUR"),
			want: "0.00",
		},
		{
			name:    "negative result rejected",
			a:       MustParse("5.00", "USD"),
			b:       MustParse("6.00", "USD"),
			wantErr: ErrNegativeAmount,
		},
		{
			name:    "currency mismatch",
			a:       MustParse("5.00", "USD"),
			b:       MustParse("1.00", "EUR"),
			wantErr: ErrCurrencyMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Sub(tt.b)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Amount),
				"expected %s, got %s", tt.want, got.Amount)
		})
	}
}

func TestMulPercent(t *testing.T) {
	tests := []struct {
		name    string
		price   Price
		percent string
		want    string
		wantErr error
	}{
		{
			name:    "ten percent of hundred",
			price:   MustParse("100.00", "USD"),
			percent: "10",
			want:    "10.00",
		},
		{
			name:    "ten percent of discounted base",
			price:   MustParse("80.00", "USD"),
			percent: "10",
			want:    "8.00",
		},
		{
			name:    "rounds half away from zero",
			price:   MustParse("23.45", "USD"),
			percent: "10",
			want:    "2.35", // 2.345 rounds up, not to even
		},
		{
			name:    "zero-minor-unit currency",
			price:   MustParse("1000", "JPY"),
			percent: "15",
			want:    "150",
		},
		{
			name:    "three-minor-unit currency",
			price:   MustParse("10.000", "KWD"),
			percent: "33.333",
			want:    "3.333",
		},
		{
			name:    "negative percent rejected",
			price:   MustParse("10.00", "USD"),
			percent: "-5",
			wantErr: ErrInvalidPercent,
		},
		{
			name:    "over hundred rejected",
			price:   MustParse("10.00", "USD"),
			percent: "101",
			wantErr: ErrInvalidPercent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.price.MulPercent(decimal.RequireFromString(tt.percent))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Amount),
				"expected %s, got %s", tt.want, got.Amount)
		})
	}
}

func TestComparisons(t *testing.T) {
	a := MustParse("80.00", "USD")
	b := MustParse("100.00", "USD")

	assert.True(t, a.LessThan(b))
	assert.False(t, b.LessThan(a))
	assert.False(t, a.LessThan(MustParse("100.00", "EUR")), "cross-currency compare is never true")

	assert.True(t, MustParse("2.5", "USD").Equal(MustParse("2.50", "USD")))
	assert.True(t, Zero("USD").IsZero())
}

func TestString(t *testing.T) {
	assert.Equal(t, "12.30 USD", MustParse("12.3", "USD").String())
	assert.Equal(t, "150 JPY", MustParse("150", "JPY").String())
}

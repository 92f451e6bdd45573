package discount

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		wantErr bool
	}{
		{
			name: "valid future window",
			from: now.Add(2 * time.Hour),
			to:   now.Add(50 * time.Hour),
		},
		{
			name:    "start in the past",
			from:    now.Add(-2 * time.Hour),
			to:      now.Add(50 * time.Hour),
			wantErr: true,
		},
		{
			name:    "start exactly now",
			from:    now,
			to:      now.Add(time.Hour),
			wantErr: true,
		},
		{
			name:    "start equals end",
			from:    now.Add(time.Hour),
			to:      now.Add(time.Hour),
			wantErr: true,
		},
		{
			name:    "start after end",
			from:    now.Add(2 * time.Hour),
			to:      now.Add(time.Hour),
			wantErr: true,
		},
		{
			name: "one-instant window is still valid",
			from: now.Add(time.Hour),
			to:   now.Add(time.Hour + time.Nanosecond),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindow(tt.from, tt.to, now)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDate)

				var dateErr *InvalidDateError
				require.ErrorAs(t, err, &dateErr)
				assert.Equal(t, tt.from, dateErr.From)
				assert.Equal(t, tt.to, dateErr.To)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWindowOverlaps(t *testing.T) {
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }
	w := func(from, to int) Window { return Window{From: at(from), To: at(to)} }

	tests := []struct {
		name string
		a, b Window
		want bool
	}{
		{name: "partial overlap", a: w(10, 12), b: w(11, 13), want: true},
		{name: "contained window", a: w(10, 14), b: w(11, 12), want: true},
		{name: "identical windows", a: w(10, 12), b: w(10, 12), want: true},
		{name: "back to back does not overlap", a: w(10, 12), b: w(12, 14), want: false},
		{name: "disjoint windows", a: w(8, 9), b: w(12, 14), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestWindowContains(t *testing.T) {
	from := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)
	win := Window{From: from, To: to}

	assert.True(t, win.Contains(from), "start instant is included")
	assert.True(t, win.Contains(from.Add(time.Hour)))
	assert.False(t, win.Contains(to), "end instant is excluded")
	assert.False(t, win.Contains(from.Add(-time.Second)))
}

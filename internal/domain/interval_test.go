package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    time.Duration
		wantErr bool
	}{
		{name: "one hour", code: "1h", want: time.Hour},
		{name: "one minute", code: "1m", want: time.Minute},
		{name: "one month is distinct from one minute", code: "1M", want: 28 * 24 * time.Hour},
		{name: "surrounding whitespace", code: " 4h ", wantErr: true},
		{name: "upper case hour", code: "1H", wantErr: true},
		{name: "unsupported", code: "7h", wantErr: true},
		{name: "empty", code: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := ParseInterval(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, iv.Duration)
		})
	}
}

func TestSupportedIntervals_OrderedByDuration(t *testing.T) {
	codes := SupportedIntervals()
	require.Len(t, codes, 16)
	assert.Equal(t, "1s", codes[0])
	assert.Equal(t, "1M", codes[len(codes)-1])

	for i := 1; i < len(codes); i++ {
		prev, _ := ParseInterval(codes[i-1])
		cur, _ := ParseInterval(codes[i])
		assert.Less(t, prev.Duration, cur.Duration, "%s should be shorter than %s", codes[i-1], codes[i])
	}
}

func TestWindowSpan_NeverExceedsLimit(t *testing.T) {
	for _, code := range SupportedIntervals() {
		iv, err := ParseInterval(code)
		require.NoError(t, err)

		span := iv.WindowSpanMillis(MaxBatchLimit)
		// Candles open on multiples of the interval, so a half-open span holds span/interval of them.
		assert.LessOrEqual(t, span/iv.Millis(), int64(MaxBatchLimit), code)
		assert.Positive(t, span, code)
	}
}

func TestWindowSpan_OneHour(t *testing.T) {
	iv, err := ParseInterval("1h")
	require.NoError(t, err)
	assert.Equal(t, int64(1000*3600*1000), iv.WindowSpanMillis(1000))
}

func TestWindowSpan_MonthAgainstCalendar(t *testing.T) {
	iv, err := ParseInterval("1M")
	require.NoError(t, err)

	// Count real month starts inside a full window beginning on a month boundary.
	start := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(iv.WindowSpanMillis(MaxBatchLimit)) * time.Millisecond)
	count := 0
	for m := start; m.Before(end); m = m.AddDate(0, 1, 0) {
		count++
	}
	assert.LessOrEqual(t, count, MaxBatchLimit)
}

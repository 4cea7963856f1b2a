package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{name: "empty defaults to UTC", tz: "", wantErr: false},
		{name: "explicit UTC", tz: "UTC", wantErr: false},
		{name: "istanbul", tz: "Europe/Istanbul", wantErr: false},
		{name: "new york", tz: "America/New_York", wantErr: false},
		{name: "garbage", tz: "Mars/Olympus_Mons", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseTimezone(tt.tz)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, time.UTC, loc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, loc)
			if tt.tz != "" && tt.tz != "UTC" {
				assert.Equal(t, tt.tz, loc.String())
			}
		})
	}
}

func TestMustParseTimezone(t *testing.T) {
	assert.NotPanics(t, func() { MustParseTimezone("Europe/Istanbul") })
	assert.Panics(t, func() { MustParseTimezone("Not/A_Zone") })
}

func TestIsValidTimezone(t *testing.T) {
	assert.True(t, IsValidTimezone(""))
	assert.True(t, IsValidTimezone("UTC"))
	assert.True(t, IsValidTimezone("Europe/Istanbul"))
	assert.False(t, IsValidTimezone("Not/A_Zone"))
}

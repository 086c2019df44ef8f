package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilmLength(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "5:00", want: 300},
		{in: "12:30", want: 750},
		{in: "75:00", want: 4500},
		{in: "1:02:03", want: 3723},
		{in: "01:00:00", want: 3600},
		{in: "0:00", want: 0},
		{in: "5", wantErr: true},
		{in: "5:0", wantErr: true},
		{in: "123:00", wantErr: true},
		{in: "1:2:3", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilmLength(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFilmLength(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatFilmLength(0))
	assert.Equal(t, "00:12:30", FormatFilmLength(750))
	assert.Equal(t, "01:02:03", FormatFilmLength(3723))
	assert.Equal(t, "27:46:40", FormatFilmLength(100000))
}

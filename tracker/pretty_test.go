package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrettyTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0m 0s"},
		{59, "0m 59s"},
		{65, "1m 5s"},
		{3599, "59m 59s"},
		{3600, "1h 0m"},
		{3661, "1h 1m"},
		{99*3600 + 59*60 + 59, "99h 59m"},
		{360000, "100h"},
		{360000 + 3599, "100h"},
		{1234 * 3600, "1234h"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PrettyTime(tt.seconds), "PrettyTime(%d)", tt.seconds)
	}
}

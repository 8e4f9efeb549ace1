package numerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/apperror"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		n    int64
		want string
	}{
		{"default width", DefaultConfig(), 8, "0008"},
		{"full width", DefaultConfig(), 9999, "9999"},
		{"widens past capacity", DefaultConfig(), 10000, "10000"},
		{"prefix", Config{Prefix: "S-", PadWidth: 6}, 42, "S-000042"},
		{"zero width falls back to default", Config{}, 1, "0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.cfg, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_FailPolicy(t *testing.T) {
	cfg := Config{PadWidth: 4, Overflow: OverflowFail}

	got, err := Format(cfg, 9999)
	require.NoError(t, err)
	assert.Equal(t, "9999", got)

	_, err = Format(cfg, 10000)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSequenceOverflow, apperror.CodeOf(err))
}

func TestParseOverflowPolicy(t *testing.T) {
	p, err := ParseOverflowPolicy("fail")
	require.NoError(t, err)
	assert.Equal(t, OverflowFail, p)

	p, err = ParseOverflowPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OverflowWiden, p)

	_, err = ParseOverflowPolicy("truncate")
	assert.Error(t, err)
}

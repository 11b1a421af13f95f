package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryInt(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"", 50, true},
		{"10", 10, true},
		{"900", 500, true},
		{"0", 0, false},
		{"-4", 0, false},
		{"ten", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := QueryInt(tt.raw, 50, 500)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("7b0f6a52-3c1e-4d7a-9f55-2f4b8f1c0a11"))
	assert.False(t, IsUUID("7b0f6a523c1e4d7a9f552f4b8f1c0a11"))
	assert.False(t, IsUUID("pixel-1"))
	assert.False(t, IsUUID(""))
}

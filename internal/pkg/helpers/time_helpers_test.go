package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		{"valid", "90s", 90 * time.Second},
		{"empty uses default", "", time.Minute},
		{"invalid uses default", "soon", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDuration(tt.input, time.Minute))
		})
	}
}

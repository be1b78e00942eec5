package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain token untouched", in: "sr-us-256-12345", want: "sr-us-256-12345"},
		{name: "surrounding whitespace trimmed", in: "  204;10|205;2  ", want: "204;10|205;2"},
		{name: "hundred emoji restored", in: "204;10|speed;\U0001F4AF", want: "204;10|speed;:100:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeKey(tt.in))
		})
	}
}

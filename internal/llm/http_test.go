package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryAfter(t *testing.T) {
	tests := map[string]time.Duration{
		"":                              0,
		"7":                             7 * time.Second,
		" 2 ":                           2 * time.Second,
		"0":                             0,
		"-3":                            0,
		"Wed, 21 Oct 2015 07:28:00 GMT": 0,
	}
	for header, want := range tests {
		assert.Equal(t, want, retryAfter(header), "header %q", header)
	}
}

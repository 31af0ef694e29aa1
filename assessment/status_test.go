package assessment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatusIdempotent(t *testing.T) {
	for _, st := range Statuses() {
		first := NormalizeStatus(string(st))
		assert.Equal(t, st, first)
		assert.Equal(t, first, NormalizeStatus(strings.ToLower(string(first))))
	}
}

func TestNormalizeStatusAliases(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"", StatusNotVerified},
		{"banana", StatusNotVerified},
		{"  YES ", StatusFulfilled},
		{"Compliant", StatusFulfilled},
		{"✓", StatusFulfilled},
		{"Non-Compliant", StatusOpen},
		{"✗", StatusOpen},
		{"N/A", StatusNotRequired},
		{"Not Applicable", StatusNotRequired},
		{"gray", StatusNotRequired},
		{"pending", StatusNotVerified},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.raw))
		})
	}
}

func TestIsStatusWord(t *testing.T) {
	assert.True(t, isStatusWord("Open"))
	assert.False(t, isStatusWord(""))
	assert.False(t, isStatusWord("Use management groups"))
}

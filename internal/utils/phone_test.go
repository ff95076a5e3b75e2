package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPhone(t *testing.T) {
	valid := []string{"+919876543210", "919876543210", "+1 (415) 555-0100", "+44 20 7946 0958"}
	for _, phone := range valid {
		assert.True(t, IsValidPhone(phone), phone)
	}

	invalid := []string{"", "abc", "+0123", "++"}
	for _, phone := range invalid {
		assert.False(t, IsValidPhone(phone), phone)
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizePhone("+91 98765 43210"))
	assert.Equal(t, "+14155550100", NormalizePhone("1 (415) 555-0100"))
	assert.Equal(t, "+919876543210", NormalizePhone("919876543210"))
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeZip(t *testing.T) {
	assert.Equal(t, "07306", NormalizeZip("  07306 "))
	assert.Equal(t, "07306", NormalizeZip("07306"))
}

func TestIsValidZip(t *testing.T) {
	valid := []string{"07306", "00501", "99950", " 07306 "}
	for _, zip := range valid {
		assert.True(t, IsValidZip(zip), zip)
	}

	invalid := []string{"", "1234", "123456", "0730a", "07306-1234", "073 06", "-7306"}
	for _, zip := range invalid {
		assert.False(t, IsValidZip(zip), zip)
	}
}

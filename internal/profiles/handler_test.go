package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsernameRegex(t *testing.T) {
	valid := []string{"marie", "jean-74", "lac_annecy", "a1c", "x23456789012345678901234567890ab"}
	for _, u := range valid {
		assert.True(t, usernameRegex.MatchString(u), u)
	}

	// Too short, leading separator, uppercase, whitespace, accents, 33 chars.
	invalid := []string{
		"ab",
		"-marie",
		"Marie",
		"jean annecy",
		"héloïse",
		"x234567890123456789012345678901ab",
	}
	for _, u := range invalid {
		assert.False(t, usernameRegex.MatchString(u), u)
	}
}

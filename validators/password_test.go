package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordValidator(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", "Pw123!secret", nil},
		{"exactly 8 chars", "12345678", nil},
		{"empty", "", ErrPasswordEmpty},
		{"too short", "1234567", ErrPasswordTooShort},
		{"too long", strings.Repeat("a", 256), ErrPasswordTooLong},
		{"255 chars is fine", strings.Repeat("a", 255), nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.ErrorIs(t, PasswordValidator(test.password), test.want)
		})
	}
}

package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfapp/shelf/internal/domain"
	domainerrors "github.com/shelfapp/shelf/internal/errors"
	"github.com/shelfapp/shelf/internal/validation"
)

type signup struct {
	Username string `field:"username" validate:"required,min=3,max=64,username"`
	Email    string `json:"email,omitempty" validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	var de *domainerrors.Error
	require.True(t, errors.As(err, &de), "expected *errors.Error, got %T", err)
	assert.Equal(t, domainerrors.CodeValidation, de.Code)
	fields, ok := de.Details.(map[string]string)
	require.True(t, ok, "details should be map[string]string, got %T", de.Details)
	return fields
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(signup{Username: "josé.s", Email: "jose@example.com", Password: "password123"})
	assert.NoError(t, err)
}

func TestValidator_FieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(signup{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	fields := details(t, err)
	assert.Contains(t, fields, "username", "field tag")
	assert.Contains(t, fields, "email", "json tag without options")
	assert.Contains(t, fields, "Password", "Go field name fallback")
}

func TestValidator_Messages(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name    string
		input   signup
		field   string
		message string
	}{
		{"too short", signup{Username: "al", Email: "a@b.co", Password: "password123"}, "username", "must be at least 3 characters"},
		{"bad characters", signup{Username: "al ice", Email: "a@b.co", Password: "password123"}, "username", "may only contain letters, digits, '.', '_' and '-'"},
		{"invalid email", signup{Username: "alice", Email: "nope", Password: "password123"}, "email", "must be a valid email address"},
		{"short password", signup{Username: "alice", Email: "a@b.co", Password: "short"}, "Password", "must be at least 8 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := details(t, v.Validate(tt.input))
			assert.Equal(t, tt.message, fields[tt.field])
		})
	}
}

func TestValidator_NewBook(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(domain.NewBook{Title: "Dune", Author: "Frank Herbert", Year: 1965}))
	assert.NoError(t, v.Validate(domain.NewBook{Title: "Unknown date", Author: "Anon", Year: 0}))

	err := v.Validate(domain.NewBook{Title: "   ", Author: "", Year: -3, Note: strings.Repeat("n", 4097)})
	fields := details(t, err)
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "is required", fields["author"])
	assert.Equal(t, "must be greater than or equal to 0", fields["year"])
	assert.Equal(t, "must not exceed 4096 characters", fields["note"])

	assert.Equal(t,
		"author is required; note must not exceed 4096 characters; title is required; year must be greater than or equal to 0",
		err.Error())
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "", validation.Summarize(nil))
	assert.Equal(t, "a x; b y", validation.Summarize(map[string]string{"b": "y", "a": "x"}))
}

package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shelfapp/shelf/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := store.ErrNotFound.WithCause(cause)

	assert.Contains(t, err.Error(), "resource not found")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_IsMatchesCopies(t *testing.T) {
	custom := store.ErrAlreadyExists.WithMessage("username taken")
	wrapped := fmt.Errorf("register: %w", custom)

	assert.ErrorIs(t, wrapped, store.ErrAlreadyExists)
	assert.NotErrorIs(t, wrapped, store.ErrNotFound)
	assert.Equal(t, "resource already exists", store.ErrAlreadyExists.Message, "sentinel must not change")
}

func TestParseSortField(t *testing.T) {
	tests := []struct {
		in      string
		want    store.SortField
		wantErr bool
	}{
		{"", store.SortNone, false},
		{"title", store.SortTitle, false},
		{" Author ", store.SortAuthor, false},
		{"YEAR", store.SortYear, false},
		{"added", store.SortAdded, false},
		{"rating", store.SortNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := store.ParseSortField(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, store.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookPatch_IsEmpty(t *testing.T) {
	assert.True(t, BookPatch{}.IsEmpty())
	assert.False(t, BookPatch{Read: Some(false)}.IsEmpty())
	assert.False(t, BookPatch{Note: Some("")}.IsEmpty(), "an explicit empty value is still a supplied field")
}

func TestBookPatch_Apply(t *testing.T) {
	orig := Book{
		ID:     7,
		Title:  "Old Title",
		Author: "Author",
		Year:   2000,
		Genre:  "Genre",
		Note:   "keep me",
	}

	got := BookPatch{
		Title: Some("New Title"),
		Read:  Some(true),
		Genre: Some(""),
	}.Apply(orig)

	assert.Equal(t, "New Title", got.Title)
	assert.True(t, got.Read)
	assert.Empty(t, got.Genre)
	assert.Equal(t, "Author", got.Author)
	assert.Equal(t, 2000, got.Year)
	assert.Equal(t, "keep me", got.Note)
	assert.Equal(t, int64(7), got.ID)
}

func TestOptional(t *testing.T) {
	v, ok := None[int]().Get()
	assert.False(t, ok)
	assert.Zero(t, v)

	v, ok = Some(0).Get()
	assert.True(t, ok)
	assert.Zero(t, v)

	assert.Equal(t, 5, None[int]().Or(5))
	assert.Equal(t, 0, Some(0).Or(5))
}

func TestBook_EqualIgnoresIdentity(t *testing.T) {
	a := &Book{ID: 1, UserID: 1, Title: "Dune", Author: "Frank Herbert", Year: 1965}
	b := &Book{ID: 9, UserID: 2, Title: "Dune", Author: "Frank Herbert", Year: 1965}

	assert.True(t, a.Equal(b))
	b.Read = true
	assert.False(t, a.Equal(b))
}

func TestNormalized(t *testing.T) {
	nb := NewBook{Title: "  Dune ", Author: "\tFrank Herbert", Genre: " ", Note: "ok"}.Normalized()
	assert.Equal(t, NewBook{Title: "Dune", Author: "Frank Herbert", Genre: "", Note: "ok"}, nb)

	p := BookPatch{Title: Some(" Emma "), Note: Some("  ")}.Normalized()
	assert.Equal(t, Some("Emma"), p.Title)
	assert.Equal(t, Some(""), p.Note)
	assert.False(t, p.Author.Set)
	assert.False(t, p.Genre.Set)
}

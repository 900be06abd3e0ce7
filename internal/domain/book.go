package domain

import (
	"strings"
	"time"
)

// Book is a catalog entry owned by exactly one user.
type Book struct {
	ID      int64     `json:"id"`
	UserID  int64     `json:"user_id"`
	Title   string    `json:"title"`
	Author  string    `json:"author"`
	Year    int       `json:"year"`
	Read    bool      `json:"read"`
	Genre   string    `json:"genre,omitempty"`
	Note    string    `json:"note,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// NewBook carries the fields supplied when a book is added or imported.
// Validation tags are enforced by the service layer before the store sees it.
type NewBook struct {
	Title  string `field:"title" validate:"notblank,max=512"`
	Author string `field:"author" validate:"notblank,max=512"`
	Year   int    `field:"year" validate:"gte=0,lte=9999"`
	Read   bool   `field:"read"`
	Genre  string `field:"genre" validate:"max=256"`
	Note   string `field:"note" validate:"max=4096"`
}

// BookPatch describes a partial update. Only fields that are Set are written;
// a Set field with an empty value is written as empty.
type BookPatch struct {
	Title  Optional[string]
	Author Optional[string]
	Year   Optional[int]
	Read   Optional[bool]
	Genre  Optional[string]
	Note   Optional[string]
}

// IsEmpty reports whether the patch supplies no fields at all.
func (p BookPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Author.Set && !p.Year.Set &&
		!p.Read.Set && !p.Genre.Set && !p.Note.Set
}

// Apply returns a copy of b with the patch applied.
func (p BookPatch) Apply(b Book) Book {
	b.Title = p.Title.Or(b.Title)
	b.Author = p.Author.Or(b.Author)
	b.Year = p.Year.Or(b.Year)
	b.Read = p.Read.Or(b.Read)
	b.Genre = p.Genre.Or(b.Genre)
	b.Note = p.Note.Or(b.Note)
	return b
}

// Equal reports whether two books carry the same catalog data.
// IDs, owners and timestamps are ignored.
func (b *Book) Equal(other *Book) bool {
	return b.Title == other.Title &&
		b.Author == other.Author &&
		b.Year == other.Year &&
		b.Read == other.Read &&
		b.Genre == other.Genre &&
		b.Note == other.Note
}

// AsNew returns the catalog fields of b as a NewBook.
func (b *Book) AsNew() NewBook {
	return NewBook{
		Title:  b.Title,
		Author: b.Author,
		Year:   b.Year,
		Read:   b.Read,
		Genre:  b.Genre,
		Note:   b.Note,
	}
}

// Normalized returns nb with surrounding whitespace removed from its text fields.
func (nb NewBook) Normalized() NewBook {
	nb.Title = strings.TrimSpace(nb.Title)
	nb.Author = strings.TrimSpace(nb.Author)
	nb.Genre = strings.TrimSpace(nb.Genre)
	nb.Note = strings.TrimSpace(nb.Note)
	return nb
}

// Normalized returns p with surrounding whitespace removed from the text
// fields it sets. Unset fields stay unset.
func (p BookPatch) Normalized() BookPatch {
	p.Title = trimOptional(p.Title)
	p.Author = trimOptional(p.Author)
	p.Genre = trimOptional(p.Genre)
	p.Note = trimOptional(p.Note)
	return p
}

func trimOptional(o Optional[string]) Optional[string] {
	if o.Set {
		o.Value = strings.TrimSpace(o.Value)
	}
	return o
}

// Package user contains the user record and pure helpers over ordered record lists.
package user

import (
	"strings"

	"github.com/lllypuk/userlist/internal/domain/errs"
)

const (
	// UnsavedID marks a record the server has not assigned an id to yet.
	UnsavedID = 0

	// DefaultName is the name given to a placeholder when the caller supplies none.
	DefaultName = "New User"

	// UpdateMarker is appended to the name of an updated record when no new name is given.
	UpdateMarker = "!"
)

// Record is a user as exposed by the /users collection.
// Records are values: changing one means replacing the record with the same id.
type Record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NewPlaceholder creates an unsaved record for an optimistic add.
func NewPlaceholder(name string) Record {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	return Record{ID: UnsavedID, Name: name}
}

// IsSaved reports whether the record carries a server-assigned id.
func (r Record) IsSaved() bool {
	return r.ID != UnsavedID
}

// Renamed returns a copy of the record with a new name.
// An empty name appends UpdateMarker to the current one.
func (r Record) Renamed(name string) Record {
	name = strings.TrimSpace(name)
	if name == "" {
		name = r.Name + UpdateMarker
	}
	return Record{ID: r.ID, Name: name}
}

// Validate checks the record can be sent to the collection.
func (r Record) Validate() error {
	if r.ID < 0 {
		return errs.ErrInvalidInput
	}
	if strings.TrimSpace(r.Name) == "" {
		return errs.ErrInvalidInput
	}
	return nil
}

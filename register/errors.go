package register

import "errors"

var (
	// ErrDuplicateEntry indicates an entry with this ID is already recorded.
	ErrDuplicateEntry = errors.New("register: duplicate entry")

	// ErrUnknownEntry indicates no entry with this ID is recorded.
	ErrUnknownEntry = errors.New("register: unknown entry")

	// ErrNilEntry indicates a nil entry was submitted.
	ErrNilEntry = errors.New("register: entry is nil")

	// ErrInvalidEntryData indicates a binary entry record is malformed.
	ErrInvalidEntryData = errors.New("register: invalid entry data")
)

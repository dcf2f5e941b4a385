package store

import "errors"

// ErrNotFound indicates a missing record lookup.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a unique key is already taken.
var ErrConflict = errors.New("record already exists")

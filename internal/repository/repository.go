// Package repository contains data access layer abstractions.
// Implementations live in subpackages (mongodb, postgres) inside this directory.
package repository

import "errors"

// ErrNotFound is returned by implementations when an id does not resolve to a record,
// including ids that are not well-formed for the backing store.
var ErrNotFound = errors.New("record not found")

// Package repository holds the MySQL data access layer.  The sentinel
// errors below let the service layer tell a missing row from a lost
// optimistic-concurrency race: ErrNotFound when the row does not exist,
// ErrConflict when it exists but its version moved on.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a version-checked update matched no row
// because another writer changed it first.
var ErrConflict = errors.New("conflict")

// Copyright 2025 Certen Protocol

package database

import "errors"

// ErrNotFound is returned when a requested row does not exist in the
// primary store.
var ErrNotFound = errors.New("entity not found")

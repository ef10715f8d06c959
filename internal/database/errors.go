package database

import "errors"

// ErrNotFound is returned when an operation addresses a record that does not exist
var ErrNotFound = errors.New("record not found")

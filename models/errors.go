package models

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrReferentialIntegrity means a row referenced a pixel or visitor that does not exist.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
)

// Package repository declares the persistence ports used by the use cases.
// Adapters live under internal/infra/adapter/persistence.
package repository

import "errors"

var (
	// ErrNoRows is returned by mutations that matched no row.
	ErrNoRows = errors.New("not found")

	// ErrDuplicate is returned when a unique attribute (e.g. a source RSS URL) already exists.
	ErrDuplicate = errors.New("already exists")

	// ErrActiveJobExists is returned by JobRepository.Create when another non-terminal
	// job already holds the same scope.
	ErrActiveJobExists = errors.New("active job already exists for scope")
)

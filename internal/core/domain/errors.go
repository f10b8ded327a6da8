package domain

import (
	"context"
	"errors"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrDisabled indicates the search index feature is switched off.
	// This is a no-op for callers, never surfaced to users as a failure.
	ErrDisabled = errors.New("search index disabled")

	// ErrManifestNotFound indicates no manifest exists at the configured
	// location. Nothing has been built yet.
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrManifestInvalid indicates the manifest exists but failed schema
	// validation. Distinct from not-found so operators can tell
	// "nothing built yet" from "build produced garbage".
	ErrManifestInvalid = errors.New("manifest invalid")

	// ErrIndexFileNotFound indicates a branch artifact referenced by the
	// manifest is missing or unloadable.
	ErrIndexFileNotFound = errors.New("index file not found")

	// ErrBranchNotIndexed indicates a requested branch is absent from the
	// manifest. Expected during normal operation; drives live fallback.
	ErrBranchNotIndexed = errors.New("branch not indexed")

	// ErrCancelled indicates cooperative cancellation of an in-flight
	// operation. Never logged as a failure.
	ErrCancelled = errors.New("cancelled")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBuildInProgress indicates an index build is already running.
	ErrBuildInProgress = errors.New("build in progress")
)

// IsCancelled reports whether err represents cooperative cancellation,
// either our sentinel or the underlying context errors.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// CancelledOr maps context cancellation to ErrCancelled, leaving other
// errors untouched. Callers use it at adapter boundaries so cancellation
// is distinguishable from network or validation failures.
func CancelledOr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return err
}

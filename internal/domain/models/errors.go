package models

import "errors"

// Typed failure kinds. Callers branch on these with errors.Is to tell
// "train it first" (ErrModelNotFound) apart from "try a longer period"
// (ErrInsufficientData).
var (
	// ErrDataUnavailable: the provider returned nothing for the
	// symbol/period, even after retries.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientData: fewer clean rows than the pipeline or the
	// requested input window needs.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelNotFound: no persisted artifact for the requested or
	// best-selected algorithm.
	ErrModelNotFound = errors.New("model not found")

	// ErrUnknownAlgorithm: algorithm outside the supported set.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrArtifactCorrupt: artifact load failure not attributable to the
	// known config versioning hazard.
	ErrArtifactCorrupt = errors.New("artifact corrupt")
)

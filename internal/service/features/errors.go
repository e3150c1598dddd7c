package features

import "errors"

var (
	// ErrLotNotFound is returned when the requested lot does not exist.
	ErrLotNotFound = errors.New("lot not found")
	// ErrUnknownFeatureSet is returned for a feature set version the engine cannot build.
	ErrUnknownFeatureSet = errors.New("unknown feature set")
)

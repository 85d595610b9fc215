package apperrors

import "errors"

// Sentinel errors shared by the storage, leaderboard, receipt and api packages
// without creating import cycles between them.
var (
	ErrNotConfigured  = errors.New("leaderboard backend not configured")
	ErrInvalidReceipt = errors.New("invalid run receipt")
	ErrRunNotComplete = errors.New("run is not complete")
)

// Package domain defines the run records, the sync coordinator and the weekly aggregator.
package domain

import "errors"

var (
	// ErrConfig indicates missing or invalid configuration, credentials, or an ambiguous sync start.
	ErrConfig = errors.New("configuration error")
	// ErrAuthRefresh is returned when exchanging the refresh token fails.
	ErrAuthRefresh = errors.New("token refresh failed")
	// ErrFetch is returned when the activity API call fails or returns malformed data.
	ErrFetch = errors.New("activity fetch failed")
	// ErrWrite is returned when inserting records fails.
	ErrWrite = errors.New("activity write failed")
	// ErrQuery is returned when reading records fails.
	ErrQuery = errors.New("activity query failed")
	// ErrNoRows reports an insert with nothing to write. It is not a failure.
	ErrNoRows = errors.New("no rows to insert")
	// ErrNoStartBoundary is returned by Sync when the table is empty and no start date is known.
	ErrNoStartBoundary = errors.New("no stored runs and no start date: pass a manual start date or set sync.default_start")
)

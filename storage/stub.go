package storage

import (
	"context"

	"card-flip/apperrors"
)

// StubStore stands in when no backend is configured. Every operation
// fails with apperrors.ErrNotConfigured; nothing panics.
type StubStore struct{}

// NewStubStore returns the not-configured backend.
func NewStubStore() *StubStore {
	return &StubStore{}
}

func (*StubStore) InsertScore(context.Context, ScoreRecord) (ScoreRecord, error) {
	return ScoreRecord{}, apperrors.ErrNotConfigured
}

func (*StubStore) TopScores(context.Context, int) ([]ScoreRecord, error) {
	return nil, apperrors.ErrNotConfigured
}

func (*StubStore) Close() {}

// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(store.MemoryPath)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Task builds a pending task due at due, created one week earlier.
func Task(id, title string, due time.Time) model.Task {
	return model.Task{
		ID:        id,
		Title:     title,
		Status:    model.StatusPending,
		DueDate:   due.UTC().Format(time.RFC3339),
		UserID:    "user-1",
		CreatedAt: due.Add(-7 * 24 * time.Hour).UTC(),
		UpdatedAt: due.Add(-7 * 24 * time.Hour).UTC(),
	}
}

// SeedTasks upserts tasks into s, failing the test on error.
func SeedTasks(t *testing.T, s store.Store, tasks ...model.Task) {
	t.Helper()

	if err := s.UpsertTasks(context.Background(), tasks); err != nil {
		t.Fatalf("seeding tasks: %v", err)
	}
}

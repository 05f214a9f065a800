// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ideas

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/quillworks/quill/models"
	"github.com/quillworks/quill/store"
)

// ErrTooLong is returned when a submitted idea exceeds models.MaxPromptLen.
var ErrTooLong = errors.New("idea exceeds maximum length")

// Repository provides read access to the curated idea pools and accepts
// user-submitted prompt ideas.
type Repository struct {
	store *store.Store
}

func New(st *store.Store) *Repository {
	return &Repository{store: st}
}

// Pool loads one idea pool by key. Any failure degrades to an empty pool:
// the bot keeps running without ideas rather than crashing.
func (r *Repository) Pool(key string) []string {
	raw, ok, err := r.store.Get(key)
	if err != nil {
		slog.Error("failed to load idea pool", "pool", key, "error", err)
		return nil
	}
	if !ok {
		slog.Warn("idea pool missing", "pool", key)
		return nil
	}

	var rec models.IdeaPoolRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Error("malformed idea pool record", "pool", key, "error", err)
		return nil
	}
	return rec.Ideas
}

// PlotIdeas returns the plot idea pool.
func (r *Repository) PlotIdeas() []string {
	return r.Pool(models.KeyPlotIdeas)
}

// TwistIdeas returns the twist idea pool.
func (r *Repository) TwistIdeas() []string {
	return r.Pool(models.KeyTwistIdeas)
}

// Submit stores a user-submitted prompt idea. Submissions longer than
// models.MaxPromptLen are rejected with ErrTooLong and nothing is written.
// The inputs record keeps set semantics: re-submitting an existing idea is
// a no-op.
func (r *Repository) Submit(text string) error {
	if utf8.RuneCountInString(text) > models.MaxPromptLen {
		return ErrTooLong
	}

	raw, ok, err := r.store.Get(models.KeyUserInputs)
	if err != nil {
		return fmt.Errorf("load user inputs: %w", err)
	}

	var rec models.UserInputsRecord
	if ok {
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("malformed user inputs record: %w", err)
		}
	}

	for _, existing := range rec.Inputs {
		if existing == text {
			return nil
		}
	}
	rec.Inputs = append(rec.Inputs, text)

	if err := r.store.Set(models.KeyUserInputs, rec); err != nil {
		return fmt.Errorf("save user inputs: %w", err)
	}

	slog.Info("prompt idea submitted", "total", len(rec.Inputs))
	return nil
}

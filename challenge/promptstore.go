// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package challenge

import (
	"encoding/json"
	"fmt"

	"github.com/quillworks/quill/models"
	"github.com/quillworks/quill/store"
)

// PromptStore is the durable single slot holding the active round's prompt.
// A persisted prompt means the challenge is active; an empty slot means
// inactive. Only Start writes it and only End clears it.
type PromptStore struct {
	store *store.Store
}

func NewPromptStore(st *store.Store) *PromptStore {
	return &PromptStore{store: st}
}

func (p *PromptStore) Save(text string) error {
	if err := p.store.Set(models.KeyCurrentPrompt, models.PromptRecord{Text: text}); err != nil {
		return fmt.Errorf("save prompt: %w", err)
	}
	return nil
}

// Load returns the persisted prompt, or ok=false if no round is active.
func (p *PromptStore) Load() (text string, ok bool, err error) {
	raw, ok, err := p.store.Get(models.KeyCurrentPrompt)
	if err != nil {
		return "", false, fmt.Errorf("load prompt: %w", err)
	}
	if !ok {
		return "", false, nil
	}

	var rec models.PromptRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", false, fmt.Errorf("malformed prompt record: %w", err)
	}
	return rec.Text, true, nil
}

func (p *PromptStore) Clear() error {
	if err := p.store.Delete(models.KeyCurrentPrompt); err != nil {
		return fmt.Errorf("clear prompt: %w", err)
	}
	return nil
}

//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package conversation

import (
	"errors"
	"fmt"
)

// Item is a single-turn offline evaluation unit. No agent execution is
// involved: the completion is already captured.
type Item struct {
	// ID uniquely identifies the item.
	ID string `json:"id"`
	// Prompt is the user prompt.
	Prompt string `json:"prompt"`
	// Completion is the captured model completion.
	Completion string `json:"completion"`
	// Metadata carries optional item annotations.
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Validate checks the item for structural problems.
func (i *Item) Validate() error {
	if i == nil {
		return errors.New("item is nil")
	}
	if i.ID == "" {
		return errors.New("item id is empty")
	}
	if i.Prompt == "" {
		return fmt.Errorf("item %s: prompt is empty", i.ID)
	}
	if err := i.Metadata.Validate(); err != nil {
		return fmt.Errorf("item %s: %w", i.ID, err)
	}
	return nil
}

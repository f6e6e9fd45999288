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
	"encoding/json"
	"fmt"
	"os"
)

// LoadItems loads hand-authored dataset items from a JSON file and validates
// them at the boundary.
func LoadItems(path string) ([]*Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items file %s: %w", path, err)
	}
	var items []*Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal items file %s: %w", path, err)
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("validate items file %s: %w", path, err)
		}
	}
	return items, nil
}

// LoadConversations loads hand-authored conversation fixtures from a JSON
// file, re-validating the step index invariant for each one.
func LoadConversations(path string) ([]*Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversations file %s: %w", path, err)
	}
	var raw []*Conversation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal conversations file %s: %w", path, err)
	}
	conversations := make([]*Conversation, 0, len(raw))
	for _, c := range raw {
		validated, err := New(c.ID, c.Steps, c.Metadata)
		if err != nil {
			return nil, fmt.Errorf("validate conversations file %s: %w", path, err)
		}
		conversations = append(conversations, validated)
	}
	return conversations, nil
}

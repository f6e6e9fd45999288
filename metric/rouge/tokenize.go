//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package rouge

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	sentencesdata "github.com/neurosnap/sentences/data"
)

var (
	nonAlphaNumRE = regexp.MustCompile(`[^a-z0-9]+`)
	spacesRE      = regexp.MustCompile(`\s+`)
)

// tokenize lowercases the text, strips punctuation and splits it into
// word tokens.
func tokenize(text string) []string {
	text = nonAlphaNumRE.ReplaceAllString(strings.ToLower(text), " ")
	parts := spacesRE.Split(strings.TrimSpace(text), -1)
	tokens := make([]string, 0, len(parts))
	for _, token := range parts {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

var (
	sentenceTokenizerOnce sync.Once
	sentenceTokenizer     *sentences.DefaultSentenceTokenizer
	sentenceTokenizerErr  error
)

// splitSentences splits English text into sentences using the bundled
// Punkt training data.
func splitSentences(text string) ([]string, error) {
	sentenceTokenizerOnce.Do(func() {
		data, err := sentencesdata.Asset("data/english.json")
		if err != nil {
			sentenceTokenizerErr = fmt.Errorf("load english punkt data: %w", err)
			return
		}
		training, err := sentences.LoadTraining(data)
		if err != nil {
			sentenceTokenizerErr = fmt.Errorf("parse english punkt data: %w", err)
			return
		}
		sentenceTokenizer = sentences.NewSentenceTokenizer(training)
	})
	if sentenceTokenizerErr != nil {
		return nil, sentenceTokenizerErr
	}
	raw := sentenceTokenizer.Tokenize(text)
	out := make([]string, 0, len(raw))
	for _, sentence := range raw {
		trimmed := strings.TrimSpace(sentence.Text)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

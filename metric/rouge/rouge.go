//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package rouge provides a ROUGE-N similarity code metric comparing a
// target's response against a reference text.
package rouge

import (
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-agent-bench/metric"
)

// referenceLabel is the metadata label the default reference lookup reads.
const referenceLabel = "reference"

// Score holds precision, recall and F-measure of one comparison.
type Score struct {
	// Precision is the fraction of prediction n-grams found in the reference.
	Precision float64 `json:"precision"`
	// Recall is the fraction of reference n-grams found in the prediction.
	Recall float64 `json:"recall"`
	// FMeasure is the harmonic mean of precision and recall.
	FMeasure float64 `json:"fMeasure"`
}

// ReferenceFunc resolves the reference text for a target.
type ReferenceFunc func(target metric.Target) (string, error)

type options struct {
	n              int
	scope          metric.Scope
	reference      ReferenceFunc
	splitSentences bool
}

// Option configures the rouge metric.
type Option func(*options)

// WithN sets the n-gram order, 1 by default.
func WithN(n int) Option {
	return func(o *options) {
		o.n = n
	}
}

// WithScope sets the metric scope, single by default.
func WithScope(scope metric.Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// WithReference sets how the reference text is resolved. The default
// reads the "reference" metadata label of the target.
func WithReference(reference ReferenceFunc) Option {
	return func(o *options) {
		o.reference = reference
	}
}

// WithSentenceSplit scores at sentence level: the texts are split into
// sentences with a Punkt tokenizer and each reference sentence is matched
// against its best-scoring prediction sentence.
func WithSentenceSplit() Option {
	return func(o *options) {
		o.splitSentences = true
	}
}

// New builds a cacheable code metric computing the ROUGE-N F-measure
// between the target's response and its reference text.
func New(name string, opt ...Option) (*metric.Metric, error) {
	opts := options{n: 1, scope: metric.ScopeSingle, reference: metadataReference}
	for _, o := range opt {
		o(&opts)
	}
	if opts.n <= 0 {
		return nil, fmt.Errorf("rouge metric: invalid n-gram order %d", opts.n)
	}
	m := &metric.Metric{
		Definition: metric.Definition{
			Name:        name,
			ValueType:   metric.ValueNumber,
			Scope:       opts.scope,
			Description: fmt.Sprintf("ROUGE-%d F-measure against the reference text", opts.n),
			Cacheable:   true,
		},
		Code: &metric.CodeSpec{
			Compute: func(target metric.Target) (any, error) {
				reference, err := opts.reference(target)
				if err != nil {
					return nil, err
				}
				score, err := compute(reference, target.Response(), &opts)
				if err != nil {
					return nil, err
				}
				return score.FMeasure, nil
			},
			Normalize: metric.Identity(),
		},
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func metadataReference(target metric.Target) (string, error) {
	metadata := target.Metadata()
	if metadata == nil || metadata.Labels[referenceLabel] == "" {
		return "", fmt.Errorf("rouge metric: target %q has no %q label", target.ID(), referenceLabel)
	}
	return metadata.Labels[referenceLabel], nil
}

func compute(reference, prediction string, opts *options) (Score, error) {
	if opts.splitSentences {
		return scoreSentences(reference, prediction, opts.n)
	}
	return scoreNGrams(tokenize(reference), tokenize(prediction), opts.n), nil
}

// scoreNGrams computes ROUGE-N precision, recall and F-measure over
// tokenized inputs.
func scoreNGrams(referenceTokens, predictionTokens []string, n int) Score {
	if len(referenceTokens) == 0 || len(predictionTokens) == 0 {
		return Score{}
	}
	referenceNGrams := ngramCounts(referenceTokens, n)
	predictionNGrams := ngramCounts(predictionTokens, n)

	var hits, referenceTotal, predictionTotal int
	for key, count := range referenceNGrams {
		referenceTotal += count
		if predictionCount, ok := predictionNGrams[key]; ok {
			hits += min(count, predictionCount)
		}
	}
	for _, count := range predictionNGrams {
		predictionTotal += count
	}
	if referenceTotal == 0 || predictionTotal == 0 {
		return Score{}
	}
	precision := float64(hits) / float64(predictionTotal)
	recall := float64(hits) / float64(referenceTotal)
	return Score{Precision: precision, Recall: recall, FMeasure: fMeasure(precision, recall)}
}

// scoreSentences matches each reference sentence against its best-scoring
// prediction sentence and averages F-measures weighted by reference
// sentence length.
func scoreSentences(reference, prediction string, n int) (Score, error) {
	referenceSentences, err := splitSentences(reference)
	if err != nil {
		return Score{}, err
	}
	predictionSentences, err := splitSentences(prediction)
	if err != nil {
		return Score{}, err
	}
	if len(referenceSentences) == 0 || len(predictionSentences) == 0 {
		return Score{}, errors.New("rouge metric: empty reference or prediction")
	}
	predictionTokens := make([][]string, 0, len(predictionSentences))
	for _, sentence := range predictionSentences {
		predictionTokens = append(predictionTokens, tokenize(sentence))
	}
	var weightTotal float64
	var aggregate Score
	for _, sentence := range referenceSentences {
		referenceTokens := tokenize(sentence)
		if len(referenceTokens) == 0 {
			continue
		}
		best := Score{}
		for _, candidate := range predictionTokens {
			if score := scoreNGrams(referenceTokens, candidate, n); score.FMeasure > best.FMeasure {
				best = score
			}
		}
		weight := float64(len(referenceTokens))
		weightTotal += weight
		aggregate.Precision += weight * best.Precision
		aggregate.Recall += weight * best.Recall
		aggregate.FMeasure += weight * best.FMeasure
	}
	if weightTotal == 0 {
		return Score{}, nil
	}
	aggregate.Precision /= weightTotal
	aggregate.Recall /= weightTotal
	aggregate.FMeasure /= weightTotal
	return aggregate, nil
}

func ngramCounts(tokens []string, n int) map[string]int {
	if n <= 0 || len(tokens) < n {
		return map[string]int{}
	}
	counts := make(map[string]int, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}

func fMeasure(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

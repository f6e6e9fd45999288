//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// scorePattern matches "Score: 4.5", "score = 3" or "Rating: 5".
	scorePattern = regexp.MustCompile(`(?i)(?:score|rating)[:=\s]+(-?\d+\.?\d*)`)
	// labelPattern matches "Label: good" style ordinal answers.
	labelPattern = regexp.MustCompile(`(?i)label[:=\s]+([a-z0-9_-]+)`)
	// reasoningPattern captures everything after a reasoning marker.
	reasoningPattern = regexp.MustCompile(`(?is)(?:reasoning|explanation|justification)[:=\s]+(.+)`)
)

// parseJudgment extracts a Judgment out of a raw judge completion.
// Numeric rubrics require a score line; ordinal rubrics require a label that
// appears in the rubric's ordinal list.
func parseJudgment(response string, rubric *Rubric) (*Judgment, error) {
	judgment := &Judgment{Raw: response, Reasoning: parseReasoning(response)}
	if len(rubric.Ordinals) > 0 {
		ordinal, err := parseOrdinal(response, rubric.Ordinals)
		if err != nil {
			return nil, err
		}
		judgment.Ordinal = ordinal
		return judgment, nil
	}
	score, err := parseScore(response)
	if err != nil {
		return nil, err
	}
	if rubric.Scale.Max > rubric.Scale.Min {
		if score < rubric.Scale.Min || score > rubric.Scale.Max {
			return nil, fmt.Errorf("score %g outside scale [%g, %g]", score, rubric.Scale.Min, rubric.Scale.Max)
		}
	}
	judgment.Score = score
	return judgment, nil
}

// parseScore extracts a numeric score from a judge response.
func parseScore(response string) (float64, error) {
	matches := scorePattern.FindStringSubmatch(response)
	if len(matches) < 2 {
		return 0, fmt.Errorf("no score found in response %q", response)
	}
	score, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", matches[1], err)
	}
	return score, nil
}

// parseOrdinal extracts an ordinal label from a judge response.
// A "Label:" line wins; otherwise the first allowed label found anywhere in
// the response is used.
func parseOrdinal(response string, allowed []string) (string, error) {
	if matches := labelPattern.FindStringSubmatch(response); len(matches) >= 2 {
		for _, label := range allowed {
			if strings.EqualFold(label, matches[1]) {
				return label, nil
			}
		}
	}
	lower := strings.ToLower(response)
	for _, label := range allowed {
		if strings.Contains(lower, strings.ToLower(label)) {
			return label, nil
		}
	}
	return "", fmt.Errorf("no label out of %v found in response %q", allowed, response)
}

// parseReasoning extracts the judge's explanation, empty when absent.
func parseReasoning(response string) string {
	matches := reasoningPattern.FindStringSubmatch(response)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(matches[1])
}

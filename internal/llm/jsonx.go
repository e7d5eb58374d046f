package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrBadFormat means the model output carried no parseable JSON payload of
// the expected shape. Callers surface it as a "unexpected format, please
// retry" condition; it never crashes a pipeline.
var ErrBadFormat = errors.New("model output is not in the expected format")

var codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// FirstArray returns the greedy first-bracket-to-last-bracket array-shaped
// substring of model output. Two-stage recovery: locate the span, then let
// the caller attempt a structured parse rather than assuming well-formed output.
func FirstArray(s string) (string, error) {
	return firstSpan(stripCodeFence(s), '[', ']')
}

// FirstObject is the object-shaped counterpart of FirstArray.
func FirstObject(s string) (string, error) {
	return firstSpan(stripCodeFence(s), '{', '}')
}

func firstSpan(s string, open, shut byte) (string, error) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, shut)
	if start < 0 || end < start {
		return "", ErrBadFormat
	}
	return s[start : end+1], nil
}

// UnmarshalFirstArray extracts and decodes the first array-shaped substring.
func UnmarshalFirstArray(s string, v any) error {
	raw, err := FirstArray(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	return nil
}

// UnmarshalFirstObject extracts and decodes the first object-shaped substring.
func UnmarshalFirstObject(s string, v any) error {
	raw, err := FirstObject(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	return nil
}

package formatting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content is not a single JSON value,
// either directly or inside a markdown code fence.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse unmarshals content as exactly one JSON value into T. When content
// is wrapped in a markdown code fence the fenced body is parsed instead.
// Trailing data after the value is an error; nothing else is repaired.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if content == "" {
		return result, fmt.Errorf("%w: empty content", ErrParseFailed)
	}

	err := decodeSingle([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) >= 2 {
		var fenced T
		if ferr := decodeSingle([]byte(strings.TrimSpace(matches[1])), &fenced); ferr == nil {
			return fenced, nil
		}
	}

	return result, fmt.Errorf("%w: %w", ErrParseFailed, err)
}

func decodeSingle(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

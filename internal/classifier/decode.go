package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/herbarium/pkg/formatting"
	"github.com/JaimeStill/herbarium/pkg/transport"
)

// ErrMalformedResponse indicates model output that violates the result schema.
var ErrMalformedResponse = errors.New("malformed classification response")

type wireResult struct {
	IsPlant       *bool    `json:"isPlant"`
	Confidence    *float64 `json:"confidence"`
	Reason        *string  `json:"reason"`
	PlantAnalysis *struct {
		Candidates json.RawMessage `json:"candidates"`
	} `json:"plantAnalysis"`
}

type wireCandidate struct {
	Name            *string  `json:"name"`
	ScientificName  *string  `json:"scientificName"`
	FamilyName      *string  `json:"familyName"`
	Description     *string  `json:"description"`
	Characteristics *string  `json:"characteristics"`
	Confidence      *float64 `json:"confidence"`
}

// Decode parses model output into a Result. It fails closed: any missing or
// wrong-typed field is a schema error and nothing is repaired beyond
// unwrapping a markdown code fence. Candidates are ordered by confidence,
// highest first, and truncated to maxCandidates.
func Decode(content string, maxCandidates int) (*Result, error) {
	wire, err := formatting.Parse[wireResult](content)
	if err != nil {
		return nil, schemaError("%v", err)
	}

	switch {
	case wire.IsPlant == nil:
		return nil, schemaError("isPlant is missing")
	case wire.Confidence == nil:
		return nil, schemaError("confidence is missing")
	case *wire.Confidence < 0 || *wire.Confidence > 100:
		return nil, schemaError("confidence %v is outside [0,100]", *wire.Confidence)
	case wire.Reason == nil:
		return nil, schemaError("reason is missing")
	}

	var candidates []Candidate
	if wire.PlantAnalysis != nil {
		if candidates, err = decodeCandidates(wire.PlantAnalysis.Candidates); err != nil {
			return nil, err
		}
	}

	result := &Result{
		IsPlant:    *wire.IsPlant,
		Confidence: *wire.Confidence,
		Reason:     *wire.Reason,
		Candidates: []Candidate{},
	}

	if result.IsPlant {
		slices.SortStableFunc(candidates, func(a, b Candidate) int {
			switch {
			case a.Confidence > b.Confidence:
				return -1
			case a.Confidence < b.Confidence:
				return 1
			}
			return 0
		})
		if len(candidates) > maxCandidates {
			candidates = candidates[:maxCandidates]
		}
		result.Candidates = append(result.Candidates, candidates...)
	}

	return result, nil
}

func decodeCandidates(raw json.RawMessage) ([]Candidate, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '[' {
		return nil, schemaError("candidates is not an array")
	}

	var wire []wireCandidate
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, schemaError("candidates: %v", err)
	}

	candidates := make([]Candidate, 0, len(wire))
	for i, w := range wire {
		switch {
		case w.Name == nil || strings.TrimSpace(*w.Name) == "":
			return nil, schemaError("candidate %d: name is missing", i)
		case w.Characteristics == nil || strings.TrimSpace(*w.Characteristics) == "":
			return nil, schemaError("candidate %d: characteristics is missing", i)
		case w.Confidence == nil:
			return nil, schemaError("candidate %d: confidence is missing", i)
		}

		candidates = append(candidates, Candidate{
			Name:            *w.Name,
			ScientificName:  deref(w.ScientificName),
			FamilyName:      deref(w.FamilyName),
			Description:     deref(w.Description),
			Characteristics: *w.Characteristics,
			Confidence:      *w.Confidence,
		})
	}
	return candidates, nil
}

func schemaError(format string, args ...any) error {
	return transport.New(
		transport.Classifier, "decode", transport.Schema,
		fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...)),
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package classifier

import (
	"fmt"
	"strings"
)

const instructions = `Analyze this image and respond with a single JSON object in exactly this form:

{
  "isPlant": boolean,
  "confidence": number,
  "reason": "string",
  "plantAnalysis": {
    "candidates": [
      {
        "name": "plant name",
        "scientificName": "scientific name",
        "familyName": "family name",
        "description": "detailed description",
        "characteristics": "visible characteristics",
        "confidence": number
      }
    ]
  }
}

Criteria:
- isPlant: whether the image shows a plant or part of one
- confidence: confidence in the plant verdict, from 0 to 100
- reason: a brief explanation of the verdict

Treat as a plant: flowers, leaves, stems, roots, bark, fruit, and seeds; trees, grasses, moss, ferns, succulents, and cacti; vegetables and herbs.
Treat as not a plant: people, animals, buildings, cooked food, scenery without a plant subject, or images with no plant at all.

Naming rule for the "name" field, in priority order:
1. When the cultivar is identifiable, use the cultivar name (for example "Somei-yoshino" or "Kanzan").
2. When only the species is identifiable, use the species common name (for example "Oshima cherry").
3. When neither is identifiable, use the genus name (for example "Prunus").

For a plant, return up to %d candidates ordered by confidence, highest first, with accurate scientific and family names. Every candidate name must follow the naming rule. When the image is not a plant, omit plantAnalysis.`

// Prompt returns the instruction text for one classification request.
// A non-blank hint is appended as user-supplied context.
func Prompt(maxCandidates int, hint string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, instructions, maxCandidates)

	if hint = strings.TrimSpace(hint); hint != "" {
		sb.WriteString("\n\nAdditional context from the user:\n")
		sb.WriteString(hint)
	}

	return sb.String()
}

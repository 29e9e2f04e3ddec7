package images

import (
	"github.com/JaimeStill/herbarium/internal/classifier"
	"github.com/JaimeStill/herbarium/internal/objects"
)

// Cleanup stages recorded when the pipeline discards an object.
const (
	StageInvalidReference objects.Stage = "invalid_reference"
	StageClassifyFailed   objects.Stage = "classify_failed"
	StageNotAPlant        objects.Stage = "not_a_plant"
)

// UploadCommand carries a raw image upload into the pipeline.
type UploadCommand struct {
	Data        []byte
	FileName    string
	ContentType string
	ContextInfo string
}

// Identification is the verdict returned with an accepted upload.
type Identification struct {
	IsPlant    bool                   `json:"isPlant"`
	Confidence float64                `json:"confidence"`
	Candidates []classifier.Candidate `json:"candidates"`
}

// UploadResult describes an image promoted to the permanent area.
// ImagePath is the canonical URL to persist with a plant record; ImageURL is
// the read URL handed to the client.
type UploadResult struct {
	ImagePath            string         `json:"imagePath"`
	ImageURL             string         `json:"imageUrl"`
	FileName             string         `json:"fileName"`
	ContentType          string         `json:"contentType"`
	FileSize             int64          `json:"fileSize"`
	IdentificationResult Identification `json:"identificationResult"`
}

// IdentifyCommand requests classification of an already stored image.
type IdentifyCommand struct {
	ImagePath   string  `json:"imagePath"`
	ContextInfo *string `json:"contextInfo,omitempty"`
}

// IdentifyResult wraps a classification for the identify endpoint.
type IdentifyResult struct {
	Result *classifier.Result `json:"result"`
}

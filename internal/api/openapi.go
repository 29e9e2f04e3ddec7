package api

import (
	"github.com/JaimeStill/herbarium/internal/config"
	"github.com/JaimeStill/herbarium/pkg/middleware"
	"github.com/JaimeStill/herbarium/pkg/openapi"
)

func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	spec.AddTag("plants", "Saved plant records")
	spec.AddTag("images", "Photo upload and classification")
	spec.Components.AddSchemas(schemas(&cfg.Validation.NameMaxLength))
	if cfg.API.Auth.Enabled() {
		spec.RequireHeaderKey("functionKey", middleware.FunctionKeyHeader, "Function key; the code query parameter is also accepted.")
	}

	id := openapi.PathParam("id", "Plant ID")

	spec.Paths["/plants"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List plants, newest first",
			Tags:    []string{"plants"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Plant summaries", "PlantList"),
				503: openapi.ResponseRef("Unavailable"),
			},
		},
	}

	spec.Paths["/plants/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Get a plant",
			Tags:       []string{"plants"},
			Parameters: []*openapi.Parameter{id},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Plant record", "PlantBody"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Put: &openapi.Operation{
			Summary:     "Replace the image and confidence of a plant",
			Description: "A changed image path deletes the previous image after the record is replaced.",
			Tags:        []string{"plants"},
			Parameters:  []*openapi.Parameter{id},
			RequestBody: openapi.RequestBodyJSON("UpdatePlant", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Updated plant", "PlantBody"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				500: openapi.ResponseRef("InternalError"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a plant and its image",
			Tags:       []string{"plants"},
			Parameters: []*openapi.Parameter{id},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Deletion message", "Message"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/plants/save"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Save an identified plant",
			Tags:        []string{"plants"},
			RequestBody: openapi.RequestBodyJSON("CreatePlant", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created plant", "PlantBody"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
				500: openapi.ResponseRef("InternalError"),
			},
		},
	}

	spec.Paths["/plants/check-duplicate"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Look up an existing plant by exact name",
			Tags:       []string{"plants"},
			Parameters: []*openapi.Parameter{openapi.QueryParam("name", "string", "Plant name, trimmed", true)},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Duplicate check", "DuplicateCheck"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/plants/identify"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Classify an image already in storage",
			Tags:        []string{"images"},
			RequestBody: openapi.RequestBodyJSON("Identify", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Classification", "IdentifyResult"),
				400: openapi.ResponseRef("BadRequest"),
				502: openapi.ResponseRef("BadGateway"),
				503: openapi.ResponseRef("Unavailable"),
			},
		},
	}

	spec.Paths["/images/upload"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Upload and identify a plant photo",
			Description: "The image is kept only when the classifier reports a plant.",
			Tags:        []string{"images"},
			RequestBody: openapi.RequestBodyMultipart("UploadForm"),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Stored and identified image", "UploadResult"),
				400: openapi.ResponseRef("BadRequest"),
				502: openapi.ResponseRef("BadGateway"),
				503: openapi.ResponseRef("Unavailable"),
			},
		},
	}

	return spec
}

func schemas(nameMax *int) map[string]*openapi.Schema {
	str := func(desc string) *openapi.Schema {
		return &openapi.Schema{Type: "string", Description: desc}
	}
	confidence := func() *openapi.Schema {
		lo, hi := 0.0, 100.0
		return &openapi.Schema{Type: "number", Minimum: &lo, Maximum: &hi}
	}
	timestamp := &openapi.Schema{Type: "string", Format: "date-time"}
	uuid := &openapi.Schema{Type: "string", Format: "uuid"}
	uri := &openapi.Schema{Type: "string", Format: "uri"}

	candidate := &openapi.Schema{
		Type:     "object",
		Required: []string{"name", "characteristics", "confidence"},
		Properties: map[string]*openapi.Schema{
			"name":            str("Common name"),
			"scientificName":  str("Binomial name"),
			"familyName":      str("Botanical family"),
			"description":     str("Short description"),
			"characteristics": str("Identifying traits"),
			"confidence":      confidence(),
		},
	}

	return map[string]*openapi.Schema{
		"Plant": {
			Type:     "object",
			Required: []string{"id", "name", "characteristics", "confidence", "imagePath", "createdAt", "updatedAt"},
			Properties: map[string]*openapi.Schema{
				"id":              uuid,
				"name":            {Type: "string", MaxLength: nameMax},
				"scientificName":  str("Binomial name"),
				"familyName":      str("Botanical family"),
				"description":     str("Free-form description"),
				"characteristics": str("Identifying traits"),
				"confidence":      confidence(),
				"imagePath":       uri,
				"createdAt":       timestamp,
				"updatedAt":       timestamp,
			},
		},
		"PlantBody": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"plant": openapi.SchemaRef("Plant")},
		},
		"PlantSummary": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              uuid,
				"name":            str("Common name"),
				"characteristics": str("Identifying traits"),
				"imagePath":       uri,
				"confidence":      confidence(),
				"createdAt":       timestamp,
			},
		},
		"PlantList": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"plants": {Type: "array", Items: openapi.SchemaRef("PlantSummary")},
				"total":  {Type: "integer"},
			},
		},
		"CreatePlant": {
			Type:     "object",
			Required: []string{"name", "characteristics", "confidence", "imagePath"},
			Properties: map[string]*openapi.Schema{
				"name":            {Type: "string", MaxLength: nameMax},
				"scientificName":  str("Binomial name"),
				"familyName":      str("Botanical family"),
				"description":     str("Free-form description"),
				"characteristics": str("Identifying traits"),
				"confidence":      confidence(),
				"imagePath":       uri,
			},
		},
		"UpdatePlant": {
			Type:     "object",
			Required: []string{"imagePath", "confidence"},
			Properties: map[string]*openapi.Schema{
				"imagePath":  uri,
				"confidence": confidence(),
			},
		},
		"DuplicateCheck": {
			Type:     "object",
			Required: []string{"exists"},
			Properties: map[string]*openapi.Schema{
				"exists": {Type: "boolean"},
				"plant": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"id":         uuid,
						"name":       str("Common name"),
						"imagePath":  uri,
						"confidence": confidence(),
						"createdAt":  timestamp,
					},
				},
			},
		},
		"Message": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"message": str("Outcome")},
		},
		"Candidate": candidate,
		"Classification": {
			Type:     "object",
			Required: []string{"isPlant", "confidence", "reason", "candidates"},
			Properties: map[string]*openapi.Schema{
				"isPlant":    {Type: "boolean"},
				"confidence": confidence(),
				"reason":     str("Why the verdict was reached"),
				"candidates": {Type: "array", Items: openapi.SchemaRef("Candidate")},
			},
		},
		"Identify": {
			Type:     "object",
			Required: []string{"imagePath"},
			Properties: map[string]*openapi.Schema{
				"imagePath":   uri,
				"contextInfo": str("Optional hint for the classifier"),
			},
		},
		"IdentifyResult": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"result": openapi.SchemaRef("Classification")},
		},
		"UploadForm": {
			Type:     "object",
			Required: []string{"image"},
			Properties: map[string]*openapi.Schema{
				"image":       {Type: "string", Format: "binary"},
				"contextInfo": str("Optional hint for the classifier"),
			},
		},
		"UploadResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"imagePath":   uri,
				"imageUrl":    uri,
				"fileName":    str("Stored object name"),
				"contentType": str("MIME type"),
				"fileSize":    {Type: "integer"},
				"identificationResult": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"isPlant":    {Type: "boolean"},
						"confidence": confidence(),
						"candidates": {Type: "array", Items: openapi.SchemaRef("Candidate")},
					},
				},
			},
		},
	}
}

package openapi

import "maps"

// ErrorCodes lists the error codes a failure envelope may carry.
var ErrorCodes = []any{
	"INVALID_REQUEST",
	"NOT_A_PLANT",
	"UNAUTHORIZED",
	"PLANT_NOT_FOUND",
	"DATABASE_ERROR",
	"AI_SERVICE_ERROR",
	"STORAGE_ERROR",
	"INTERNAL_ERROR",
}

// NewComponents creates Components with the response envelope schemas and
// the shared error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"ErrorBody": {
				Type:     "object",
				Required: []string{"code", "message"},
				Properties: map[string]*Schema{
					"code":    {Type: "string", Enum: ErrorCodes},
					"message": {Type: "string", Description: "Human-readable summary"},
					"details": {Type: "string", Description: "Short diagnostic"},
				},
			},
			"ErrorEnvelope": {
				Type:     "object",
				Required: []string{"success", "error"},
				Properties: map[string]*Schema{
					"success": {Type: "boolean", Example: false},
					"error":   SchemaRef("ErrorBody"),
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":    errorResponse("Invalid request"),
			"Unauthorized":  errorResponse("Missing or invalid function key"),
			"NotFound":      errorResponse("Plant not found"),
			"Conflict":      errorResponse("Document store conflict"),
			"BadGateway":    errorResponse("Upstream storage or classifier fault"),
			"Unavailable":   errorResponse("Dependency unreachable or timed out"),
			"InternalError": errorResponse("Unexpected failure or malformed body"),
		},
	}
}

// Envelope wraps a data schema in the success envelope.
func Envelope(data *Schema) *Schema {
	return &Schema{
		Type:     "object",
		Required: []string{"success", "data"},
		Properties: map[string]*Schema{
			"success": {Type: "boolean", Example: true},
			"data":    data,
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}

func errorResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("ErrorEnvelope")},
		},
	}
}

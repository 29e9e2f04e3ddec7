package openapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/herbarium/pkg/openapi"
)

func TestNewSpec(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")

	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi version: got %s, want 3.1.0", spec.OpenAPI)
	}
	if spec.Info.Title != "Test API" || spec.Info.Version != "1.0.0" {
		t.Errorf("info: got %+v", spec.Info)
	}
	if spec.Components == nil || spec.Paths == nil {
		t.Fatal("components and paths should not be nil")
	}

	spec.AddServer("/api")
	spec.SetDescription("A test API")
	if len(spec.Servers) != 1 || spec.Servers[0].URL != "/api" {
		t.Errorf("servers: got %+v", spec.Servers)
	}
	if spec.Info.Description != "A test API" {
		t.Errorf("description: got %s", spec.Info.Description)
	}
}

func TestRefs(t *testing.T) {
	if ref := openapi.SchemaRef("Plant").Ref; ref != "#/components/schemas/Plant" {
		t.Errorf("schema ref: got %s", ref)
	}
	if ref := openapi.ResponseRef("NotFound").Ref; ref != "#/components/responses/NotFound" {
		t.Errorf("response ref: got %s", ref)
	}
}

func TestRequestBodyJSON(t *testing.T) {
	rb := openapi.RequestBodyJSON("CreatePlant", true)

	if !rb.Required {
		t.Error("required should be true")
	}
	ct, ok := rb.Content["application/json"]
	if !ok {
		t.Fatal("missing application/json content type")
	}
	if ct.Schema.Ref != "#/components/schemas/CreatePlant" {
		t.Errorf("schema ref: got %s", ct.Schema.Ref)
	}
}

func TestResponseJSONWrapsEnvelope(t *testing.T) {
	resp := openapi.ResponseJSON("Success", "Plant")

	if resp.Description != "Success" {
		t.Errorf("description: got %s", resp.Description)
	}
	ct, ok := resp.Content["application/json"]
	if !ok {
		t.Fatal("missing application/json content type")
	}

	props := ct.Schema.Properties
	if props["success"] == nil || props["data"] == nil {
		t.Fatalf("envelope properties: got %v", props)
	}
	if props["data"].Ref != "#/components/schemas/Plant" {
		t.Errorf("data ref: got %s", props["data"].Ref)
	}
}

func TestParams(t *testing.T) {
	p := openapi.PathParam("id", "Plant ID")
	if p.In != "path" || !p.Required || p.Schema.Format != "uuid" {
		t.Errorf("path param: got %+v", p)
	}

	q := openapi.QueryParam("name", "string", "Plant name", true)
	if q.In != "query" || !q.Required || q.Schema.Type != "string" {
		t.Errorf("query param: got %+v", q)
	}
}

func TestNewComponentsDefaults(t *testing.T) {
	c := openapi.NewComponents()

	for _, name := range []string{"ErrorBody", "ErrorEnvelope"} {
		if _, ok := c.Schemas[name]; !ok {
			t.Errorf("missing default schema: %s", name)
		}
	}

	for _, name := range []string{"BadRequest", "Unauthorized", "NotFound", "Conflict", "BadGateway", "Unavailable", "InternalError"} {
		resp, ok := c.Responses[name]
		if !ok {
			t.Errorf("missing default response: %s", name)
			continue
		}
		if resp.Content["application/json"].Schema.Ref != "#/components/schemas/ErrorEnvelope" {
			t.Errorf("%s: should reference the error envelope", name)
		}
	}

	if got := len(c.Schemas["ErrorBody"].Properties["code"].Enum); got != len(openapi.ErrorCodes) {
		t.Errorf("error code enum: got %d values", got)
	}
}

func TestAddComponents(t *testing.T) {
	c := openapi.NewComponents()
	c.AddSchemas(map[string]*openapi.Schema{"Plant": {Type: "object"}})
	c.AddResponses(map[string]*openapi.Response{"NotAPlant": {Description: "Rejected image"}})

	if _, ok := c.Schemas["Plant"]; !ok {
		t.Error("Plant schema not added")
	}
	if _, ok := c.Schemas["ErrorEnvelope"]; !ok {
		t.Error("default ErrorEnvelope schema should still exist")
	}
	if _, ok := c.Responses["NotAPlant"]; !ok {
		t.Error("NotAPlant response not added")
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_OPENAPI_TITLE", "Custom")

	cfg := openapi.Config{}
	if err := cfg.Finalize(&openapi.ConfigEnv{Title: "TEST_OPENAPI_TITLE"}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.Title != "Custom" {
		t.Errorf("title: got %s, want Custom", cfg.Title)
	}
	if cfg.Description == "" {
		t.Error("description should default")
	}

	cfg.Merge(&openapi.Config{Description: "Overlay"})
	if cfg.Description != "Overlay" || cfg.Title != "Custom" {
		t.Errorf("merge: got %+v", cfg)
	}
}

func TestServeSpec(t *testing.T) {
	data, err := openapi.MarshalJSON(openapi.NewSpec("Test", "1.0.0"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}

	body, _ := io.ReadAll(res.Body)
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body unmarshal failed: %v", err)
	}
	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi: got %v", parsed["openapi"])
	}

	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req := httptest.NewRequest("GET", "/openapi.json", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Errorf("revalidation status: got %d, want 304", rec.Code)
	}
}

func TestAddTag(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.AddTag("plants", "Saved plant records")

	if len(spec.Tags) != 1 || spec.Tags[0].Name != "plants" {
		t.Errorf("tags: got %+v", spec.Tags)
	}
}

func TestRequireHeaderKey(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")
	spec.RequireHeaderKey("functionKey", "x-functions-key", "")

	scheme := spec.Components.SecuritySchemes["functionKey"]
	if scheme == nil || scheme.Type != "apiKey" || scheme.In != "header" || scheme.Name != "x-functions-key" {
		t.Fatalf("scheme: got %+v", scheme)
	}
	if len(spec.Security) != 1 {
		t.Fatalf("security: got %+v", spec.Security)
	}
	if _, ok := spec.Security[0]["functionKey"]; !ok {
		t.Errorf("requirement: got %+v", spec.Security[0])
	}
}

func TestRequestBodyMultipart(t *testing.T) {
	body := openapi.RequestBodyMultipart("UploadForm")

	media, ok := body.Content["multipart/form-data"]
	if !body.Required || !ok || media.Schema.Ref != "#/components/schemas/UploadForm" {
		t.Errorf("body: got %+v", body)
	}
}

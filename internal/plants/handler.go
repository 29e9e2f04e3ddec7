package plants

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/herbarium/internal/validation"
	"github.com/JaimeStill/herbarium/pkg/handlers"
	"github.com/JaimeStill/herbarium/pkg/routes"
)

// Handler provides HTTP endpoints for plant records.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "plants"),
	}
}

// Routes returns the route group for plant endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/plants",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/check-duplicate", Handler: h.CheckDuplicate},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "POST", Pattern: "/save", Handler: h.Save},
		},
	}
}

// List returns every plant summary, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapError(err))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single plant by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	p, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapError(err))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]*Plant{"plant": p})
}

// CheckDuplicate reports whether a plant with the trimmed name query
// parameter already exists.
func (h *Handler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.CheckDuplicate(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapError(err))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Save creates a plant record from a JSON body.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, err)
		return
	}

	p, err := h.sys.Save(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapError(err))
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, map[string]*Plant{"plant": p})
}

// Update replaces the image path and confidence of a plant.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd UpdateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, err)
		return
	}

	p, err := h.sys.Update(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapError(err))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]*Plant{"plant": p})
}

// Delete removes a plant and its image.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapError(err))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, MessageResult{Message: "plant deleted"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	if err := validation.UUID("id", raw); err != nil {
		handlers.RespondError(w, h.logger, MapError(err))
		return uuid.Nil, false
	}
	return uuid.MustParse(raw), true
}

package images

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/herbarium/pkg/handlers"
	"github.com/JaimeStill/herbarium/pkg/routes"
)

const (
	// multipartOverhead is the allowance for form boundaries and fields on
	// top of the file size limit.
	multipartOverhead = 1 << 20
	maxFormMemory     = 32 << 20
)

// Handler provides HTTP endpoints for image upload and identification.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "images"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route groups for image endpoints. Identify is served
// under the plants prefix.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/images",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			},
		},
		{
			Prefix: "/plants",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/identify", Handler: h.Identify},
			},
		},
	}
}

// Upload accepts a multipart form with an image file and optional
// contextInfo, and runs the upload pipeline.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	if !strings.EqualFold(strings.TrimSpace(mediaType), "multipart/form-data") {
		handlers.RespondError(w, h.logger, handlers.Invalid("content type must be multipart/form-data", nil))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, MapError(ErrFileTooLarge))
			return
		}
		handlers.RespondError(w, h.logger, handlers.Invalid("malformed multipart form", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		handlers.RespondError(w, h.logger, MapError(ErrMissingImage))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, handlers.Invalid("unable to read image file", err))
		return
	}

	cmd := UploadCommand{
		Data:        data,
		FileName:    header.Filename,
		ContentType: detectContentType(header.Header.Get("Content-Type"), data),
		ContextInfo: r.FormValue("contextInfo"),
	}

	result, err := h.sys.Upload(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapError(err))
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Identify classifies an image that is already in the object store.
func (h *Handler) Identify(w http.ResponseWriter, r *http.Request) {
	var cmd IdentifyCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, err)
		return
	}

	result, err := h.sys.Identify(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapError(err))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, IdentifyResult{Result: result})
}

// detectContentType trusts the declared part type unless it is missing or
// generic, in which case the bytes are sniffed.
func detectContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(data)
}

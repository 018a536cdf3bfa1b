package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/videosend/internal/asset"
	"github.com/maauso/videosend/internal/conversion"
	"github.com/maauso/videosend/internal/pipeline"
)

// Pipeline is the part of pipeline.Service the handlers use.
type Pipeline interface {
	Validate(ctx context.Context, ref string) (*asset.Asset, error)
	Build(ctx context.Context, a *asset.Asset, opts ...pipeline.ConvertOption) (pipeline.SenderItem, error)
	Thumbnail(ctx context.Context, a *asset.Asset) (image.Image, error)
}

// Purger removes the scratch directory.
type Purger interface {
	Purge() error
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	pipeline           Pipeline
	conversions        *conversion.Service
	scratch            Purger
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
	wg                 sync.WaitGroup
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateConversion only records the conversion and returns
// without starting the encode.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(p Pipeline, conversions *conversion.Service, scratch Purger, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		pipeline:           p,
		conversions:        conversions,
		scratch:            scratch,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true, // Default to enabled
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Wait blocks until background conversions started by the handlers finish.
func (h *Handlers) Wait() {
	h.wg.Wait()
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateConversion handles POST /conversions requests. The source is
// validated synchronously; encoding continues after the response.
func (h *Handlers) CreateConversion(w http.ResponseWriter, r *http.Request) {
	a, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	c, err := h.conversions.Create(r.Context(), a.Reference())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create conversion", "CONVERSION_CREATION_FAILED")
		return
	}
	state := c.GetState()

	// Detached from the request so the encode survives the response.
	if h.enableAsyncProcess {
		h.wg.Add(1)
		go func(ctx context.Context) {
			defer h.wg.Done()
			if _, err := h.pipeline.Build(ctx, a, pipeline.WithConversion(c)); err != nil {
				h.logger.Error("background conversion failed",
					slog.String("conversion_id", c.ID),
					slog.String("error", err.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()))
	}

	h.logger.Info("conversion accepted",
		slog.String("conversion_id", c.ID),
		slog.String("source", a.Reference()),
	)

	writeJSON(w, http.StatusAccepted, CreateConversionResponse{
		ID:    c.ID,
		State: string(state),
	})
}

// GetConversion handles GET /conversions/{id} requests.
func (h *Handlers) GetConversion(w http.ResponseWriter, r *http.Request) {
	convID := r.PathValue("id")
	if convID == "" {
		writeError(w, http.StatusBadRequest, "conversion ID is required", "MISSING_CONVERSION_ID")
		return
	}

	c, err := h.conversions.Get(r.Context(), convID)
	if err != nil {
		if errors.Is(err, conversion.ErrConversionNotFound) {
			writeError(w, http.StatusNotFound, "conversion not found", "CONVERSION_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get conversion",
			slog.String("conversion_id", convID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get conversion", "CONVERSION_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, h.conversionResponse(c))
}

// ListConversions handles GET /conversions requests.
func (h *Handlers) ListConversions(w http.ResponseWriter, r *http.Request) {
	list, err := h.conversions.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list conversions", "CONVERSION_FETCH_FAILED")
		return
	}
	resp := make([]ConversionResponse, 0, len(list))
	for _, c := range list {
		resp = append(resp, h.conversionResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) conversionResponse(c *conversion.Conversion) ConversionResponse {
	resp := ConversionResponse{
		ID:        c.ID,
		Source:    c.Source,
		State:     string(c.State),
		SessionID: c.SessionID,
		Progress:  c.Progress,
		Error:     c.Error,
	}

	// Include the sender item if the output is still on disk
	if c.State == conversion.StateSucceeded {
		item, err := pipeline.NewSenderItem(c.OutputPath)
		if err != nil {
			h.logger.Warn("conversion output unavailable",
				slog.String("conversion_id", c.ID),
				slog.String("path", c.OutputPath),
				slog.String("error", err.Error()),
			)
		} else {
			resp.Item = &item
		}
	}
	return resp
}

// CreateThumbnail handles POST /thumbnails requests and responds with a JPEG.
func (h *Handlers) CreateThumbnail(w http.ResponseWriter, r *http.Request) {
	a, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	img, err := h.pipeline.Thumbnail(r.Context(), a)
	if err != nil {
		h.logger.Warn("thumbnail extraction failed",
			slog.String("source", a.Reference()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusUnprocessableEntity, "thumbnail could not be created", "THUMBNAIL_FAILED")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 85}); err != nil {
		h.logger.Error("failed to encode thumbnail", slog.String("error", err.Error()))
	}
}

// PurgeScratch handles DELETE /scratch requests. Purging is refused while
// conversions are running because their output lives in the scratch directory.
func (h *Handlers) PurgeScratch(w http.ResponseWriter, r *http.Request) {
	active, err := h.conversions.ActiveCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count conversions", "CONVERSION_FETCH_FAILED")
		return
	}
	if active > 0 {
		writeError(w, http.StatusConflict, "conversions are still running", "CONVERSIONS_ACTIVE")
		return
	}

	if err := h.scratch.Purge(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "scratch directory does not exist", "SCRATCH_NOT_FOUND")
			return
		}
		h.logger.Error("failed to purge scratch directory",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to purge scratch directory", "PURGE_FAILED")
		return
	}

	h.logger.Info("scratch directory purged")
	w.WriteHeader(http.StatusNoContent)
}

// decodeAndValidate reads a SourceRequest and validates the referenced asset.
// On failure it writes the error response and returns false.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request) (*asset.Asset, bool) {
	var req SourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return nil, false
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return nil, false
	}

	a, err := h.pipeline.Validate(r.Context(), req.Source)
	if err != nil {
		var verr *asset.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:  verr.Error(),
				Code:   "VALIDATION_ERROR",
				Reason: string(verr.Reason),
			})
		case errors.Is(err, asset.ErrFetch):
			h.logger.Warn("remote asset fetch failed",
				slog.String("source", req.Source),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadGateway, "remote asset could not be fetched", "FETCH_FAILED")
		default:
			h.logger.Error("asset resolution failed",
				slog.String("source", req.Source),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "asset could not be resolved", "RESOLVE_FAILED")
		}
		return nil, false
	}
	return a, true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// Package platehttp exposes the plate service over a plain net/http JSON API.
package platehttp

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"platecore/internal/blob"
	"platecore/internal/core"
)

// Handler routes plate, well, treatment and data file requests to the service.
// The blob store is optional; data uploads return 501 when it is absent.
type Handler struct {
	Service *core.Service
	Blobs   blob.Store
}

// NewHandler constructs a plate HTTP handler.
func NewHandler(svc *core.Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "plate service not configured")
		return
	}

	p := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case p == "/api/v1/plates":
		h.handlePlates(w, r)
	case strings.HasPrefix(p, "/api/v1/plates/"):
		h.handlePlate(w, r, strings.TrimPrefix(p, "/api/v1/plates/"))
	case p == "/api/v1/treatments":
		h.handleTreatments(w, r)
	case strings.HasPrefix(p, "/api/v1/treatments/"):
		h.handleTreatment(w, r, strings.TrimPrefix(p, "/api/v1/treatments/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handlePlates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"plates": h.Service.ListPlates()})
	case http.MethodPost:
		var config core.PlateConfig
		if err := json.NewDecoder(r.Body).Decode(&config); err != nil && err.Error() != "EOF" {
			writeError(w, http.StatusBadRequest, "invalid plate payload")
			return
		}
		plate, res, err := h.Service.CreatePlate(r.Context(), config)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeResult(w, http.StatusCreated, map[string]any{"plate": plate}, res)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handlePlate(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	id := segments[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			plate, ok := h.Service.GetPlate(id)
			if !ok {
				writeError(w, http.StatusNotFound, "plate not found")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"plate": plate})
		case http.MethodDelete:
			res, err := h.Service.DeletePlate(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeResult(w, http.StatusOK, map[string]any{"deleted": id}, res)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	switch segments[1] {
	case "replicates":
		if len(segments) != 2 {
			http.NotFound(w, r)
			return
		}
		h.handleReplicates(w, r, id)
	case "wells":
		switch len(segments) {
		case 2:
			h.handleWells(w, r, id)
		case 3:
			h.handleWell(w, r, id, segments[2])
		default:
			http.NotFound(w, r)
		}
	case "data":
		if len(segments) != 2 {
			http.NotFound(w, r)
			return
		}
		h.handleData(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

type replicateRequest struct {
	Count int `json:"count"`
}

func (h *Handler) handleReplicates(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req := replicateRequest{Count: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		writeError(w, http.StatusBadRequest, "invalid replicate payload")
		return
	}
	plates, res, err := h.Service.ReplicatePlate(r.Context(), id, req.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeResult(w, http.StatusCreated, map[string]any{"plates": plates}, res)
}

func (h *Handler) handleWells(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	plate, ok := h.Service.GetPlate(id)
	if !ok {
		writeError(w, http.StatusNotFound, "plate not found")
		return
	}
	query := r.URL.Query()
	var wells []core.Well
	switch {
	case strings.EqualFold(query.Get("filled"), "true"):
		wells = plate.FilledWells()
	case query.Get("row") != "":
		wells = plate.Row(query.Get("row"))
	case query.Get("col") != "":
		wells = plate.Column(query.Get("col"))
	default:
		wells = plate.Wells
	}
	if wells == nil {
		wells = []core.Well{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"wells": wells})
}

func (h *Handler) handleWell(w http.ResponseWriter, r *http.Request, id, position string) {
	switch r.Method {
	case http.MethodGet:
		plate, ok := h.Service.GetPlate(id)
		if !ok {
			writeError(w, http.StatusNotFound, "plate not found")
			return
		}
		well, ok := plate.WellAt(position)
		if !ok {
			writeError(w, http.StatusNotFound, "well not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"well": well})
	case http.MethodPut:
		var content core.WellContent
		if err := json.NewDecoder(r.Body).Decode(&content); err != nil && err.Error() != "EOF" {
			writeError(w, http.StatusBadRequest, "invalid well payload")
			return
		}
		plate, res, err := h.Service.FillWell(r.Context(), id, position, content)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		well, _ := plate.WellAt(position)
		writeResult(w, http.StatusOK, map[string]any{"well": well}, res)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleData(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		plate, ok := h.Service.GetPlate(id)
		if !ok {
			writeError(w, http.StatusNotFound, "plate not found")
			return
		}
		files := plate.Data
		if files == nil {
			files = []core.DataFile{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": files})
	case http.MethodPost:
		h.handleDataUpload(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleDataUpload streams the request body into the blob store and attaches
// the resulting record to the plate. File attributes travel in headers so the
// body stays the raw payload.
//
//	X-Data-Type, X-Data-Filename, X-Data-Format, X-Data-Origin
func (h *Handler) handleDataUpload(w http.ResponseWriter, r *http.Request, id string) {
	if h.Blobs == nil {
		writeError(w, http.StatusNotImplemented, "blob storage not configured")
		return
	}
	filename := r.Header.Get("X-Data-Filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "X-Data-Filename header required")
		return
	}
	key := fmt.Sprintf("plates/%s/%s-%s", id, randomSuffix(), path.Base(filename))
	info, err := h.Blobs.Put(r.Context(), key, r.Body, blob.PutOptions{
		ContentType: r.Header.Get("Content-Type"),
		Metadata:    map[string]string{"plate_id": id},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	file := core.DataFile{
		Type:      r.Header.Get("X-Data-Type"),
		Filename:  filename,
		Format:    r.Header.Get("X-Data-Format"),
		Origin:    r.Header.Get("X-Data-Origin"),
		BlobKey:   info.Key,
		SizeBytes: info.Size,
	}
	plate, res, err := h.Service.AttachPlateData(r.Context(), id, file)
	if err != nil {
		// Orphaned blob; the caller can retry the attach with the returned key.
		writeServiceError(w, err)
		return
	}
	writeResult(w, http.StatusCreated, map[string]any{"plate": plate, "blob_key": info.Key}, res)
}

func (h *Handler) handleTreatments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"treatments": h.Service.ListTreatments()})
	case http.MethodPost:
		var treatment core.Treatment
		if err := json.NewDecoder(r.Body).Decode(&treatment); err != nil && err.Error() != "EOF" {
			writeError(w, http.StatusBadRequest, "invalid treatment payload")
			return
		}
		created, res, err := h.Service.CreateTreatment(r.Context(), treatment)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeResult(w, http.StatusCreated, map[string]any{"treatment": created}, res)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleTreatment(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	treatment, ok := h.Service.GetTreatment(id)
	if !ok {
		writeError(w, http.StatusNotFound, "treatment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"treatment": treatment})
}

func randomSuffix() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "000000000000"
	}
	return hex.EncodeToString(buf)
}

// writeServiceError maps service failures onto HTTP statuses: not-found to
// 404, invalid input to 400, blocked transactions to 422.
func writeServiceError(w http.ResponseWriter, err error) {
	var notFound core.ErrNotFound
	var config core.ConfigurationError
	var validation core.ValidationError
	var blocked core.RuleViolationError
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &config), errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      err.Error(),
			"violations": blocked.Result.Violations,
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeResult(w http.ResponseWriter, status int, payload map[string]any, res core.Result) {
	if warnings := res.Warnings(); len(warnings) > 0 {
		payload["warnings"] = warnings
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

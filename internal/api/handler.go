package api

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/renovo/internal/gateway"
	"github.com/kalambet/renovo/internal/media"
	"github.com/kalambet/renovo/internal/session"
	"github.com/kalambet/renovo/internal/view"
)

const (
	maxRequestBodySize = 1 << 20   // 1MB
	maxUploadBodySize  = 16 << 20  // base64-inflated 10MB media limit
	maxVideoBodySize   = 128 << 20 // reference videos
)

type AppDeps struct {
	Session *session.Session
	Token   string
}

// NewAppHandler returns the authenticated REST surface over one session.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(BearerAuth(deps.Token))

	r.Get("/state", handleState(deps))
	r.Post("/images", handleUploadImage(deps))
	r.Post("/suggestions/{id}/visualize", handleVisualize(deps))
	r.Post("/projects", handleSaveProject(deps))
	r.Delete("/projects/{id}", handleRemoveProject(deps))
	r.Post("/plan", handleGeneratePlan(deps))
	r.Post("/documents", handleUploadDocument(deps))
	r.Post("/reference-video", handleReferenceVideo(deps))
	r.Post("/feed", handleGenerateFeed(deps))
	r.Post("/shop", handleShop(deps))
	r.Post("/reset", handleReset(deps))
	r.Put("/tab", handleSetTab(deps))
	r.Put("/key", handleSetKey(deps))

	r.Get("/views/planner", handlePlannerView(deps))
	r.Get("/views/projects", handleProjectsView(deps))
	r.Get("/views/feed", handleFeedView(deps))

	return r
}

// NewHealthHandler returns the unauthenticated health probe.
func NewHealthHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}

type UploadRequest struct {
	Content  string `json:"content"` // base64 payload
	MimeType string `json:"mimeType"`
	ZipCode  string `json:"zipCode"`
}

func decodeUpload(w http.ResponseWriter, r *http.Request, limit int64) (UploadRequest, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return req, nil, false
	}
	if req.Content == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
		return req, nil, false
	}
	data, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid base64 content")
		return req, nil, false
	}
	return req, data, true
}

func handleState(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, deps.Session.Snapshot())
	}
}

func handleUploadImage(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, data, ok := decodeUpload(w, r, maxUploadBodySize)
		if !ok {
			return
		}
		id, err := deps.Session.UploadImage(data, req.MimeType, req.ZipCode)
		if errors.Is(err, media.ErrMalformedMedia) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "could not process file: %v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "upload failed: %v", err)
			return
		}
		writeJSON(w, map[string]string{"id": id, "status": "analyzing"})
	}
}

func handleVisualize(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := deps.Session.Visualize(id)
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "suggestion not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "visualize failed: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "generating"})
	}
}

type SaveProjectRequest struct {
	SuggestionID string `json:"suggestionId"`
}

func handleSaveProject(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req SaveProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.SuggestionID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "suggestionId is required")
			return
		}
		err := deps.Session.SaveProject(req.SuggestionID)
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "suggestion not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "save failed: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "saved"})
	}
}

func handleRemoveProject(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := deps.Session.RemoveProject(id)
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "project not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "remove failed: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "removed"})
	}
}

func handleGeneratePlan(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := deps.Session.GeneratePlan()
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "plan generation failed: %v", err)
			return
		}
		writeJSON(w, plan)
	}
}

func handleUploadDocument(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, data, ok := decodeUpload(w, r, maxUploadBodySize)
		if !ok {
			return
		}
		msg, err := deps.Session.UploadDocument(data, req.MimeType)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "document ingestion failed: %v", err)
			return
		}
		writeJSON(w, map[string]string{"message": msg})
	}
}

func handleReferenceVideo(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, data, ok := decodeUpload(w, r, maxVideoBodySize)
		if !ok {
			return
		}
		tmp, err := os.CreateTemp("", "renovo-ref-*.mp4")
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "storing video: %v", err)
			return
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			httpError(w, http.StatusInternalServerError, "api_error", "storing video: %v", err)
			return
		}
		tmp.Close()

		style, err := deps.Session.UploadReferenceVideo(tmp.Name())
		if errors.Is(err, media.ErrMediaDecode) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "could not process file: %v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "style extraction failed: %v", err)
			return
		}
		writeJSON(w, map[string]string{"style": style})
	}
}

func handleGenerateFeed(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Session.GenerateFeed()
		if errors.Is(err, session.ErrNoImages) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "upload at least one photo first")
			return
		}
		if errors.Is(err, session.ErrFeedAlreadyGenerated) {
			httpError(w, http.StatusConflict, "invalid_request_error", "feed already generated; reset the session to regenerate")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "feed generation failed: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "generating"})
	}
}

type ShopRequest struct {
	Query string `json:"query"`
}

func handleShop(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req ShopRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Query == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "query is required")
			return
		}
		result, err := deps.Session.SearchProducts(req.Query)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "product search failed: %v", err)
			return
		}
		writeJSON(w, map[string]any{
			"text":     result.Text,
			"sources":  result.Sources,
			"products": gateway.ParseProducts(result.Text),
		})
	}
}

func handleReset(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Session.Reset()
		writeJSON(w, map[string]string{"status": "reset"})
	}
}

type TabRequest struct {
	Tab string `json:"tab"`
}

func handleSetTab(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req TabRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		deps.Session.SetActiveTab(req.Tab)
		writeJSON(w, map[string]string{"activeTab": deps.Session.Snapshot().ActiveTab})
	}
}

type KeyRequest struct {
	Present bool `json:"present"`
}

func handleSetKey(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req KeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		deps.Session.SetAPIKeyPresent(req.Present)
		writeJSON(w, map[string]string{"status": "updated"})
	}
}

func handlePlannerView(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards := view.AnalysisCards(deps.Session.Snapshot())
		if cards == nil {
			cards = []view.AnalysisCard{}
		}
		writeJSON(w, cards)
	}
}

func handleProjectsView(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, totals := view.Dashboard(deps.Session.Snapshot())
		if cards == nil {
			cards = []view.ProjectCard{}
		}
		writeJSON(w, map[string]any{
			"projects": cards,
			"totals":   totals,
		})
	}
}

func handleFeedView(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Session.Snapshot()
		posts := view.FeedPosts(snap)
		if posts == nil {
			posts = []view.FeedPost{}
		}
		writeJSON(w, map[string]any{
			"themes":       snap.Themes,
			"styleSummary": snap.StyleSummary,
			"loading":      snap.FeedLoading,
			"error":        snap.FeedError,
			"posts":        posts,
		})
	}
}

// BearerAuth rejects requests lacking the expected bearer token using a
// constant-time comparison.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) || subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(token)) != 1 {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

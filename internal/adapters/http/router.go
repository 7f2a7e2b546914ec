package httpadapter

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ivankhr/memogen/internal/core/domain"
	"github.com/ivankhr/memogen/internal/core/ports"
	"github.com/ivankhr/memogen/internal/core/usecase"
	"github.com/ivankhr/memogen/internal/observability/metrics"
)

// TrafficConfig tunes the rate-limit and backpressure middleware on the API
// surface.
type TrafficConfig struct {
	RateLimitRPS     int
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration
}

type Router struct {
	ingest   *usecase.IngestUseCase
	jobs     *usecase.JobManager
	contents ports.ContentStore
	exporter ports.ContentExporter
	metrics  *metrics.HTTPServerMetrics
	service  string
	traffic  TrafficConfig
}

func NewRouter(
	ingest *usecase.IngestUseCase,
	jobs *usecase.JobManager,
	contents ports.ContentStore,
	exporter ports.ContentExporter,
	httpMetrics *metrics.HTTPServerMetrics,
	service string,
	traffic TrafficConfig,
) *Router {
	return &Router{
		ingest:   ingest,
		jobs:     jobs,
		contents: contents,
		exporter: exporter,
		metrics:  httpMetrics,
		service:  service,
		traffic:  traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/templates", rt.uploadTemplate)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/jobs", rt.createJob)
	mux.HandleFunc("/v1/jobs/", rt.jobByID)
	mux.HandleFunc("/v1/contents/", rt.contentByID)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.traffic.MaxConcurrent, rt.traffic.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Name string `json:"name"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	template, err := rt.ingest.UploadTemplate(r.Context(), req.Name, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.UploadSource(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) createJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		TemplateID string                 `json:"template_id"`
		SourceIDs  []string               `json:"source_ids"`
		Metadata   domain.ContentMetadata `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	job, err := rt.jobs.CreateJob(r.Context(), req.TemplateID, req.SourceIDs, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordJobCreated(rt.service)
	}
	writeJSON(w, http.StatusAccepted, job)
}

// jobByID dispatches /v1/jobs/{id}, /v1/jobs/{id}/cancel, /v1/jobs/{id}/retry
// and /v1/jobs/{id}/events.
func (rt *Router) jobByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		job, err := rt.jobs.GetJob(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)

	case "cancel":
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		applied, err := rt.jobs.CancelJob(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"cancelled": applied})

	case "retry":
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		if err := rt.jobs.RetryJob(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		job, err := rt.jobs.GetJob(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, job)

	case "events":
		rt.jobEvents(w, r, id)

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown job action %q", action)})
	}
}

// contentByID serves /v1/contents/{id} and /v1/contents/{id}/export.
func (rt *Router) contentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/contents/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content id is required"})
		return
	}

	content, err := rt.contents.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	switch action {
	case "":
		writeJSON(w, http.StatusOK, content)

	case "export":
		data, err := rt.exporter.Export(content)
		if rt.metrics != nil {
			rt.metrics.RecordExport(rt.service, err)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "memorandum_"+id+".xlsx"))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			log.Printf("write export response: %v", err)
		}

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown content action %q", action)})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json response: %v", err)
	}
}

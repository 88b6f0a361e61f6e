package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-partition-service/pkg/config"
	"github.com/gilchrisn/graph-partition-service/pkg/graph"
	"github.com/gilchrisn/graph-partition-service/pkg/louvain"
	"github.com/gilchrisn/graph-partition-service/pkg/metrics"
	"github.com/gilchrisn/graph-partition-service/pkg/partition"
	"github.com/gilchrisn/graph-partition-service/pkg/pipeline"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

var validate = validator.New()

// Handlers serves the partitioning API. Each request builds its own graph
// and pipeline state.
type Handlers struct {
	settings *config.Settings
	louvain  *louvain.Config
	metrics  *metrics.Registry
	started  time.Time
}

// NewHandlers creates the API handlers. settings supplies defaults for
// parameters a request leaves out.
func NewHandlers(settings *config.Settings, lc *louvain.Config, reg *metrics.Registry) *Handlers {
	if lc == nil {
		lc = louvain.NewConfig()
	}
	return &Handlers{
		settings: settings,
		louvain:  lc,
		metrics:  reg,
		started:  time.Now(),
	}
}

// PartitionRequest holds the query parameters of a partitioning request.
type PartitionRequest struct {
	N           int       `validate:"min=1"`
	HeaderSkip  *int      `validate:"required,min=0"`
	Type        string    `validate:"omitempty,oneof=community round-robin"`
	Backend     string    `validate:"omitempty,oneof=louvain gonum"`
	Distributor string    `validate:"omitempty,oneof=scan heap"`
	Blocksize   int       `validate:"min=0"`
	Weights     []float64 `validate:"omitempty,dive,gt=0"`
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, r, "Service is healthy", map[string]interface{}{
		"status":         "healthy",
		"version":        Version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// ListStrategies lists the available partitioning strategies.
func (h *Handlers) ListStrategies(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, r, "Available strategies", pipeline.Strategies())
}

// CreatePartitions partitions the uploaded edge list. The body is either
// the raw edge list or a multipart form with the list in field "file".
func (h *Handlers) CreatePartitions(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	req, fieldErrs := h.parseRequest(r)
	if len(fieldErrs) > 0 {
		WriteValidationErrorResponse(w, r, "Invalid partition request", fieldErrs)
		return
	}

	maxBytes := int64(100 << 20)
	if h.settings != nil {
		maxBytes = h.settings.Server.MaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	body, closeBody, err := requestBody(r)
	if err != nil {
		WriteErrorResponse(w, r, statusForBodyError(err), "Failed to read edge list", err)
		return
	}
	defer closeBody()

	g, err := graph.Build(body, *req.HeaderSkip)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, r, http.StatusRequestEntityTooLarge, "Edge list too large", err)
			return
		}
		WriteErrorResponse(w, r, statusFor(err), "Failed to parse edge list", err)
		return
	}

	opts := pipeline.Options{
		HeaderSkip:    *req.HeaderSkip,
		Strategy:      req.Type,
		Backend:       req.Backend,
		Distributor:   req.Distributor,
		Weights:       req.Weights,
		Blocksize:     req.Blocksize,
		LouvainConfig: h.louvain,
		Logger:        *logger,
		Metrics:       h.metrics,
	}

	report, err := pipeline.RunGraph(r.Context(), g, req.N, opts)
	if err != nil {
		logger.Error().Err(err).Int("n", req.N).Msg("Partitioning failed")
		WriteErrorResponse(w, r, statusFor(err), "Partitioning failed", err)
		return
	}

	WriteSuccessResponse(w, r, "Partitioning completed", report)
}

// parseRequest reads query parameters, falling back to configured
// defaults, and validates them. Field errors are keyed by parameter name.
func (h *Handlers) parseRequest(r *http.Request) (*PartitionRequest, map[string]string) {
	q := r.URL.Query()
	errs := make(map[string]string)
	req := &PartitionRequest{Blocksize: 1}

	if h.settings != nil {
		req.HeaderSkip = h.settings.Input.HeaderSkip
		req.N = h.settings.Partitioning.Count
		req.Type = h.settings.Partitioning.Type
		req.Backend = h.settings.Detector.Backend
		req.Distributor = h.settings.Partitioning.Distributor
		req.Blocksize = h.settings.Partitioning.Blocksize
		req.Weights = h.settings.Partitioning.Weights
	}

	intParam := func(name string, dst *int) bool {
		raw := q.Get(name)
		if raw == "" {
			return false
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs[name] = "must be an integer"
			return false
		}
		*dst = v
		return true
	}

	intParam("n", &req.N)
	intParam("blocksize", &req.Blocksize)
	var skip int
	if intParam("header_skip", &skip) {
		req.HeaderSkip = &skip
	}
	if v := q.Get("type"); v != "" {
		req.Type = v
	}
	if v := q.Get("backend"); v != "" {
		req.Backend = v
	}
	if v := q.Get("distributor"); v != "" {
		req.Distributor = v
	}
	if v := q.Get("weights"); v != "" {
		weights, err := config.ParseWeights(v)
		if err != nil {
			errs["weights"] = err.Error()
		} else {
			req.Weights = weights
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs[paramName(fe.StructField())] = fmt.Sprintf("failed on '%s'", fe.Tag())
			}
		} else {
			errs["request"] = err.Error()
		}
		return nil, errs
	}
	return req, nil
}

func paramName(field string) string {
	switch field {
	case "HeaderSkip":
		return "header_skip"
	default:
		return strings.ToLower(field)
	}
}

// requestBody returns the edge-list reader for r.
func requestBody(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("missing multipart field \"file\": %w", err)
	}
	return file, func() { file.Close() }, nil
}

func statusForBodyError(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var malformed *graph.MalformedInputError
	var count *partition.InvalidPartitionCountError
	switch {
	case errors.As(err, &malformed), errors.As(err, &count):
		return http.StatusBadRequest
	case errors.Is(err, partition.ErrWeightCount), errors.Is(err, partition.ErrWeightSum), errors.Is(err, partition.ErrWeightValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

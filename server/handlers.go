package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/alexshd/anchorbench"
	"github.com/alexshd/anchorbench/survey"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "0.1.0"

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Responses []survey.Response `json:"responses"`
}

// CreateDatasetRequest is the body of POST /datasets.
type CreateDatasetRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// SubmitRequest is the body of a respondent submission. Unlike offline
// imports, a submission must identify its respondent so the duplicate
// guard applies.
type SubmitRequest struct {
	Q1           int    `json:"q1"`
	Q2           int    `json:"q2"`
	RespondentID string `json:"respondentId" binding:"required,max=128"`
}

// SessionStatusResponse reports which dataset is collecting, if any.
type SessionStatusResponse struct {
	Open        bool    `json:"open"`
	DatasetID   *string `json:"datasetId"`
	DatasetName *string `json:"datasetName"`
}

// ClearResponsesResponse reports how many responses were dropped.
type ClearResponsesResponse struct {
	Cleared int `json:"cleared"`
}

// TestDataRequest is the body of POST /datasets/:id/testdata. Every
// field is optional.
type TestDataRequest struct {
	Count          int      `json:"count"`
	Mode           string   `json:"mode"`
	AnchorStrength *float64 `json:"anchorStrength"`
}

// TestDataResponse reports how many synthetic responses were stored.
type TestDataResponse struct {
	Generated int `json:"generated"`
}

// Handlers contains the HTTP handlers for the survey API.
type Handlers struct {
	store     survey.Store
	generator *survey.Generator
	metrics   *Metrics
	cfg       Config
	logger    *slog.Logger
}

// NewHandlers creates handlers over store. A nil logger falls back to
// slog.Default(); nil metrics disables instrumentation.
func NewHandlers(store survey.Store, generator *survey.Generator, metrics *Metrics, cfg Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:     store,
		generator: generator,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: ServiceVersion})
}

// HandleAnalyze handles POST /analyze.
//
// Description:
//
//	Validates an inline response set and returns its correlation
//	analysis without storing anything. Fewer than three responses is
//	not an error; the result carries null statistics.
//
// Response:
//
//	200 OK: anchorbench.CorrelationResult
//	400 Bad Request: malformed body or out-of-range answer
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if err := survey.Validate(req.Responses...); err != nil {
		logger.Warn("Invalid response", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_RESPONSE"})
		return
	}

	res := h.analyze(req.Responses)
	logger.Info("Analyzed inline set", "n", res.N, "sufficient", res.Sufficient())
	c.JSON(http.StatusOK, res)
}

// HandleCreateDataset handles POST /datasets.
func (h *Handlers) HandleCreateDataset(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCreateDataset")

	var req CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	d, err := h.store.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	logger.Info("Dataset created", "dataset_id", d.ID, "name", d.Name)
	c.JSON(http.StatusCreated, d)
}

// HandleListDatasets handles GET /datasets.
func (h *Handlers) HandleListDatasets(c *gin.Context) {
	logger := h.requestLogger(c, "HandleListDatasets")

	ds, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

// HandleGetDataset handles GET /datasets/:id.
func (h *Handlers) HandleGetDataset(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGetDataset")

	d, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// HandleAppendResponse handles POST /datasets/:id/responses.
//
// Response:
//
//	201 Created: survey.Dataset with the updated count
//	400 Bad Request: malformed body, missing respondentId or out-of-range answer
//	403 Forbidden: dataset is closed
//	404 Not Found: unknown dataset
//	409 Conflict: respondent already answered in this dataset
func (h *Handlers) HandleAppendResponse(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAppendResponse")

	resp, ok := h.bindSubmission(c, logger)
	if !ok {
		return
	}
	h.storeSubmission(c, logger, c.Param("id"), resp)
}

// HandleSubmit handles POST /survey.
//
// Description:
//
//	Respondent entry point. The answer goes to whichever dataset is
//	open; with none open the request is rejected with 403.
func (h *Handlers) HandleSubmit(c *gin.Context) {
	logger := h.requestLogger(c, "HandleSubmit")

	resp, ok := h.bindSubmission(c, logger)
	if !ok {
		return
	}
	d, err := h.store.Current(c.Request.Context())
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	h.storeSubmission(c, logger, d.ID, resp)
}

// bindSubmission decodes and validates a respondent submission, writing
// the 400 reply itself when it fails.
func (h *Handlers) bindSubmission(c *gin.Context, logger *slog.Logger) (survey.Response, bool) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			logger.Warn("Missing respondent id", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "respondentId is required (at most 128 characters)",
				Code:  "INVALID_RESPONDENT",
			})
			return survey.Response{}, false
		}
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return survey.Response{}, false
	}

	resp := survey.Response{Q1: req.Q1, Q2: req.Q2, RespondentID: req.RespondentID}
	if err := survey.Validate(resp); err != nil {
		logger.Warn("Invalid response", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_RESPONSE"})
		return survey.Response{}, false
	}
	return resp, true
}

func (h *Handlers) storeSubmission(c *gin.Context, logger *slog.Logger, id string, resp survey.Response) {
	ctx := c.Request.Context()
	if err := h.store.Submit(ctx, id, resp); err != nil {
		h.fail(c, logger, err)
		return
	}
	h.metrics.addResponses(sourceSurvey, 1)

	d, err := h.store.Get(ctx, id)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	logger.Debug("Response stored", "dataset_id", id, "responses", d.Responses)
	c.JSON(http.StatusCreated, d)
}

// HandleListResponses handles GET /datasets/:id/responses.
func (h *Handlers) HandleListResponses(c *gin.Context) {
	logger := h.requestLogger(c, "HandleListResponses")

	rs, err := h.store.Responses(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

// HandleClearResponses handles DELETE /datasets/:id/responses.
func (h *Handlers) HandleClearResponses(c *gin.Context) {
	logger := h.requestLogger(c, "HandleClearResponses")
	id := c.Param("id")

	n, err := h.store.ClearResponses(c.Request.Context(), id)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	logger.Info("Responses cleared", "dataset_id", id, "count", n)
	c.JSON(http.StatusOK, ClearResponsesResponse{Cleared: n})
}

// HandleOpenDataset handles PUT /datasets/:id/open. Any other open
// dataset is closed.
func (h *Handlers) HandleOpenDataset(c *gin.Context) {
	logger := h.requestLogger(c, "HandleOpenDataset")

	d, err := h.store.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	logger.Info("Dataset opened", "dataset_id", d.ID)
	c.JSON(http.StatusOK, d)
}

// HandleCloseDataset handles PUT /datasets/:id/close.
func (h *Handlers) HandleCloseDataset(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCloseDataset")

	d, err := h.store.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	logger.Info("Dataset closed", "dataset_id", d.ID)
	c.JSON(http.StatusOK, d)
}

// HandleDeleteDataset handles DELETE /datasets/:id.
func (h *Handlers) HandleDeleteDataset(c *gin.Context) {
	logger := h.requestLogger(c, "HandleDeleteDataset")
	id := c.Param("id")

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, logger, err)
		return
	}
	logger.Info("Dataset deleted", "dataset_id", id)
	c.Status(http.StatusNoContent)
}

// HandleSessionStatus handles GET /session/status.
func (h *Handlers) HandleSessionStatus(c *gin.Context) {
	logger := h.requestLogger(c, "HandleSessionStatus")

	d, err := h.store.Current(c.Request.Context())
	switch {
	case errors.Is(err, survey.ErrNoOpenDataset):
		c.JSON(http.StatusOK, SessionStatusResponse{})
	case err != nil:
		h.fail(c, logger, err)
	default:
		c.JSON(http.StatusOK, SessionStatusResponse{Open: true, DatasetID: &d.ID, DatasetName: &d.Name})
	}
}

// HandleGenerateTestData handles POST /datasets/:id/testdata.
//
// Description:
//
//	Appends synthetic responses drawn from the generator. Count defaults
//	to the configured value and is clamped to [1, MaxTestData]; an empty
//	body is accepted.
func (h *Handlers) HandleGenerateTestData(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGenerateTestData")
	id := c.Param("id")

	var req TestDataRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	mode, err := survey.ParseMode(req.Mode)
	if err != nil {
		logger.Warn("Invalid generator mode", "mode", req.Mode, "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_MODE"})
		return
	}
	strength := h.cfg.DefaultAnchorStrength
	if req.AnchorStrength != nil {
		strength = *req.AnchorStrength
	}
	count := h.cfg.clampCount(req.Count)

	rs := h.generator.Responses(count, mode, strength)
	if err := h.store.Append(c.Request.Context(), id, rs...); err != nil {
		h.fail(c, logger, err)
		return
	}
	h.metrics.addResponses(sourceSynthetic, len(rs))

	logger.Info("Synthetic responses stored",
		"dataset_id", id, "count", len(rs), "mode", mode, "anchor_strength", strength)
	c.JSON(http.StatusOK, TestDataResponse{Generated: len(rs)})
}

// HandleCorrelation handles GET /datasets/:id/correlation.
func (h *Handlers) HandleCorrelation(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCorrelation")
	id := c.Param("id")

	rs, err := h.store.Responses(c.Request.Context(), id)
	if err != nil {
		h.fail(c, logger, err)
		return
	}

	res := h.analyze(rs)
	attrs := []any{"dataset_id", id, "n", res.N}
	if res.Sufficient() {
		attrs = append(attrs, "r", *res.R, "p_value", *res.PValue)
	}
	logger.Info("Dataset analyzed", attrs...)
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) analyze(rs []survey.Response) anchorbench.CorrelationResult {
	start := time.Now()
	res := anchorbench.Analyze(survey.Observations(rs), h.cfg.Analysis)
	h.metrics.observeAnalysis(res, time.Since(start))
	return res
}

// fail maps store errors onto status codes.
func (h *Handlers) fail(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, survey.ErrDatasetNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Dataset not found", Code: "DATASET_NOT_FOUND"})
	case errors.Is(err, survey.ErrDatasetClosed), errors.Is(err, survey.ErrNoOpenDataset):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "No survey session is currently open",
			Code:  "SESSION_CLOSED",
		})
	case errors.Is(err, survey.ErrDuplicateResponse):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "You have already submitted a response for this dataset",
			Code:  "DUPLICATE_RESPONSE",
		})
	default:
		logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: "INTERNAL_ERROR"})
	}
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return h.logger.With("request_id", getOrCreateRequestID(c), "handler", handler)
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

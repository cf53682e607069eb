package handler

import (
	"errors"
	"net/http"

	"painsignal/internal/models"
	"painsignal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RecentLimit is the number of records returned by the recent listing.
const RecentLimit = 50

// Handler handles HTTP requests
type Handler struct {
	ingestion *service.IngestionService
	waitlist  *service.WaitlistService
	showTest  bool
	logger    *zap.Logger
}

// NewHandler creates a new API handler. showTestEntries keeps records carrying
// the test marker in listings.
func NewHandler(
	ingestion *service.IngestionService,
	waitlist *service.WaitlistService,
	showTestEntries bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		ingestion: ingestion,
		waitlist:  waitlist,
		showTest:  showTestEntries,
		logger:    logger,
	}
}

// RegisterRoutes registers all API routes. auth guards the primary collection
// and the waitlist lookup; limiter applies to /api/painpoints.
func (h *Handler) RegisterRoutes(r *gin.Engine, auth, limiter gin.HandlerFunc) {
	api := r.Group("/api")
	{
		api.POST("/painpoints", limiter, auth, h.CreatePainPoint)
		api.GET("/painpoints", limiter, auth, h.ListPainPoints)
		api.GET("/recent-painpoints", auth, h.RecentPainPoints)

		api.POST("/public-analyze", h.PublicAnalyze)

		api.POST("/waitlist", h.JoinWaitlist)
		api.GET("/waitlist", auth, h.FindWaitlistEntry)
	}

	// Paths without the /api prefix are kept for older clients.
	r.POST("/painpoints", auth, h.CreatePainPoint)
	r.GET("/painpoints", auth, h.ListPainPoints)
	r.GET("/recent-painpoints", auth, h.RecentPainPoints)

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// CreatePainPoint classifies and stores a submission in the primary collection.
func (h *Handler) CreatePainPoint(c *gin.Context) {
	var req models.PainPointSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid description")
		return
	}

	rec, err := h.ingestion.Ingest(c.Request.Context(), req, models.TargetPrimary)
	if err != nil {
		h.respondError(c, err, "Invalid description", "Failed to save pain point")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    rec,
	})
}

// ListPainPoints returns every primary record, newest first.
func (h *Handler) ListPainPoints(c *gin.Context) {
	h.list(c, 0, "Failed to retrieve pain points")
}

// RecentPainPoints returns the newest primary records.
func (h *Handler) RecentPainPoints(c *gin.Context) {
	h.list(c, RecentLimit, "Failed to retrieve recent pain points")
}

func (h *Handler) list(c *gin.Context, limit int, failMessage string) {
	records, err := h.ingestion.List(c.Request.Context(), h.showTest, limit)
	if err != nil {
		h.logger.Error("Failed to list pain points", zap.Error(err))
		fail(c, http.StatusInternalServerError, failMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(records),
		"data":    records,
	})
}

// PublicAnalyze stores an anonymous submission and returns the reduced view.
func (h *Handler) PublicAnalyze(c *gin.Context) {
	var req models.PainPointSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid or empty description provided.")
		return
	}

	rec, err := h.ingestion.Ingest(c.Request.Context(), req, models.TargetPublic)
	if err != nil {
		h.respondError(c, err, "Invalid or empty description provided.", "Analysis failed due to an internal error.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rec.PublicView(),
	})
}

// JoinWaitlist adds an email to the waitlist.
func (h *Handler) JoinWaitlist(c *gin.Context) {
	var req models.WaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid email format provided.")
		return
	}

	if _, err := h.waitlist.Join(c.Request.Context(), req); err != nil {
		h.respondError(c, err, "Invalid email format provided.", "Failed to join waitlist due to an internal error.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Successfully joined the waitlist!",
	})
}

// FindWaitlistEntry looks up an entry by the email query parameter.
func (h *Handler) FindWaitlistEntry(c *gin.Context) {
	entry, err := h.waitlist.Find(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.respondError(c, err, "Email query parameter is required.", "Failed to query waitlist.")
		return
	}
	if entry == nil {
		fail(c, http.StatusNotFound, "Email is not on the waitlist.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entry,
	})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "painsignal",
	})
}

// respondError maps service errors onto status codes.
func (h *Handler) respondError(c *gin.Context, err error, badRequest, internal string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		fail(c, http.StatusBadRequest, badRequest)
	case errors.Is(err, service.ErrDuplicate):
		fail(c, http.StatusConflict, "This email is already on the waitlist.")
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		fail(c, http.StatusInternalServerError, internal)
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

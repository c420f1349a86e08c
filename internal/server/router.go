package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/barbridge/barbridge/backend/internal/auth"
	"github.com/barbridge/barbridge/backend/internal/metrics"
	"github.com/barbridge/barbridge/backend/internal/scheduling"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorContextKey = "barbridge_actor"

var (
	errMissingSessionManager    = errors.New("session manager dependency required")
	errMissingSchedulingService = errors.New("scheduling service dependency required")
	errInvalidAuthorization     = errors.New("authorization header missing or invalid")
)

// SessionValidator verifies bearer tokens and resolves the acting user.
type SessionValidator interface {
	ValidateToken(token string) (auth.Actor, error)
}

// Dependencies wires the HTTP layer.
type Dependencies struct {
	Sessions   SessionValidator
	Scheduling *scheduling.Service
	Logger     *zap.Logger
}

// NewHTTPHandler builds the gin router for the scheduling API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errMissingSessionManager
	}
	if deps.Scheduling == nil {
		return nil, errMissingSchedulingService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		sessions:   deps.Sessions,
		scheduling: deps.Scheduling,
		logger:     logger,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/appointments", handler.handleCreate)
	protected.GET("/appointments", handler.handleView)
	protected.GET("/appointments/:id", handler.handleGet)
	protected.PUT("/appointments/:id", handler.handleStaffUpdate)
	protected.POST("/appointments/:id/review", handler.handleReview)
	protected.POST("/appointments/:id/cancel", handler.handleCancel)
	protected.POST("/appointments/:id/ignore-overdue", handler.handleIgnoreOverdue)

	return router, nil
}

type httpHandler struct {
	sessions   SessionValidator
	scheduling *scheduling.Service
	logger     *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	actor, err := h.sessions.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(actorContextKey, actor)
	c.Next()
}

func (h *httpHandler) actor(c *gin.Context) (auth.Actor, bool) {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return auth.Actor{}, false
	}
	actor, ok := value.(auth.Actor)
	return actor, ok
}

type appointmentRequestPayload struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Modality        string `json:"modality"`
	Location        string `json:"location"`
	VideoURL        string `json:"video_url"`
	StartsAt        string `json:"starts_at"`
	EndsAt          string `json:"ends_at"`
	Timezone        string `json:"timezone"`
	CandidateUserID string `json:"candidate_user_id"`
}

type appointmentResponsePayload struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Modality        string `json:"modality"`
	Location        string `json:"location,omitempty"`
	VideoURL        string `json:"video_url,omitempty"`
	StartsAt        string `json:"starts_at"`
	EndsAt          string `json:"ends_at"`
	Timezone        string `json:"timezone"`
	Status          string `json:"status"`
	CandidateUserID string `json:"candidate_user_id"`
	CreatedBy       string `json:"created_by"`
}

func toAppointmentPayload(a scheduling.Appointment) appointmentResponsePayload {
	return appointmentResponsePayload{
		ID:              a.ID,
		Title:           a.Title,
		Description:     a.Description,
		Modality:        string(a.Modality),
		Location:        a.Location,
		VideoURL:        a.VideoURL,
		StartsAt:        a.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:          a.EndsAt.UTC().Format(time.RFC3339),
		Timezone:        a.Timezone,
		Status:          string(a.Status),
		CandidateUserID: a.CandidateUserID,
		CreatedBy:       a.CreatedBy,
	}
}

func (h *httpHandler) handleCreate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request appointmentRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	createRequest, ok := parseAppointmentRequest(request)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": scheduling.CodeInvalidTimeRange})
		return
	}

	appointment, err := h.scheduling.Create(c.Request.Context(), actor, createRequest)
	if err != nil {
		h.renderError(c, "appointment create failed", err)
		return
	}
	c.JSON(http.StatusCreated, toAppointmentPayload(appointment))
}

type viewResponsePayload struct {
	Overdue        []appointmentResponsePayload `json:"overdue"`
	Requests       []appointmentResponsePayload `json:"requests"`
	Upcoming       []appointmentResponsePayload `json:"upcoming"`
	NeedsAttention bool                         `json:"needs_attention"`
}

func (h *httpHandler) handleView(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	buckets, err := h.scheduling.View(c.Request.Context(), actor)
	if err != nil {
		h.renderError(c, "appointment view failed", err)
		return
	}

	response := viewResponsePayload{
		Overdue:        make([]appointmentResponsePayload, 0, len(buckets.Overdue)),
		Requests:       make([]appointmentResponsePayload, 0, len(buckets.Requests)),
		Upcoming:       make([]appointmentResponsePayload, 0, len(buckets.Upcoming)),
		NeedsAttention: buckets.NeedsAttention(),
	}
	for _, a := range buckets.Overdue {
		response.Overdue = append(response.Overdue, toAppointmentPayload(a))
	}
	for _, a := range buckets.Requests {
		response.Requests = append(response.Requests, toAppointmentPayload(a))
	}
	for _, a := range buckets.Upcoming {
		response.Upcoming = append(response.Upcoming, toAppointmentPayload(a))
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleGet(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	appointment, err := h.scheduling.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.renderError(c, "appointment get failed", err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentPayload(appointment))
}

func (h *httpHandler) handleStaffUpdate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request appointmentRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	createRequest, ok := parseAppointmentRequest(request)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": scheduling.CodeInvalidTimeRange})
		return
	}
	updateRequest := scheduling.UpdateRequest{
		Title:       createRequest.Title,
		Description: createRequest.Description,
		Modality:    createRequest.Modality,
		Location:    createRequest.Location,
		VideoURL:    createRequest.VideoURL,
		StartsAt:    createRequest.StartsAt,
		EndsAt:      createRequest.EndsAt,
		Timezone:    createRequest.Timezone,
	}

	appointment, err := h.scheduling.StaffUpdate(c.Request.Context(), actor, c.Param("id"), updateRequest)
	if err != nil {
		h.renderError(c, "appointment update failed", err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentPayload(appointment))
}

type reviewRequestPayload struct {
	Decision string `json:"decision"`
}

func (h *httpHandler) handleReview(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request reviewRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	appointment, err := h.scheduling.Review(c.Request.Context(), actor, c.Param("id"),
		scheduling.ReviewDecision(strings.ToLower(strings.TrimSpace(request.Decision))))
	if err != nil {
		h.renderError(c, "appointment review failed", err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentPayload(appointment))
}

func (h *httpHandler) handleCancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	appointment, err := h.scheduling.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.renderError(c, "appointment cancel failed", err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentPayload(appointment))
}

func (h *httpHandler) handleIgnoreOverdue(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	appointment, err := h.scheduling.IgnoreOverdue(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.renderError(c, "appointment ignore-overdue failed", err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentPayload(appointment))
}

func (h *httpHandler) renderError(c *gin.Context, message string, err error) {
	code := scheduling.CodeOf(err)
	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err))
	} else {
		h.logger.Warn(message, zap.String("code", code))
	}
	c.JSON(status, gin.H{"error": code})
}

func statusForCode(code string) int {
	switch code {
	case scheduling.CodeAppointmentConflict, scheduling.CodeInvalidStatusTransition:
		return http.StatusConflict
	case scheduling.CodeForbidden:
		return http.StatusForbidden
	case scheduling.CodeAppointmentNotFound:
		return http.StatusNotFound
	case scheduling.CodeInvalidTimeRange, scheduling.CodeMissingLocation,
		scheduling.CodeMissingVideoURL, scheduling.CodeInvalidModality,
		scheduling.CodeMissingTitle:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseAppointmentRequest(request appointmentRequestPayload) (scheduling.CreateRequest, bool) {
	startsAt, err := time.Parse(time.RFC3339, request.StartsAt)
	if err != nil {
		return scheduling.CreateRequest{}, false
	}
	endsAt, err := time.Parse(time.RFC3339, request.EndsAt)
	if err != nil {
		return scheduling.CreateRequest{}, false
	}
	return scheduling.CreateRequest{
		Title:           strings.TrimSpace(request.Title),
		Description:     request.Description,
		Modality:        scheduling.Modality(strings.ToLower(strings.TrimSpace(request.Modality))),
		Location:        strings.TrimSpace(request.Location),
		VideoURL:        strings.TrimSpace(request.VideoURL),
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		Timezone:        strings.TrimSpace(request.Timezone),
		CandidateUserID: strings.TrimSpace(request.CandidateUserID),
	}, true
}

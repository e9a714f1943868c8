package handlers

import (
	"fmt"
	"net/http"

	"github.com/creativecanvas/backend/internal/auth"
	"github.com/creativecanvas/backend/internal/logging"
	"github.com/creativecanvas/backend/internal/models"
	"github.com/creativecanvas/backend/internal/relay"
)

// RelayHandler exposes the creative canvas workflow as a JSON API.
type RelayHandler struct {
	Relay        Relay
	Limiter      RateLimiter
	Metrics      RateLimitRecorder
	MaxBodyBytes int64
}

type understandRequest struct {
	ImageData string `json:"imageData"`
	Style     string `json:"style"`
	Notes     string `json:"notes"`
}

type generateRequest struct {
	ImageData string `json:"imageData"`
	Prompt    string `json:"prompt"`
	Model     string `json:"model"`
}

type generateResponse struct {
	Parts []models.ImagePart `json:"parts"`
}

type saveCreationRequest struct {
	DrawingData   string `json:"drawingData"`
	GeneratedData string `json:"generatedData"`
	Prompt        string `json:"prompt"`
	Description   string `json:"cn_description"`
	Style         string `json:"cn_style"`
}

type saveCreationResponse struct {
	CreationID string `json:"creationId"`
	Message    string `json:"message"`
}

type generateVideoRequest struct {
	ImageData  string `json:"imageData"`
	Prompt     string `json:"prompt"`
	CreationID string `json:"creationId"`
	Model      string `json:"model"`
}

type generateVideoResponse struct {
	OperationName string `json:"operationName"`
}

type videoStatusRequest struct {
	OperationName string `json:"operationName"`
	CreationID    string `json:"creationId"`
	Prompt        string `json:"prompt"`
}

type deleteCreationsRequest struct {
	CreationIDs []string `json:"creationIds"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	Email string `json:"email"`
	ID    string `json:"id"`
}

// Understand handles POST /api/understand.
func (h RelayHandler) Understand(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r, http.MethodPost, "understand") {
		return
	}

	var req understandRequest
	if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
		return
	}

	ctx := r.Context()
	analysis, err := h.Relay.Understand(ctx, relay.UnderstandInput{
		ImageData: req.ImageData,
		Style:     req.Style,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, analysis)
}

// Generate handles POST /api/generate.
func (h RelayHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r, http.MethodPost, "generate") {
		return
	}

	var req generateRequest
	if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
		return
	}

	ctx := r.Context()
	part, err := h.Relay.GenerateImage(ctx, relay.GenerateInput{
		ImageData: req.ImageData,
		Prompt:    req.Prompt,
		Model:     req.Model,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, generateResponse{Parts: []models.ImagePart{part}})
}

// SaveCreation handles POST /api/save-creation.
func (h RelayHandler) SaveCreation(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r, http.MethodPost, "") {
		return
	}

	var req saveCreationRequest
	if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
		return
	}

	ctx := r.Context()
	creationID, err := h.Relay.SaveCreation(ctx, relay.SaveInput{
		UserID:        auth.UserFromContext(ctx).ID,
		DrawingData:   req.DrawingData,
		GeneratedData: req.GeneratedData,
		Prompt:        req.Prompt,
		Description:   req.Description,
		Style:         req.Style,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("creation saved", "creationId", creationID)
	respondJSON(ctx, w, http.StatusCreated, saveCreationResponse{
		CreationID: creationID,
		Message:    "Creation saved successfully.",
	})
}

// GenerateVideo handles POST /api/generate-video.
func (h RelayHandler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r, http.MethodPost, "generate-video") {
		return
	}

	var req generateVideoRequest
	if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
		return
	}

	ctx := r.Context()
	operationName, err := h.Relay.StartVideo(ctx, relay.StartVideoInput{
		UserID:     auth.UserFromContext(ctx).ID,
		ImageData:  req.ImageData,
		Prompt:     req.Prompt,
		CreationID: req.CreationID,
		Model:      req.Model,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, generateVideoResponse{OperationName: operationName})
}

// VideoStatus handles POST /api/video-status.
func (h RelayHandler) VideoStatus(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r, http.MethodPost, "") {
		return
	}

	var req videoStatusRequest
	if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
		return
	}

	ctx := r.Context()
	status, err := h.Relay.VideoStatus(ctx, relay.VideoStatusInput{
		UserID:        auth.UserFromContext(ctx).ID,
		OperationName: req.OperationName,
		CreationID:    req.CreationID,
		Prompt:        req.Prompt,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, status)
}

// User handles GET /api/user.
func (h RelayHandler) User(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r, http.MethodGet, "") {
		return
	}

	ctx := r.Context()
	user, err := h.Relay.CurrentUser(ctx, auth.UserFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, userResponse{Email: user.Email, ID: user.ID})
}

// Creations handles GET and DELETE /api/creations.
func (h RelayHandler) Creations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listCreations(w, r)
	case http.MethodDelete:
		h.deleteCreations(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h RelayHandler) listCreations(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r, http.MethodGet, "") {
		return
	}

	ctx := r.Context()
	views, err := h.Relay.ListCreations(ctx, auth.UserFromContext(ctx).ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if views == nil {
		views = []models.CreationView{}
	}

	respondJSON(ctx, w, http.StatusOK, views)
}

func (h RelayHandler) deleteCreations(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r, http.MethodDelete, "") {
		return
	}

	var req deleteCreationsRequest
	if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
		return
	}

	ctx := r.Context()
	deleted, err := h.Relay.DeleteCreations(ctx, auth.UserFromContext(ctx).ID, req.CreationIDs)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("%d creation(s) deleted successfully.", deleted),
	})
}

// admit answers the request itself unless it may reach the relay. An empty scope
// leaves the endpoint unlimited.
func (h RelayHandler) admit(w http.ResponseWriter, r *http.Request, method, scope string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}

	ctx := r.Context()
	if h.Relay == nil {
		logging.FromContext(ctx).Error("relay dependencies unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "relay services unavailable"})
		return false
	}

	if scope != "" && !allowRequest(h.Limiter, r, scope) {
		if h.Metrics != nil {
			h.Metrics.RecordRateLimited(r.URL.Path)
		}
		respondJSON(ctx, w, http.StatusTooManyRequests, errorResponse{Error: "too many requests, please slow down"})
		return false
	}
	return true
}

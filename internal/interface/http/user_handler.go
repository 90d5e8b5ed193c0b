package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	userapp "github.com/haitrvn/gutcare/internal/application"
	"github.com/haitrvn/gutcare/internal/interface/middleware"
	"github.com/haitrvn/gutcare/pkg/response"
	"github.com/haitrvn/gutcare/pkg/validation"
)

// UserHandler covers the protected per-user data endpoints: the Gemini API
// key, the health profile, and the symptom diary.
type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type setAPIKeyRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

type profileRequest struct {
	Profile json.RawMessage `json:"profile" binding:"required"`
}

type symptomPayload struct {
	ID string `json:"id"`
	// the rest of the document is opaque; merged back from the raw body
}

// SetAPIKey POST /api/api-key
func (h *UserHandler) SetAPIKey(c *gin.Context) {
	email := c.GetString(middleware.CtxUserEmailKey)
	var req setAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "API key is required", validation.ToDetails(err))
		return
	}
	if err := h.Svc.SetAPIKey(c.Request.Context(), email, req.APIKey); err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"saved": true}, "API key saved successfully")
}

// UpdateProfile POST /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	email := c.GetString(middleware.CtxUserEmailKey)
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "profile data is required", validation.ToDetails(err))
		return
	}
	stored, err := h.Svc.UpdateProfile(c.Request.Context(), email, req.Profile)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusOK, stored, "profile saved")
}

// AddSymptom POST /api/symptoms
func (h *UserHandler) AddSymptom(c *gin.Context) {
	email := c.GetString(middleware.CtxUserEmailKey)

	// Bind twice: once to reach the frontend-assigned id, once to keep the
	// full document verbatim for storage.
	var raw struct {
		Symptom json.RawMessage `json:"symptom" binding:"required"`
	}
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.Error(c, http.StatusBadRequest, "symptom data is required", validation.ToDetails(err))
		return
	}
	var payload symptomPayload
	if err := json.Unmarshal(raw.Symptom, &payload); err != nil {
		response.Error(c, http.StatusBadRequest, "symptom data is required", nil)
		return
	}
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}

	history, err := h.Svc.AddSymptom(c.Request.Context(), email, payload.ID, raw.Symptom)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusCreated, history, "symptom logged")
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/haitrvn/gutcare/internal/application"
	"github.com/haitrvn/gutcare/pkg/response"
	"github.com/haitrvn/gutcare/pkg/validation"
)

// AuthHandler exposes the public register and login endpoints.
type AuthHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *userapp.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "email and password are required", validation.ToDetails(err))
		return
	}
	if err := h.Svc.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, userapp.ErrEmailTaken) {
			response.Error(c, http.StatusConflict, "email already exists", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success[any](c, http.StatusCreated, gin.H{"registered": true}, "user created successfully")
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "email and password are required", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"token": res.Token,
		"user": gin.H{
			"email":     res.Email,
			"profile":   res.Profile,
			"hasApiKey": res.HasAPIKey,
		},
		"symptoms":   res.Symptoms,
		"expires_at": res.ExpiresAt,
	}, "login successful")
}

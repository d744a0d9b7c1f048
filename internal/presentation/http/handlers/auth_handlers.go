package handlers

import (
	"net/http"
	"time"

	"github.com/formflowhq/formflow-go/internal/application/services"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandlers contains the authentication HTTP handlers.
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies.
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostRegister handles POST /api/v1/auth/register
func (h *AuthHandlers) PostRegister(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_register_request")
	defer marker.Complete()

	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Register(input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Auth().Info("Register request completed", "userId", result.User.ID, "duration", time.Since(start))
	marker.SetSuccess(true)
	respondData(c, http.StatusCreated, result)
}

// PostLogin handles POST /api/v1/auth/login
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_login_request")
	defer marker.Complete()

	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Login(input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Auth().Info("Login request completed", "userId", result.User.ID, "duration", time.Since(start))
	marker.SetSuccess(true)
	respondData(c, http.StatusOK, result)
}

// refreshRequest carries the refresh and logout request body.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// PostRefresh handles POST /api/v1/auth/refresh
func (h *AuthHandlers) PostRefresh(c *gin.Context) {
	marker := h.perfTracker.StartOperation("post_refresh_request")
	defer marker.Complete()

	var input refreshRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Refresh(input.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	marker.SetSuccess(true)
	respondData(c, http.StatusOK, result)
}

// PostLogout handles POST /api/v1/auth/logout
func (h *AuthHandlers) PostLogout(c *gin.Context) {
	var input refreshRequest
	// An empty or malformed body still logs the caller out.
	_ = c.ShouldBindJSON(&input)

	if err := h.authService.Logout(input.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"success": true})
}

// GetMe handles GET /api/v1/auth/me
func (h *AuthHandlers) GetMe(c *gin.Context) {
	user, err := h.authService.CurrentUser(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

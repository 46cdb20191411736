package handlers

import (
	"strings"
	"time"

	"volunteerhub/internal/adapters/http/middleware"
	"volunteerhub/internal/config"
	"volunteerhub/internal/core/services"
	"volunteerhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication and password recovery endpoints
type AuthHandler struct {
	authService     *services.AuthService
	recoveryService *services.RecoveryService
	cfg             *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, recoveryService *services.RecoveryService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		recoveryService: recoveryService,
		cfg:             cfg,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents forgot password request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest represents OTP verification request body
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest represents password reset request body
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest represents change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Login handles user login
// @Summary Login user
// @Description Authenticate user and return a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 423 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}

	if req.Email == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Password is required")
	}

	result, err := h.authService.Login(c.Context(), &services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	h.setSessionCookie(c, result.Token)

	return response.Success(c, "Login successful", fiber.Map{
		"token": result.Token,
		"user":  result.User,
	})
}

// Me returns the current user info
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Unauthorized")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Revoke the current session. Idempotent.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [get]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := c.Cookies("access_token")
	if token == "" {
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	_ = h.authService.Logout(c.Context(), token)

	h.clearSessionCookie(c)

	return response.Success(c, "Logged out successfully", nil)
}

// ChangePassword handles password change for the logged-in user
// @Summary Change password
// @Description Change the current user's password; revokes all sessions
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Password change data"
// @Success 200 {object} response.Response
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Unauthorized")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}

	err := h.authService.ChangePassword(c.Context(), user.ID, &services.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return respondError(c, err)
	}

	h.clearSessionCookie(c)

	return response.Success(c, "Password changed successfully, please login again", nil)
}

// ForgotPassword starts password recovery
// @Summary Request password reset
// @Description Send a one-time reset code to the email if it is registered
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ForgotPasswordRequest true "Account email"
// @Success 200 {object} response.Response
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}
	if req.Email == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Email is required")
	}

	if err := h.recoveryService.Request(c.Context(), req.Email); err != nil {
		return respondError(c, err)
	}

	// same response whether or not the email exists
	return response.Success(c, "If the email is registered, a reset code has been sent", nil)
}

// VerifyOTP checks a reset code without consuming it
// @Summary Verify reset code
// @Description Validate the one-time reset code before resetting
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body VerifyOTPRequest true "Email and code"
// @Success 200 {object} response.Response
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}
	if req.Email == "" || req.OTP == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Email and otp are required")
	}

	if err := h.recoveryService.Verify(c.Context(), req.Email, req.OTP); err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Code verified", nil)
}

// ResetPassword completes password recovery
// @Summary Reset password
// @Description Consume the reset code and set a new password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "Email, code and new password"
// @Success 200 {object} response.Response
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}
	if req.Email == "" || req.OTP == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Email and otp are required")
	}

	if err := h.recoveryService.Reset(c.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Password reset successfully, please login", nil)
}

// setSessionCookie sets the session token cookie
func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   h.cfg.Auth.SessionTTLHours * 60 * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearSessionCookie clears the session token cookie
func (h *AuthHandler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

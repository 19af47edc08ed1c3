package accounts

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/session"
	"github.com/agrimech/portal/pkg/response"
)

const (
	msgResetRequested = "If an account with that email exists, password reset instructions have been sent."
	msgResendQueued   = "If the account exists and is not yet verified, a new verification email has been sent."
)

// RegisterRequest is the body for POST /api/register.
type RegisterRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName"`
	Organization    string `json:"organization"`
	Country         string `json:"country"`
}

// EmailRequest is the body for forgot-password and resend-verification.
type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest is the body for POST /api/reset-password.
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ProfileRequest is the body for PUT /api/profile.
type ProfileRequest struct {
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Organization *string `json:"organization"`
	Country      *string `json:"country"`
	Bio          *string `json:"bio"`
}

func (r ProfileRequest) input() ProfileInput {
	return ProfileInput{FirstName: r.FirstName, LastName: r.LastName, Organization: r.Organization, Country: r.Country, Bio: r.Bio}
}

// ChangePasswordRequest is the body for PUT /api/profile/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Handler handles the public account endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an accounts handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register handles POST /api/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("email, password, confirmPassword and firstName are required"))
		return
	}
	user, err := h.svc.Register(c.Request.Context(), RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Organization:    req.Organization,
		Country:         req.Country,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, user.ToPublic())
}

// VerifyEmail handles GET /api/verify-email?token=.
func (h *Handler) VerifyEmail(c *gin.Context) {
	user, err := h.svc.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, user.ToPublic())
}

// ForgotPassword handles POST /api/forgot-password. The reply never reveals whether the email exists.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("email is required"))
		return
	}
	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, msgResetRequested)
}

// ResendVerification handles POST /api/resend-verification.
func (h *Handler) ResendVerification(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("email is required"))
		return
	}
	if err := h.svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, msgResendQueued)
}

// ResetPassword handles POST /api/reset-password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("token and password are required"))
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "Password has been reset. You can now log in.")
}

// Profile handles GET /api/profile.
func (h *Handler) Profile(c *gin.Context) {
	current, ok := session.CurrentUser(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrAuthRequired)
		return
	}
	user, err := h.svc.Profile(c.Request.Context(), current.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, user.ToPublic())
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	current, ok := session.CurrentUser(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrAuthRequired)
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.ErrValidation)
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), current.ID, req.input())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, user.ToPublic())
}

// ChangePassword handles PUT /api/profile/password.
func (h *Handler) ChangePassword(c *gin.Context) {
	current, ok := session.CurrentUser(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrAuthRequired)
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("currentPassword and newPassword are required"))
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), current.ID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "Password updated.")
}

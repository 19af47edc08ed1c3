package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/middleware"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/response"
)

// LoginRequest is the body for POST /api/admin/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest is the body for POST /api/admin/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest is the body for POST /api/admin/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateAdminRequest is the body for POST /api/admin/admins.
type CreateAdminRequest struct {
	Username string           `json:"username" binding:"required"`
	Password string           `json:"password" binding:"required"`
	FullName string           `json:"fullName" binding:"required"`
	Email    string           `json:"email" binding:"required"`
	Role     models.AdminRole `json:"role"`
}

// UpdateAdminRequest is the body for PUT /api/admin/admins/:id.
type UpdateAdminRequest struct {
	FullName *string           `json:"fullName"`
	Email    *string           `json:"email"`
	Role     *models.AdminRole `json:"role"`
	IsActive *bool             `json:"isActive"`
	Password *string           `json:"password"`
}

// Handler serves the admin authentication and admin management endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Login handles POST /api/admin/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("username and password are required"))
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, res)
}

// Verify handles GET /api/admin/verify.
func (h *Handler) Verify(c *gin.Context) {
	a, ok := middleware.CurrentAdmin(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrUnauthorized)
		return
	}
	response.OK(c, a)
}

// ForgotPassword handles POST /api/admin/forgot-password.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("email is required"))
		return
	}
	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "If an admin account with that email exists, password reset instructions have been sent.")
}

// ResetPassword handles POST /api/admin/reset-password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("token and password are required"))
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "Password has been reset.")
}

// List handles GET /api/admin/admins.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/admin/admins/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, a)
}

// Create handles POST /api/admin/admins.
func (h *Handler) Create(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("username, password, fullName and email are required"))
		return
	}
	a, err := h.svc.Create(c.Request.Context(), CreateInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, a)
}

// Update handles PUT /api/admin/admins/:id.
func (h *Handler) Update(c *gin.Context) {
	actor, ok := middleware.CurrentAdmin(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrUnauthorized)
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.ErrValidation)
		return
	}
	a, err := h.svc.UpdateAdmin(c.Request.Context(), actor.ID, id, Update{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: req.IsActive,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, a)
}

// Delete handles DELETE /api/admin/admins/:id.
func (h *Handler) Delete(c *gin.Context) {
	actor, ok := middleware.CurrentAdmin(c)
	if !ok {
		response.Error(c, h.logger, apperr.ErrUnauthorized)
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteAdmin(c.Request.Context(), actor.ID, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "admin deleted")
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("admin"))
		return uuid.Nil, false
	}
	return id, true
}

package accounts

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/response"
	"github.com/agrimech/portal/pkg/utils"
)

// CreateUserRequest is the body for POST /api/admin/users.
type CreateUserRequest struct {
	Email        string          `json:"email" binding:"required"`
	Password     string          `json:"password" binding:"required"`
	FirstName    string          `json:"firstName" binding:"required"`
	LastName     string          `json:"lastName"`
	Role         models.UserRole `json:"role"`
	Organization string          `json:"organization"`
	Country      string          `json:"country"`
}

// UpdateUserRequest is the body for PUT /api/admin/users/:id.
type UpdateUserRequest struct {
	ProfileRequest
	Role            *models.UserRole `json:"role"`
	IsActive        *bool            `json:"isActive"`
	IsEmailVerified *bool            `json:"isEmailVerified"`
}

// AdminHandler serves user management for admins.
type AdminHandler struct {
	svc    *Service
	logger *zap.Logger
}

// NewAdminHandler creates the admin user handler.
func NewAdminHandler(svc *Service, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{svc: svc, logger: logger}
}

// List handles GET /api/admin/users?search=&limit=&offset=.
func (h *AdminHandler) List(c *gin.Context) {
	limit, offset := utils.ParseLimitOffset(c.Query("limit"), c.Query("offset"), 50, 200)
	users, total, err := h.svc.ListUsers(c.Request.Context(), UserFilter{Search: c.Query("search"), Limit: limit, Offset: offset})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: users, Total: total, Limit: limit, Offset: offset})
}

// Get handles GET /api/admin/users/:id.
func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := parseID(c, h.logger)
	if !ok {
		return
	}
	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, user.ToPublic())
}

// Create handles POST /api/admin/users.
func (h *AdminHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.Validation("email, password and firstName are required"))
		return
	}
	user, err := h.svc.CreateUser(c.Request.Context(), CreateUserInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Organization: req.Organization,
		Country:      req.Country,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, user.ToPublic())
}

// Update handles PUT /api/admin/users/:id.
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := parseID(c, h.logger)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, apperr.ErrValidation)
		return
	}
	user, err := h.svc.UpdateUser(c.Request.Context(), id, UserUpdate{
		ProfileInput:    req.input(),
		Role:            req.Role,
		IsActive:        req.IsActive,
		IsEmailVerified: req.IsEmailVerified,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, user.ToPublic())
}

// Delete handles DELETE /api/admin/users/:id.
func (h *AdminHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, h.logger)
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "user deleted")
}

func parseID(c *gin.Context, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, logger, apperr.NotFound("user"))
		return uuid.Nil, false
	}
	return id, true
}

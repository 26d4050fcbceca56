package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/dealer-management-api/shared/auth"
	"github.com/pavitra93/dealer-management-api/shared/metrics"
	"github.com/pavitra93/dealer-management-api/shared/middleware"
	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	UserID   uint   `json:"userId"`
	Role     string `json:"role"`
	DealerID *uint  `json:"dealerId"`
}

// CreateUserRequest represents a user provisioning request
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	DealerID *uint  `json:"dealerId"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// handleLogin exchanges credentials for a signed token
func handleLogin(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		session, err := a.authn.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			metrics.RecordLogin(string(utils.AsAppError(err).Kind))
			utils.HandleError(c, err)
			return
		}
		metrics.RecordLogin("success")

		user := session.User
		dealerID := user.DealerID
		if user.Role == models.RoleProducerAdmin {
			dealerID = nil
		}

		c.JSON(http.StatusOK, LoginResponse{
			Success:  true,
			Message:  "Login successful.",
			Token:    session.Token,
			UserID:   user.ID,
			Role:     string(user.Role),
			DealerID: dealerID,
		})
	}
}

// handleLogout is stateless; clients discard their token
func handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.OKResponse(c, "Logged out successfully.", nil)
	}
}

// handleCreateUser provisions a user within the creator's authority
func handleCreateUser(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		creator, _ := middleware.GetPrincipal(c)

		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		user, err := a.provisioner.Register(c.Request.Context(), creator, auth.NewUser{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
			Role:     req.Role,
			DealerID: req.DealerID,
		})
		if err != nil {
			utils.HandleError(c, err)
			return
		}

		utils.CreatedResponse(c, "User created successfully.", gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"role":     user.Role,
			"dealerId": user.DealerID,
		})
	}
}

// handleChangePassword updates the caller's own password
func handleChangePassword(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)

		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
			utils.BadRequestResponse(c, "All password fields are required.")
			return
		}
		if req.NewPassword != req.ConfirmPassword {
			utils.BadRequestResponse(c, "New passwords do not match.")
			return
		}

		if err := a.provisioner.ChangePassword(c.Request.Context(), principal, req.CurrentPassword, req.NewPassword); err != nil {
			utils.HandleError(c, err)
			return
		}
		utils.OKResponse(c, "Password changed successfully.", nil)
	}
}

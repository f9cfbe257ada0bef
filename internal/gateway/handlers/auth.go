package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docbridge/internal/gateway/middleware"
	"docbridge/internal/gateway/service"
	"docbridge/internal/models"
)

// The response envelope is fixed: the portal's gateway client keys off the
// success flag, never the HTTP status alone.

type loginRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required"`
	UserType models.UserType `json:"userType" binding:"required"`
}

type userResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	UserType   string `json:"userType"`
	IsVerified bool   `json:"isVerified"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

func toUserResponse(user models.User) userResponse {
	resp := userResponse{
		ID:         user.ID,
		Email:      user.Email,
		UserType:   string(user.UserType),
		IsVerified: user.IsVerified,
	}
	if user.CreatedAt != nil {
		resp.CreatedAt = user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if !req.UserType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unknown user type"})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, req.UserType)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, service.ErrInvalidCredentials) && !errors.Is(err, service.ErrNotVerified) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "login successful",
		"user":    toUserResponse(user),
		"token":   token,
	})
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	verificationURL, err := h.authService.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, service.ErrEmailTaken) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "verification email sent successfully",
		"encryptedUrl": verificationURL,
	})
}

type verifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h HandlerSet) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidVerifyToken) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "email verified successfully"})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": toUserResponse(user)})
}

package api

import (
	"errors"
	"net/http"

	"github.com/example/marketplace/pkg/models"
	"github.com/example/marketplace/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type profileResponse struct {
	FullName string           `json:"fullName"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Avatar   *models.ImageRef `json:"avatar"`
}

func profileView(profile *models.Profile) profileResponse {
	response := profileResponse{
		FullName: profile.FullName,
		Email:    profile.Email,
		Phone:    profile.Phone,
	}
	if profile.Avatar != "" {
		response.Avatar = &models.ImageRef{Src: profile.Avatar, Alt: "profile image"}
	}
	return response
}

func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.users.ProfileByUserID(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.logger.Error("Failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}
	c.JSON(http.StatusOK, profileView(profile))
}

type profileUpdateRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"omitempty,e164"`
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	profile, err := s.users.UpdateProfile(c.Request.Context(), currentUserID(c), req.FullName, req.Email, req.Phone)
	if err != nil {
		s.logger.Error("Failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, profileView(profile))
}

func (s *Server) uploadAvatar(c *gin.Context) {
	header, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"avatar": "bad file"}})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"avatar": "bad file"}})
		return
	}
	defer file.Close()

	userID := currentUserID(c)
	url, err := s.media.SaveAvatar(userID, header.Filename, file)
	if err != nil {
		s.logger.Error("Failed to store avatar", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar"})
		return
	}
	if err := s.users.UpdateAvatar(c.Request.Context(), userID, url); err != nil {
		s.logger.Error("Failed to update avatar", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update avatar"})
		return
	}

	s.auditLog(repository.AuditAvatarUpload, repository.EntityKey(repository.EntityUser, userID), userID,
		bson.M{"avatar": url})
	c.JSON(http.StatusOK, "successful operation")
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

func (s *Server) changePassword(c *gin.Context) {
	var req passwordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := currentUserID(c)
	err := s.users.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, repository.ErrWrongPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"currentPassword": "current password does not match"}})
		return
	}
	if err != nil {
		s.logger.Error("Failed to change password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
		return
	}

	s.auditLog(repository.AuditPasswordChange, repository.EntityKey(repository.EntityUser, userID), userID, bson.M{})
	c.JSON(http.StatusOK, "successful operation")
}

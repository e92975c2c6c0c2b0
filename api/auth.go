package api

import (
	"errors"
	"net/http"

	"github.com/example/marketplace/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type signUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// startSession binds the user to the caller's existing session token
// when one is present (keeping an anonymous basket alive through
// sign-in) or issues a fresh one.
func (s *Server) startSession(c *gin.Context, userID uint) error {
	token := sessionToken(c)
	if token != "" {
		return s.store.BindSession(c.Request.Context(), token, userID, s.config.Session.TTL)
	}
	token, err := s.store.CreateSession(c.Request.Context(), userID, s.config.Session.TTL)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, token)
	c.Set(ctxSessionToken, token)
	c.Set(ctxUserID, userID)
	return nil
}

func (s *Server) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	user, err := s.users.Create(c.Request.Context(), req.Name, req.Username, req.Password)
	if errors.Is(err, repository.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"errors": gin.H{"username": "this username is already taken"}})
		return
	}
	if err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign up"})
		return
	}

	if err := s.startSession(c, user.ID); err != nil {
		s.logger.Error("Failed to start session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign up"})
		return
	}

	s.auditLog(repository.AuditSignUp, repository.EntityKey(repository.EntityUser, user.ID), user.ID,
		bson.M{"username": user.Username})
	c.JSON(http.StatusOK, "successful operation")
}

func (s *Server) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	// One uniform failure for unknown username and wrong password, so
	// responses cannot be used to enumerate accounts.
	user, err := s.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, repository.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to authenticate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	if err := s.startSession(c, user.ID); err != nil {
		s.logger.Error("Failed to start session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}
	c.JSON(http.StatusOK, "successful operation")
}

func (s *Server) signOut(c *gin.Context) {
	if err := s.store.DeleteSession(c.Request.Context(), sessionToken(c)); err != nil {
		s.logger.Error("Failed to delete session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign out"})
		return
	}
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, "successful operation")
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"inventaris/internal/database"
	"inventaris/internal/logger"
	"inventaris/internal/middleware"
	"inventaris/internal/models"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"notblank"`
	Password string `json:"password" binding:"notblank"`
}

type sessionResponse struct {
	User models.AuthUser `json:"user"`
	Home string          `json:"home"`
}

func newSessionResponse(user *models.User) sessionResponse {
	return sessionResponse{User: user.AuthUser(), Home: user.Role.HomePath()}
}

func handleLogin(c *gin.Context) {
	db := getDB(c)
	cfg := getConfig(c)

	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)

	user, err := database.AuthenticateUser(db, username, req.Password)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrInvalidPassword) {
			logger.Warn("Failed login attempt", "username", username, "ip", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		respondError(c, err, "User not found")
		return
	}

	sess, err := getSessions(c).Create(c.Request.Context(), user.ID)
	if err != nil {
		logger.Error("Failed to create session", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	middleware.SetSessionCookie(c, cfg, sess.ID)
	logger.Info("User logged in", "user_id", user.ID, "role", user.Role)

	c.JSON(http.StatusOK, newSessionResponse(user))
}

func handleLogout(c *gin.Context) {
	if err := getSessions(c).Delete(c.Request.Context(), c.GetString("session_id")); err != nil {
		logger.Warn("Failed to delete session on logout", "user_id", c.GetString("user_id"), "error", err)
	}
	middleware.ClearSessionCookie(c, getConfig(c))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionResponse(currentUser(c)))
}

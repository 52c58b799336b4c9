package handlers

import (
	"net/http"
	"strings"

	"inventaris/internal/database"
	"inventaris/internal/logger"
	"inventaris/internal/models"

	"github.com/gin-gonic/gin"
)

type userRequest struct {
	FullName        string      `json:"fullName" binding:"notblank,max=100"`
	Username        string      `json:"username" binding:"notblank,max=50,username"`
	Role            models.Role `json:"role" binding:"required,oneof=Admin User"`
	ClassOrPosition string      `json:"classOrPosition" binding:"notblank,max=100"`
	IDNumber        string      `json:"idNumber" binding:"notblank,max=50"`
	Email           string      `json:"email" binding:"omitempty,email"`
	Password        string      `json:"password" binding:"omitempty,min=6"`
	ConfirmPassword string      `json:"confirmPassword" binding:"eqfield=Password"`
}

func (r userRequest) user() models.User {
	return models.User{
		FullName:        strings.TrimSpace(r.FullName),
		Username:        strings.TrimSpace(r.Username),
		Role:            r.Role,
		ClassOrPosition: strings.TrimSpace(r.ClassOrPosition),
		IDNumber:        strings.TrimSpace(r.IDNumber),
		Email:           strings.TrimSpace(r.Email),
	}
}

func handleUsers(c *gin.Context) {
	users, err := database.GetUsers(getDB(c), c.Query("search"))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, paginate(users, queryPage(c)))
}

func handleUser(c *gin.Context) {
	user, err := database.GetUserByID(getDB(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func handleCreateUser(c *gin.Context) {
	var req userRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Password == "" {
		fields := fieldErrors{}
		fields.add("password", "Password is required")
		fields.respond(c)
		return
	}

	created, err := database.CreateUser(getDB(c), req.user(), req.Password)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	logger.Info("User created", "user_id", created.ID, "role", created.Role, "admin_id", currentUser(c).ID)
	c.JSON(http.StatusCreated, created)
}

// handleUpdateUser edits an account. An empty password keeps the current
// one, and admins cannot change their own role.
func handleUpdateUser(c *gin.Context) {
	admin := currentUser(c)
	userID := c.Param("id")

	var req userRequest
	if !bindJSON(c, &req) {
		return
	}

	if userID == admin.ID && req.Role != admin.Role {
		fields := fieldErrors{}
		fields.add("role", "You cannot change your own role")
		fields.respond(c)
		return
	}

	updated, err := database.UpdateUser(getDB(c), userID, req.user(), req.Password)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	logger.Info("User updated", "user_id", updated.ID, "admin_id", admin.ID)
	c.JSON(http.StatusOK, updated)
}

func handleDeleteUser(c *gin.Context) {
	admin := currentUser(c)
	userID := c.Param("id")

	if userID == admin.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	if err := database.DeleteUser(getDB(c), userID); err != nil {
		respondError(c, err, "User not found")
		return
	}

	if err := getSessions(c).DeleteUser(c.Request.Context(), userID); err != nil {
		logger.Warn("Failed to revoke sessions of deleted user", "user_id", userID, "error", err)
	}

	logger.Info("User deleted", "user_id", userID, "admin_id", admin.ID)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

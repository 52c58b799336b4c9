package handlers

import (
	"net/http"
	"strings"

	"inventaris/internal/database"
	"inventaris/internal/logger"

	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	FullName        string `json:"fullName" binding:"notblank,max=100"`
	ClassOrPosition string `json:"classOrPosition" binding:"notblank,max=100"`
	IDNumber        string `json:"idNumber" binding:"notblank,max=50"`
	Email           string `json:"email" binding:"omitempty,email"`
	Password        string `json:"password" binding:"omitempty,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"eqfield=Password"`
}

func handleProfile(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// handleUpdateProfile lets any signed-in user edit their own details. The
// username and role stay as the admin set them.
func handleUpdateProfile(c *gin.Context) {
	db := getDB(c)
	user := currentUser(c)

	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := database.UpdateProfile(db, user.ID, database.ProfileUpdate{
		FullName:        strings.TrimSpace(req.FullName),
		ClassOrPosition: strings.TrimSpace(req.ClassOrPosition),
		IDNumber:        strings.TrimSpace(req.IDNumber),
		Email:           strings.TrimSpace(req.Email),
		NewPassword:     req.Password,
	})
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	if req.Password != "" {
		logger.Info("User changed password", "user_id", user.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    updated.AuthUser(),
		"profile": updated,
	})
}

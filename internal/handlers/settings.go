package handlers

import (
	"net/http"
	"strings"

	"inventaris/internal/database"
	"inventaris/internal/logger"
	"inventaris/internal/models"

	"github.com/gin-gonic/gin"
)

const logoFolder = "logo"

type settingsRequest struct {
	SchoolName            string `json:"schoolName" binding:"notblank,max=200"`
	Address               string `json:"address" binding:"notblank,max=500"`
	PrincipalName         string `json:"principalName" binding:"notblank,max=200"`
	AppName               string `json:"appName" binding:"notblank,max=200"`
	DefaultBorrowDuration int    `json:"defaultBorrowDuration" binding:"required,min=1,max=365"`
}

func handleSettings(c *gin.Context) {
	settings, err := database.GetSettings(getDB(c))
	if err != nil {
		respondError(c, err, "Settings not found")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// handleBranding is public so the login screen can show the school.
func handleBranding(c *gin.Context) {
	settings, err := database.GetSettings(getDB(c))
	if err != nil {
		respondError(c, err, "Settings not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"appName":    settings.AppName,
		"schoolName": settings.SchoolName,
		"schoolLogo": settings.SchoolLogo,
	})
}

func handleUpdateSettings(c *gin.Context) {
	db := getDB(c)

	var req settingsRequest
	if !bindJSON(c, &req) {
		return
	}

	current, err := database.GetSettings(db)
	if err != nil {
		respondError(c, err, "Settings not found")
		return
	}

	updated := models.Settings{
		SchoolName:            strings.TrimSpace(req.SchoolName),
		Address:               strings.TrimSpace(req.Address),
		PrincipalName:         strings.TrimSpace(req.PrincipalName),
		AppName:               strings.TrimSpace(req.AppName),
		DefaultBorrowDuration: req.DefaultBorrowDuration,
		SchoolLogo:            current.SchoolLogo,
	}
	if err := database.SaveSettings(db, updated); err != nil {
		respondError(c, err, "Settings not found")
		return
	}

	logger.Info("Settings updated", "admin_id", currentUser(c).ID)
	c.JSON(http.StatusOK, updated)
}

func handleUploadLogo(c *gin.Context) {
	db := getDB(c)

	images := getImages(c)
	if images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Logo storage is not configured"})
		return
	}

	settings, err := database.GetSettings(db)
	if err != nil {
		respondError(c, err, "Settings not found")
		return
	}

	url, ok := uploadImage(c, images, logoFolder, "logo")
	if !ok {
		return
	}

	previous := settings.SchoolLogo
	settings.SchoolLogo = url
	if err := database.SaveSettings(db, *settings); err != nil {
		_ = images.Remove(c.Request.Context(), url)
		respondError(c, err, "Settings not found")
		return
	}

	if err := images.Remove(c.Request.Context(), previous); err != nil {
		logger.Warn("Failed to remove previous logo", "error", err)
	}

	c.JSON(http.StatusOK, settings)
}

func handleDeleteLogo(c *gin.Context) {
	db := getDB(c)

	settings, err := database.GetSettings(db)
	if err != nil {
		respondError(c, err, "Settings not found")
		return
	}

	previous := settings.SchoolLogo
	settings.SchoolLogo = ""
	if err := database.SaveSettings(db, *settings); err != nil {
		respondError(c, err, "Settings not found")
		return
	}

	if images := getImages(c); images != nil && previous != "" {
		if err := images.Remove(c.Request.Context(), previous); err != nil {
			logger.Warn("Failed to remove logo", "error", err)
		}
	}

	c.JSON(http.StatusOK, settings)
}

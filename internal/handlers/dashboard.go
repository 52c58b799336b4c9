package handlers

import (
	"net/http"

	"inventaris/internal/database"

	"github.com/gin-gonic/gin"
)

func handleAdminDashboard(c *gin.Context) {
	stats, err := database.GetAdminStats(getDB(c))
	if err != nil {
		respondError(c, err, "Dashboard not available")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func handleUserDashboard(c *gin.Context) {
	stats, err := database.GetUserStats(getDB(c), currentUser(c).ID)
	if err != nil {
		respondError(c, err, "Dashboard not available")
		return
	}
	c.JSON(http.StatusOK, stats)
}

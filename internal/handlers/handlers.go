package handlers

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"
	"net/http"

	"inventaris/internal/config"
	"inventaris/internal/database"
	"inventaris/internal/email"
	"inventaris/internal/logger"
	"inventaris/internal/middleware"
	"inventaris/internal/models"
	"inventaris/internal/session"

	"github.com/gin-gonic/gin"
)

// Notifier delivers borrowing workflow emails.
type Notifier interface {
	NotifyBorrowingRequested(ctx context.Context, appName string, admins []models.User, b *models.Borrowing) error
	NotifyBorrowingDecision(ctx context.Context, appName string, borrower *models.User, b *models.Borrowing) error
}

// ImageStore keeps uploaded item photos and the school logo.
type ImageStore interface {
	Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error)
	Remove(ctx context.Context, url string) error
}

// Deps are the services every handler can reach through the context.
// Images may be nil when no object storage is configured.
type Deps struct {
	DB       *sql.DB
	Config   *config.Config
	Sessions session.Store
	Notifier Notifier
	Images   ImageStore
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	registerValidators()

	cfg := deps.Config

	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(cfg))
	r.Use(middleware.IPBlocker(cfg))
	r.Use(middleware.Track404AndBlock(cfg))
	r.Use(middleware.AddDBContext(deps.DB))
	r.Use(addServicesContext(deps))

	r.GET("/healthz", handleHealth)

	api := r.Group("/api")
	api.GET("/branding", handleBranding)
	api.POST("/auth/login", middleware.AuthRateLimit(cfg), handleLogin)

	protected := api.Group("/")
	protected.Use(middleware.AuthRequired(deps.DB, deps.Sessions, cfg))
	{
		protected.POST("/auth/logout", handleLogout)
		protected.GET("/auth/me", handleMe)
		protected.GET("/profile", handleProfile)
		protected.PUT("/profile", handleUpdateProfile)
		protected.GET("/settings", handleSettings)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/dashboard", handleAdminDashboard)

		admin.GET("/items", handleItems)
		admin.GET("/items/categories", handleCategories)
		admin.POST("/items", handleCreateItem)
		admin.GET("/items/:id", handleItem)
		admin.PUT("/items/:id", handleUpdateItem)
		admin.DELETE("/items/:id", handleDeleteItem)
		admin.POST("/items/:id/photo", handleUploadItemPhoto)
		admin.GET("/items/:id/borrowings", handleItemBorrowings)

		admin.GET("/users", handleUsers)
		admin.POST("/users", handleCreateUser)
		admin.GET("/users/:id", handleUser)
		admin.PUT("/users/:id", handleUpdateUser)
		admin.DELETE("/users/:id", handleDeleteUser)

		admin.GET("/borrowings", handleAdminBorrowings)
		admin.POST("/borrowings/:id/approve", handleApproveBorrowing)
		admin.POST("/borrowings/:id/reject", handleRejectBorrowing)
		admin.POST("/borrowings/:id/return", handleReturnBorrowing)

		admin.GET("/reports", handleReport)
		admin.GET("/reports/export", handleExportReport)

		admin.PUT("/settings", handleUpdateSettings)
		admin.POST("/settings/logo", handleUploadLogo)
		admin.DELETE("/settings/logo", handleDeleteLogo)
	}

	user := protected.Group("/user")
	user.Use(middleware.RoleRequired(models.RoleUser))
	{
		user.GET("/dashboard", handleUserDashboard)
		user.GET("/catalog", handleCatalog)
		user.GET("/catalog/categories", handleCategories)
		user.POST("/borrowings", handleCreateBorrowing)
		user.GET("/borrowings", handleUserBorrowings)
	}
}

func addServicesContext(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("config", deps.Config)
		c.Set("sessions", deps.Sessions)
		c.Set("notifier", deps.Notifier)
		c.Set("images", deps.Images)
		c.Next()
	}
}

func getDB(c *gin.Context) *sql.DB {
	return c.MustGet("db").(*sql.DB)
}

func getConfig(c *gin.Context) *config.Config {
	return c.MustGet("config").(*config.Config)
}

func getSessions(c *gin.Context) session.Store {
	return c.MustGet("sessions").(session.Store)
}

func getNotifier(c *gin.Context) Notifier {
	n, _ := c.Get("notifier")
	notifier, _ := n.(Notifier)
	return notifier
}

func getImages(c *gin.Context) ImageStore {
	i, _ := c.Get("images")
	images, _ := i.(ImageStore)
	return images
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}

func handleHealth(c *gin.Context) {
	if err := getDB(c).PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps store errors onto HTTP responses. notFound is the
// message used for a missing record.
func respondError(c *gin.Context, err error, notFound string) {
	var stockErr *database.InsufficientStockError

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Insufficient stock",
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.Is(err, database.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "This borrowing can no longer change to that status"})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, database.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Validation failed",
			"fields": map[string]string{"username": "Username is already taken"},
		})
	default:
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func notifyWarn(err error, what string, keysAndValues ...interface{}) {
	if err == nil || errors.Is(err, email.ErrDisabled) {
		return
	}
	logger.Warn("Failed to send "+what, append(keysAndValues, "error", err)...)
}

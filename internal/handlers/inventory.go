package handlers

import (
	"errors"
	"net/http"
	"strings"

	"inventaris/internal/database"
	"inventaris/internal/logger"
	"inventaris/internal/models"
	"inventaris/internal/storage"

	"github.com/gin-gonic/gin"
)

const itemPhotoFolder = "items"

type itemRequest struct {
	Code              string           `json:"code" binding:"notblank,max=50"`
	Name              string           `json:"name" binding:"notblank,max=200"`
	Category          string           `json:"category" binding:"notblank,max=100"`
	TotalQuantity     *int             `json:"totalQuantity" binding:"required,min=0"`
	AvailableQuantity *int             `json:"availableQuantity" binding:"required,min=0"`
	Condition         models.Condition `json:"condition" binding:"omitempty,oneof=Good MinorDamage MajorDamage"`
	Location          string           `json:"location" binding:"notblank,max=200"`
	Description       string           `json:"description" binding:"max=1000"`
}

// bindItem validates an item form. Quantities are pointers so that an
// explicit zero passes the required check.
func bindItem(c *gin.Context) (models.Item, bool) {
	var req itemRequest
	if !bindJSON(c, &req) {
		return models.Item{}, false
	}

	if *req.AvailableQuantity > *req.TotalQuantity {
		fields := fieldErrors{}
		fields.add("availableQuantity", "Available quantity cannot exceed total quantity")
		fields.respond(c)
		return models.Item{}, false
	}

	condition := req.Condition
	if condition == "" {
		condition = models.ConditionGood
	}

	return models.Item{
		Code:              strings.TrimSpace(req.Code),
		Name:              strings.TrimSpace(req.Name),
		Category:          strings.TrimSpace(req.Category),
		TotalQuantity:     *req.TotalQuantity,
		AvailableQuantity: *req.AvailableQuantity,
		Condition:         condition,
		Location:          strings.TrimSpace(req.Location),
		Description:       strings.TrimSpace(req.Description),
	}, true
}

func handleItems(c *gin.Context) {
	items, err := database.GetItems(getDB(c), database.ItemFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	})
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}

	c.JSON(http.StatusOK, paginate(items, queryPage(c)))
}

func handleItem(c *gin.Context) {
	item, err := database.GetItem(getDB(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}
	c.JSON(http.StatusOK, item)
}

func handleCreateItem(c *gin.Context) {
	item, ok := bindItem(c)
	if !ok {
		return
	}

	created, err := database.CreateItem(getDB(c), item)
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}

	logger.Info("Item created", "item_id", created.ID, "code", created.Code, "admin_id", currentUser(c).ID)
	c.JSON(http.StatusCreated, created)
}

func handleUpdateItem(c *gin.Context) {
	db := getDB(c)
	itemID := c.Param("id")

	existing, err := database.GetItem(db, itemID)
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}

	item, ok := bindItem(c)
	if !ok {
		return
	}
	item.PhotoURL = existing.PhotoURL

	updated, err := database.UpdateItem(db, itemID, item)
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func handleDeleteItem(c *gin.Context) {
	db := getDB(c)
	itemID := c.Param("id")

	item, err := database.GetItem(db, itemID)
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}

	if err := database.DeleteItem(db, itemID); err != nil {
		respondError(c, err, "Item not found")
		return
	}

	if images := getImages(c); images != nil && item.PhotoURL != "" {
		if err := images.Remove(c.Request.Context(), item.PhotoURL); err != nil {
			logger.Warn("Failed to remove item photo", "item_id", itemID, "error", err)
		}
	}

	logger.Info("Item deleted", "item_id", itemID, "admin_id", currentUser(c).ID)
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

func handleUploadItemPhoto(c *gin.Context) {
	db := getDB(c)
	itemID := c.Param("id")

	images := getImages(c)
	if images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo storage is not configured"})
		return
	}

	item, err := database.GetItem(db, itemID)
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}

	url, ok := uploadImage(c, images, itemPhotoFolder, "photo")
	if !ok {
		return
	}

	if err := database.UpdateItemPhoto(db, itemID, url); err != nil {
		_ = images.Remove(c.Request.Context(), url)
		respondError(c, err, "Item not found")
		return
	}

	if item.PhotoURL != "" {
		if err := images.Remove(c.Request.Context(), item.PhotoURL); err != nil {
			logger.Warn("Failed to remove previous item photo", "item_id", itemID, "error", err)
		}
	}

	item.PhotoURL = url
	c.JSON(http.StatusOK, item)
}

// uploadImage stores the multipart file under field and writes the error
// response itself when the upload is rejected.
func uploadImage(c *gin.Context, images ImageStore, folder, field string) (string, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		fields := fieldErrors{}
		fields.add(field, "Please choose an image file")
		fields.respond(c)
		return "", false
	}

	url, err := images.Upload(c.Request.Context(), folder, fh)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		fields := fieldErrors{}
		fields.add(field, "Image must be 2 MB or smaller")
		fields.respond(c)
		return "", false
	case errors.Is(err, storage.ErrDimensions):
		fields := fieldErrors{}
		fields.add(field, "Image dimensions are too large")
		fields.respond(c)
		return "", false
	case errors.Is(err, storage.ErrNotImage):
		fields := fieldErrors{}
		fields.add(field, "File must be an image")
		fields.respond(c)
		return "", false
	case err != nil:
		logger.Error("Failed to store image", "folder", folder, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return "", false
	}

	return url, true
}

package handlers

import (
	"net/http"

	"inventaris/internal/database"

	"github.com/gin-gonic/gin"
)

// handleCategories lists the distinct categories in use, for filter menus.
func handleCategories(c *gin.Context) {
	categories, err := database.GetItemCategories(getDB(c))
	if err != nil {
		respondError(c, err, "Category not found")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// handleCatalog is the borrower's view of the inventory. Without a page
// parameter the whole matching catalog is returned.
func handleCatalog(c *gin.Context) {
	items, err := database.GetItems(getDB(c), database.ItemFilter{
		Search:        c.Query("search"),
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available") == "true",
	})
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}

	if c.Query("page") == "" {
		c.JSON(http.StatusOK, items)
		return
	}
	c.JSON(http.StatusOK, paginate(items, queryPage(c)))
}

package file

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/internal/model"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AZ = A - Z as in alphabetic same for ZA
var validSortOpts = []string{"newest", "oldest", "az", "za", "size-asc", "size-desc"}

// FileList returns the caller's files one page at a time. Admins see
// everybody's files.
func FileList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	pageStr := c.DefaultQuery("page", "0")
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Page must be a number",
			"requestID": requestID,
		})
		return
	}

	if page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Page can't be negative",
			"requestID": requestID,
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Limit must be a number",
			"requestID": requestID,
		})
		return
	}

	if limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Limit must be greater than 0",
			"requestID": requestID,
		})
		return
	}

	if limit > 250 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Limit must be smaller than 250",
			"requestID": requestID,
		})
		return
	}

	sort := strings.ToLower(c.DefaultQuery("sort", "newest"))
	if !slices.Contains(validSortOpts, sort) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid sorting option",
			"requestID": requestID,
		})
		return
	}

	order := ""

	switch sort {
	case "newest":
		order = "created_at desc"
	case "oldest":
		order = "created_at asc"
	case "az":
		order = "original_name"
	case "za":
		order = "original_name desc"
	case "size-asc":
		order = "size asc"
	case "size-desc":
		order = "size desc"
	}

	q := d.DB.Order(order).Offset(page * limit).Limit(limit)
	if !user.Admin {
		q = q.Where("owner_id = ?", user.ID)
	}

	var entries []model.File

	if err := q.Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to lookup files", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, entries)
}

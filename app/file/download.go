package file

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/internal/model"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func FileDownload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	fileID := c.Param("id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	var file model.File

	q := d.DB.Where("id = ?", fileID)
	if !user.Admin {
		q = q.Where("owner_id = ?", user.ID)
	}

	err := q.First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "File not found. It either doesn't exist or you don't own it",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch file from db", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	obj, err := d.Storage.Open(file.StorageKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open stored file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer obj.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, obj, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.OriginalName),
	})
}

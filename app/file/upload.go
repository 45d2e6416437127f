// Package file contains the handlers for the client portal file area
package file

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/internal/model"
	"cedarhill/portal-api/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func FileUpload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	code, f, mime, err := validators.FileValidator(fh)
	if err != nil {
		if code == http.StatusInternalServerError {
			c.JSON(code, gin.H{
				"error":     "Something went wrong",
				"requestID": requestID,
			})

			zap.L().Error("Failed to validate upload", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.JSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer f.Close()

	id, err := gonanoid.Generate(charset, 16)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate file ID", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// Contents live under a generated key, never under the name the
	// client picked
	key, err := gonanoid.New()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate storage key", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := d.Storage.Save(key, f, fh.Size, mime.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store upload", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	ent := model.File{
		ID:           id,
		OwnerID:      user.ID,
		StorageKey:   key,
		OriginalName: fh.Filename,
		ContentType:  mime.String(),
		Size:         fh.Size,
	}

	if err := d.DB.Create(&ent).Error; err != nil {
		// Don't leave the object behind without a row pointing at it
		if err := d.Storage.Delete(key); err != nil {
			zap.L().Error("Failed to clean up after failed upload", zap.String("key", key), zap.Error(err))
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create file record", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	d.Audit.Log(model.ActionFileUploaded, user.ID, "file", ent.ID, fh.Filename)

	c.JSON(http.StatusOK, ent)
}

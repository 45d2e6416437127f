package auth

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/pkg/httpx"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	user, err := d.Accounts.Login(data.Email, data.Password)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	if err := d.Sessions.SetUser(c.Writer, c.Request, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userID":    user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"admin":     user.Admin,
		"requestID": requestID,
	})
}

package controllers

import (
	"net/http"

	"campusdesk-be/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes err as {message, error?}. The underlying cause is only
// exposed for server errors.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := errs.HTTPStatus(err)
	body := gin.H{"message": errs.Message(err)}
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body into dst, reporting malformed bodies as
// validation failures.
func bindJSON(c *gin.Context, log *zap.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, log, errs.Validation("Invalid input data: "+err.Error()))
		return false
	}
	return true
}

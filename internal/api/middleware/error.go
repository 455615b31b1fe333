package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperr "github.com/frostdev-ops/ranalyzer-go/pkg/errors"
	"github.com/frostdev-ops/ranalyzer-go/pkg/utils"
)

// ErrorHandlingMiddleware recovers panics and converts recorded errors
// into the standard response envelope.
func ErrorHandlingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  recovered,
		}).Error("panic recovered")

		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
		c.Abort()
	})
}

// ErrorResponseMiddleware converts errors attached to the context into
// standardized responses after the handler chain runs.
func ErrorResponseMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("request failed")

		switch e := err.(type) {
		case *apperr.ParseError:
			utils.SendErrorWithDetails(c, http.StatusBadRequest, e.Error(), gin.H{
				"markers_searched": e.MarkersSearched,
			})
		case *apperr.BaselineCorruptError:
			utils.SendErrorWithDetails(c, http.StatusInternalServerError, e.Error(), gin.H{
				"site": e.Site,
			})
		case *apperr.AppError:
			utils.SendError(c, e.Code, e.Message)
		default:
			utils.SendError(c, http.StatusInternalServerError, err.Error())
		}
	}
}

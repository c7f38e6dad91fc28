package handlers

import (
	"log"
	"net/http"

	"taskflow/server/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// statusFor is the single place domain error kinds become HTTP
// statuses. Anything outside the closed set is a server error.
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindUserAlreadyRegistered:
		return http.StatusBadRequest
	case apperrors.KindInvalidCredentials:
		return http.StatusUnauthorized
	case apperrors.KindUserNotFound:
		return http.StatusNotFound
	case apperrors.KindInvalidToken:
		return http.StatusUnauthorized
	case apperrors.KindInvalidTaskName:
		return http.StatusBadRequest
	case apperrors.KindInvalidDueDate:
		return http.StatusBadRequest
	case apperrors.KindTaskNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	if de, ok := apperrors.IsDomain(err); ok {
		c.JSON(statusFor(de.Kind), gin.H{"message": de.Message})
		return
	}

	log.Printf("unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
}

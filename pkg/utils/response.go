package utils

import (
	"errors"
	"log"
	"net/http"
	"time"

	"room-booking-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// SuccessResponse sends a standard success JSON response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// CreatedResponse sends a 201 with the created resource
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// ErrorResponse sends a standard error JSON response
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorBody{
		Timestamp: time.Now().UTC(),
		Status:    statusCode,
		Error:     http.StatusText(statusCode),
		Message:   message,
		Path:      c.Request.URL.Path,
	})
}

// HandleError maps err to its HTTP status. Unclassified errors are logged
// and reported without detail.
func HandleError(c *gin.Context, err error) {
	status := apperror.StatusOf(err)

	var appErr *apperror.Error
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		ErrorResponse(c, http.StatusInternalServerError, "internal server error")
		return
	}
	ErrorResponse(c, status, err.Error())
}

// MessageResponse sends a simple message response
func MessageResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

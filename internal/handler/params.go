package handler

import (
	"strconv"

	"room-booking-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid " + name)
	}
	return uint(id), nil
}

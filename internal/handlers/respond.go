package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"valve_control/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK      = "ok"
	statusDeleted = "deleted"

	errInvalidValveID  = "invalid valve number"
	errInvalidBodyPref = "invalid body: "
	errInternal        = "internal error"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// httpStatus maps service errors to status codes; unknown errors are 500.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValveNotFound), errors.Is(err, service.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValveExists), errors.Is(err, service.ErrEntryExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidValveNumber),
		errors.Is(err, service.ErrInvalidValveName),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidEntry),
		errors.Is(err, service.ErrInvalidTimeRange):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondServiceError writes the mapped status. Client errors carry the
// service message; server errors are logged and hidden.
func (h *Handler) respondServiceError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		h.logAndJSONError(c, code, errInternal, logKey, err, kv...)
		return
	}
	h.log.Infow(logKey, append([]interface{}{"err", err, "status", code}, kv...)...)
	c.JSON(code, gin.H{"error": err.Error()})
}

// valveNumber parses the :id path parameter, writing 400 on failure.
func (h *Handler) valveNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidValveID})
		return 0, false
	}
	return n, true
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

package handlers

import (
	"net/http"

	"valve_control/internal/models"

	"github.com/gin-gonic/gin"
)

// DeleteScheduleRequest identifies one timetable entry.
type DeleteScheduleRequest struct {
	Day       string `json:"day" binding:"required" example:"Mon"`
	StartTime string `json:"start_time" binding:"required" example:"08:00"`
	EndTime   string `json:"end_time" binding:"required" example:"09:00"`
}

// @Summary      Set automation status
// @Description  Body is a bare JSON string. The valve status is recomputed at once.
// @Tags         valves
// @Accept       json
// @Produce      json
// @Param        id    path  int     true  "Valve number"
// @Param        body  body  string  true  "ForceOpen, Scheduled or ForceClose"
// @Success      200  {object}  models.Valve
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /valves/{id}/status [post]
func (h *Handler) updateStatus(c *gin.Context) {
	n, ok := h.valveNumber(c)
	if !ok {
		return
	}
	var status models.AutomationStatus
	if err := c.ShouldBindJSON(&status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	v, err := h.services.Valves.SetAutomationStatus(c.Request.Context(), n, status)
	if err != nil {
		h.respondServiceError(c, "valve_set_status_failed", err, "valve", n, "status", status)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary      Delete valve
// @Tags         valves
// @Produce      json
// @Param        id  path  int  true  "Valve number"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /valves/{id}/ [delete]
func (h *Handler) deleteValve(c *gin.Context) {
	n, ok := h.valveNumber(c)
	if !ok {
		return
	}
	if err := h.services.Valves.Delete(c.Request.Context(), n); err != nil {
		h.respondServiceError(c, "valve_delete_failed", err, "valve", n)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted})
}

// @Summary      Delete timetable entry
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        id    path  int                    true  "Valve number"
// @Param        body  body  DeleteScheduleRequest  true  "Entry to remove"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /valves/{id}/timetable [delete]
func (h *Handler) deleteScheduleEntry(c *gin.Context) {
	n, ok := h.valveNumber(c)
	if !ok {
		return
	}
	var req DeleteScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	e, err := parseEntry(req.Day, req.StartTime, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.services.Schedule.RemoveEntry(c.Request.Context(), n, e); err != nil {
		h.respondServiceError(c, "schedule_remove_failed", err, "valve", n)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted})
}

// @Summary      List valves
// @Tags         api
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, valves"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/valves [get]
// @Security     BearerAuth
func (h *Handler) listValves(c *gin.Context) {
	valves, err := h.services.Monitoring.Snapshot(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "api_list_valves_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(valves),
		"valves": valves,
	})
}

// @Summary      Get valve
// @Tags         api
// @Produce      json
// @Param        id  path  int  true  "Valve number"
// @Success      200  {object}  models.Valve
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/valves/{id} [get]
// @Security     BearerAuth
func (h *Handler) getValve(c *gin.Context) {
	n, ok := h.valveNumber(c)
	if !ok {
		return
	}
	v, err := h.services.Valves.Get(c.Request.Context(), n)
	if err != nil {
		h.respondServiceError(c, "api_get_valve_failed", err, "valve", n)
		return
	}
	c.JSON(http.StatusOK, v)
}

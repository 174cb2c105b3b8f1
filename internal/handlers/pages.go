package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"valve_control/internal/models"

	"github.com/gin-gonic/gin"
)

type createValveForm struct {
	ValveNumber string `form:"valve_number" binding:"required"`
	Name        string `form:"name" binding:"required"`
}

type scheduleEntryForm struct {
	Day   string `form:"day" binding:"required"`
	Begin string `form:"begin" binding:"required"`
	End   string `form:"end" binding:"required"`
}

func (h *Handler) homePage(c *gin.Context) {
	valves, err := h.services.Monitoring.Snapshot(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "page_home_failed", err)
		return
	}
	c.HTML(http.StatusOK, "index", gin.H{"Valves": valves})
}

func (h *Handler) detailPage(c *gin.Context) {
	n, ok := h.valveNumber(c)
	if !ok {
		return
	}
	v, err := h.services.Valves.Get(c.Request.Context(), n)
	if err != nil {
		h.respondServiceError(c, "page_valve_failed", err, "valve", n)
		return
	}
	c.HTML(http.StatusOK, "valve", gin.H{"Valve": v})
}

// @Summary      Create valve
// @Tags         valves
// @Accept       x-www-form-urlencoded
// @Param        valve_number  formData  int     true  "Valve number 0..255"
// @Param        name          formData  string  true  "Display name"
// @Success      303
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       / [post]
func (h *Handler) createValve(c *gin.Context) {
	var form createValveForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(form.ValveNumber))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidValveID})
		return
	}
	if _, err := h.services.Valves.Create(c.Request.Context(), n, form.Name); err != nil {
		h.respondServiceError(c, "valve_create_failed", err, "valve", n)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// @Summary      Add timetable entry
// @Tags         schedule
// @Accept       x-www-form-urlencoded
// @Param        id     path      int     true  "Valve number"
// @Param        day    formData  string  true  "Day (Mon..Sun)"
// @Param        begin  formData  string  true  "Begin (HH:MM)"
// @Param        end    formData  string  true  "End (HH:MM)"
// @Success      303
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /valves/{id}/timetable [post]
func (h *Handler) addScheduleEntry(c *gin.Context) {
	n, ok := h.valveNumber(c)
	if !ok {
		return
	}
	var form scheduleEntryForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	e, err := parseEntry(form.Day, form.Begin, form.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.services.Schedule.AddEntry(c.Request.Context(), n, e); err != nil {
		h.respondServiceError(c, "schedule_add_failed", err, "valve", n)
		return
	}
	c.Redirect(http.StatusSeeOther, "/valves/"+strconv.Itoa(n))
}

func parseEntry(day, begin, end string) (models.ScheduleEntry, error) {
	var e models.ScheduleEntry
	var err error
	if e.Day, err = models.ParseWeekday(day); err != nil {
		return e, err
	}
	if e.Begin, err = models.ParseClockTime(begin); err != nil {
		return e, err
	}
	if e.End, err = models.ParseClockTime(end); err != nil {
		return e, err
	}
	return e, nil
}

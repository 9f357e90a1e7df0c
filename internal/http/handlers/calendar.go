package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http/response"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

type CalendarHandler struct {
	calendar services.CalendarService
}

func NewCalendarHandler(calendar services.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// GET /api/calendar/upcoming?limit=
func (h *CalendarHandler) Upcoming(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondErr(c, apierr.BadRequest("limit must be an integer"))
			return
		}
		limit = n
	}
	events, err := h.calendar.Upcoming(c.Request.Context(), limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

// GET /api/calendar/events?from=&to=
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	from, err := queryTime(c, "from")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	events, err := h.calendar.ListEvents(c.Request.Context(), from, to)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

// POST /api/calendar/events
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	var in services.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondErr(c, apierr.BadRequest("invalid request body"))
		return
	}
	ev, err := h.calendar.CreateEvent(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, ev)
}

// PUT /api/calendar/events/:id
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	var in services.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondErr(c, apierr.BadRequest("invalid request body"))
		return
	}
	ev, err := h.calendar.UpdateEvent(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, ev)
}

// DELETE /api/calendar/events/:id
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	if err := h.calendar.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Event deleted"})
}

func queryTime(c *gin.Context, key string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apierr.BadRequest("%s must be an RFC3339 timestamp or YYYY-MM-DD date", key)
}

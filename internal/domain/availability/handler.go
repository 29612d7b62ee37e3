package availability

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/praxishq/praxis/internal/platform/auth"
	"github.com/praxishq/praxis/pkg/pagination"
)

// MaxLookaheadDays caps the days query parameter when no explicit limit is
// configured.
const MaxLookaheadDays = 31

type Handler struct {
	svc     *Service
	maxDays int
}

func NewHandler(svc *Service, maxLookaheadDays int) *Handler {
	if maxLookaheadDays <= 0 {
		maxLookaheadDays = MaxLookaheadDays
	}
	return &Handler{svc: svc, maxDays: maxLookaheadDays}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, staff, viewer
	readGroup := api.Group("", auth.RequireRole("admin", "staff", "viewer"))
	readGroup.GET("/doctors/:id/availability", h.GetAvailability)
	readGroup.GET("/doctors/:id/events", h.ListEvents)
	readGroup.GET("/events/:id", h.GetEvent)

	// Write endpoints – admin, staff
	writeGroup := api.Group("", auth.RequireRole("admin", "staff"))
	writeGroup.POST("/doctors/:id/events", h.CreateEvent)
	writeGroup.DELETE("/events/:id", h.DeleteEvent)
}

// GetAvailability returns the doctor's free intervals for each day of the
// lookahead window. The start query parameter (YYYY-MM-DD) defaults to today;
// days defaults to 7.
func (h *Handler) GetAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	var start time.Time
	if raw := c.QueryParam("start"); raw != "" {
		start, err = time.Parse(DayKeyFormat, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start date, expected YYYY-MM-DD")
		}
	}

	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 || days > h.maxDays {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", h.maxDays))
		}
	}

	avail, err := h.svc.FindAvailableSlots(c.Request().Context(), doctorID, start, days)
	if err != nil {
		switch {
		case errors.Is(err, ErrStartDateInPast):
			return echo.NewHTTPError(http.StatusBadRequest, ErrStartDateInPast.Error())
		case errors.Is(err, ErrNoEventsInWindow):
			return echo.NewHTTPError(http.StatusNotFound, ErrNoEventsInWindow.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute availability")
		}
	}
	return c.JSON(http.StatusOK, avail)
}

func (h *Handler) CreateEvent(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	var ev Event
	if err := c.Bind(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ev.DoctorID = doctorID
	if err := h.svc.CreateEvent(c.Request().Context(), &ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ev)
}

func (h *Handler) GetEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ev, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ev)
}

// ListEvents returns the doctor's raw calendar events, optionally bounded by
// the from and to query parameters (YYYY-MM-DD, to exclusive).
func (h *Handler) ListEvents(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	var from, to *time.Time
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(DayKeyFormat, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
		}
		from = &t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse(DayKeyFormat, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
		}
		to = &t
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListEvents(c.Request().Context(), doctorID, from, to, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteEvent(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

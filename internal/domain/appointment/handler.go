package appointment

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Chinmay31-21/Ayusatva/internal/event"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/auth"
	"github.com/Chinmay31-21/Ayusatva/pkg/pagination"
)

type Handler struct {
	svc       *Service
	publisher *event.Publisher
}

func NewHandler(svc *Service, publisher *event.Publisher) *Handler {
	return &Handler{svc: svc, publisher: publisher}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "reception"))
	read.GET("/appointments", h.List)
	read.GET("/appointments/:id", h.Get)

	write := api.Group("", auth.RequireRole("admin", "doctor", "reception"))
	write.POST("/appointments", h.Create)
	write.PATCH("/appointments/:id", h.Update)
	write.POST("/appointments/:id/complete", h.Complete)
	write.POST("/appointments/:id/cancel", h.Cancel)
	write.POST("/appointments/:id/no-show", h.NoShow)
	write.DELETE("/appointments/:id", h.Delete)
}

type createRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      *string   `json:"reason"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a := &Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
	}
	events, err := h.svc.Schedule(c.Request().Context(), a)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusCreated, map[string]interface{}{"data": a})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": a})
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{Status: c.QueryParam("status")}
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid patient_id")
		}
		f.PatientID = &id
	}
	if raw := c.QueryParam("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid doctor_id")
		}
		f.DoctorID = &id
	}
	if raw := c.QueryParam("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return apperr.Validation("invalid date, want YYYY-MM-DD")
		}
		f.Day = &day
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Reason      *string    `json:"reason"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, events, err := h.svc.Reschedule(c.Request().Context(), id, req.ScheduledAt, req.Reason)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": a})
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	a, bill, events, err := h.svc.Complete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	resp := map[string]interface{}{"data": a}
	if bill != nil {
		resp["bill"] = bill
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, StatusCancelled)
}

func (h *Handler) NoShow(c echo.Context) error {
	return h.transition(c, StatusNoShow)
}

func (h *Handler) transition(c echo.Context, status string) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	a, events, err := h.svc.Transition(c.Request().Context(), id, status)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": a})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "appointment deleted"})
}

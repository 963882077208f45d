package billing

import (
	"net/http"

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
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "reception", "billing"))
	read.GET("/bills", h.List)
	read.GET("/bills/:id", h.Get)

	write := api.Group("", auth.RequireRole("admin", "reception", "billing"))
	write.POST("/bills/:id/items", h.AddItem)
	write.POST("/bills/:id/payments", h.RecordPayment)
	write.PATCH("/bills/:id", h.UpdateCharges)
	write.POST("/bills/:id/cancel", h.Cancel)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{Status: c.QueryParam("status")}
	if raw := c.QueryParam("patient_id"); raw != "" {
		patientID, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid patient_id")
		}
		f.PatientID = &patientID
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	b, items, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": b, "items": items})
}

func (h *Handler) AddItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var in ItemInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	b, item, events, err := h.svc.AddItem(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusCreated, map[string]interface{}{"data": b, "item": item})
}

type paymentRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	b, events, err := h.svc.RecordPayment(c.Request().Context(), id, req.Amount, req.Method)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": b})
}

type chargesRequest struct {
	Tax      *float64 `json:"tax"`
	Discount *float64 `json:"discount"`
}

func (h *Handler) UpdateCharges(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req chargesRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	b, events, err := h.svc.UpdateCharges(c.Request().Context(), id, req.Tax, req.Discount)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": b})
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	b, events, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": b})
}

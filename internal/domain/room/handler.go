package room

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Chinmay31-21/Ayusatva/internal/event"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/auth"
	"github.com/Chinmay31-21/Ayusatva/pkg/pagination"
)

// OccupantLister loads the patients currently admitted to a room, used for
// the ?include=occupants read. Implemented by the patient repository.
type OccupantLister interface {
	ListByRoom(ctx context.Context, roomID uuid.UUID) (interface{}, error)
}

type Handler struct {
	svc       *Service
	publisher *event.Publisher
	occupants OccupantLister
}

func NewHandler(svc *Service, publisher *event.Publisher, occupants OccupantLister) *Handler {
	return &Handler{svc: svc, publisher: publisher, occupants: occupants}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "reception"))
	read.GET("/rooms", h.List)
	read.GET("/rooms/:id", h.Get)

	write := api.Group("", auth.RequireRole("admin", "reception"))
	write.POST("/rooms", h.Create)
	write.PATCH("/rooms/:id", h.Update)
	write.DELETE("/rooms/:id", h.Delete)
}

type createRequest struct {
	RoomNo        string  `json:"room_no"`
	RoomType      string  `json:"room_type"`
	PricePerDay   float64 `json:"price_per_day"`
	BedCountTotal int     `json:"bed_count_total"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	rm := &Room{
		RoomNo:        req.RoomNo,
		RoomType:      req.RoomType,
		PricePerDay:   req.PricePerDay,
		BedCountTotal: req.BedCountTotal,
	}
	events, err := h.svc.Create(c.Request().Context(), rm)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusCreated, map[string]interface{}{"data": rm})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	rm, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	resp := map[string]interface{}{"data": rm}
	if includes(c.QueryParam("include"), "occupants") && h.occupants != nil {
		occ, err := h.occupants.ListByRoom(c.Request().Context(), id)
		if err != nil {
			return err
		}
		resp["occupants"] = occ
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{
		Status:        c.QueryParam("status"),
		RoomType:      c.QueryParam("type"),
		AvailableOnly: c.QueryParam("available") == "true",
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return apperr.Validation("invalid request body")
	}
	rm, events, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": rm})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	events, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusOK, map[string]string{"message": "room deleted"})
}

func includes(raw, want string) bool {
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == want {
			return true
		}
	}
	return false
}

package patient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Chinmay31-21/Ayusatva/internal/event"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/auth"
	"github.com/Chinmay31-21/Ayusatva/pkg/pagination"
)

// RelatedLoader resolves ?include= expansions that live in other domains.
// Any nil loader simply drops the expansion.
type RelatedLoader interface {
	BillsByPatient(ctx context.Context, patientID uuid.UUID) (interface{}, error)
	PrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) (interface{}, error)
	LabReportsByPatient(ctx context.Context, patientID uuid.UUID) (interface{}, error)
}

type Handler struct {
	svc       *Service
	ledger    Ledger
	publisher *event.Publisher
	related   RelatedLoader
}

func NewHandler(svc *Service, ledger Ledger, publisher *event.Publisher, related RelatedLoader) *Handler {
	return &Handler{svc: svc, ledger: ledger, publisher: publisher, related: related}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "reception"))
	read.GET("/patients", h.List)
	read.GET("/patients/:id", h.Get)

	write := api.Group("", auth.RequireRole("admin", "reception"))
	write.POST("/patients", h.Create)
	write.PATCH("/patients/:id", h.Update)
	write.POST("/patients/:id/discharge", h.Discharge)
	write.POST("/patients/:id/reassign", h.Reassign)
	write.DELETE("/patients/:id", h.Delete)
}

type createRequest struct {
	FirstName       string     `json:"first_name"`
	MiddleName      *string    `json:"middle_name"`
	LastName        *string    `json:"last_name"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	Age             *int       `json:"age"`
	Gender          string     `json:"gender"`
	BloodGroup      *string    `json:"blood_group"`
	Height          *float64   `json:"height"`
	Weight          *float64   `json:"weight"`
	BMI             *float64   `json:"bmi"`
	PhoneNo         string     `json:"phone_no"`
	EmailID         *string    `json:"email_id"`
	Address         *string    `json:"address"`
	Disease         *string    `json:"disease"`
	Category        string     `json:"category"`
	RoomID          *uuid.UUID `json:"room_id"`
	DepositedAmount float64    `json:"deposited_amount"`
	AdmittedAt      *time.Time `json:"date_of_admission"`
}

// Create registers a patient. When the category is InPatient the request is
// routed through the occupancy ledger so the registration and the room
// allocation commit together.
func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	p := &Patient{
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		DateOfBirth:     req.DateOfBirth,
		Age:             req.Age,
		Gender:          req.Gender,
		BloodGroup:      req.BloodGroup,
		Height:          req.Height,
		Weight:          req.Weight,
		BMI:             req.BMI,
		PhoneNo:         req.PhoneNo,
		EmailID:         req.EmailID,
		Address:         req.Address,
		Disease:         req.Disease,
		Category:        req.Category,
		DepositedAmount: req.DepositedAmount,
	}

	ctx := c.Request().Context()
	if req.Category == CategoryInPatient {
		if req.RoomID == nil {
			return apperr.Validation("room_id is required for in-patient admission")
		}
		admittedAt := time.Now().UTC()
		if req.AdmittedAt != nil {
			admittedAt = *req.AdmittedAt
		}
		res, err := h.ledger.Allocate(ctx, p, *req.RoomID, admittedAt)
		if err != nil {
			return err
		}
		h.publisher.PublishAll(ctx, res.Events)
		return c.JSON(http.StatusCreated, map[string]interface{}{
			"data": res.Patient,
			"room": res.Room,
		})
	}

	events, err := h.svc.Register(ctx, p)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(ctx, events)
	return c.JSON(http.StatusCreated, map[string]interface{}{"data": p})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Get(ctx, id)
	if err != nil {
		return err
	}

	resp := map[string]interface{}{"data": p}
	raw := c.QueryParam("include")
	if includes(raw, "admission") {
		resp["admission"] = p.AdmissionView()
	}
	if h.related != nil {
		if includes(raw, "bills") {
			bills, err := h.related.BillsByPatient(ctx, id)
			if err != nil {
				return err
			}
			resp["bills"] = bills
		}
		if includes(raw, "prescriptions") {
			rx, err := h.related.PrescriptionsByPatient(ctx, id)
			if err != nil {
				return err
			}
			resp["prescriptions"] = rx
		}
		if includes(raw, "lab_reports") {
			reports, err := h.related.LabReportsByPatient(ctx, id)
			if err != nil {
				return err
			}
			resp["lab_reports"] = reports
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
	}
	if raw := c.QueryParam("room_id"); raw != "" {
		roomID, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid room_id")
		}
		f.RoomID = &roomID
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
	p, events, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(c.Request().Context(), events)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": p})
}

type dischargeRequest struct {
	DischargedAt *time.Time `json:"date_of_discharge"`
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req dischargeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	dischargedAt := time.Now().UTC()
	if req.DischargedAt != nil {
		dischargedAt = *req.DischargedAt
	}

	ctx := c.Request().Context()
	res, err := h.ledger.Discharge(ctx, id, dischargedAt)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(ctx, res.Events)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":         res.Patient,
		"days_stayed":  res.DaysStayed,
		"room_charges": res.RoomCharges,
		"bill_no":      res.BillNo,
	})
}

type reassignRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

func (h *Handler) Reassign(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req reassignRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.RoomID == uuid.Nil {
		return apperr.Validation("room_id is required")
	}

	ctx := c.Request().Context()
	res, err := h.ledger.Reassign(ctx, id, req.RoomID)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(ctx, res.Events)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":     res.Patient,
		"old_room": res.OldRoom,
		"new_room": res.NewRoom,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	ctx := c.Request().Context()
	events, err := h.ledger.DeletePatient(ctx, id)
	if err != nil {
		return err
	}
	h.publisher.PublishAll(ctx, events)
	return c.JSON(http.StatusOK, map[string]string{"message": "patient deleted"})
}

func includes(raw, want string) bool {
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == want {
			return true
		}
	}
	return false
}

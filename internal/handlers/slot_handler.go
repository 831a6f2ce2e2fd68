package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/httperr"
	"github.com/BruksfildServices01/slot-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/slot-scheduler/internal/middleware"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
	ucAppointment "github.com/BruksfildServices01/slot-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type SlotHandler struct {
	listFree     *ucAppointment.ListFreeSlots
	listProvider *ucAppointment.ListProviderSlots
	create       *ucAppointment.CreateSlots
}

func NewSlotHandler(
	listFree *ucAppointment.ListFreeSlots,
	listProvider *ucAppointment.ListProviderSlots,
	create *ucAppointment.CreateSlots,
) *SlotHandler {
	return &SlotHandler{
		listFree:     listFree,
		listProvider: listProvider,
		create:       create,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateSlotsRequest struct {
	Start           time.Time `json:"start" binding:"required"`
	End             time.Time `json:"end" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1"`
}

// ======================================================
// HELPERS
// ======================================================

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ======================================================
// LIST FREE
// ======================================================

func (h *SlotHandler) ListFree(c *gin.Context) {
	var filter domain.SlotFilter

	if raw := c.Query("provider_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_provider_id", "Profissional inválido.")
			return
		}
		providerID := uint(id)
		filter.ProviderID = &providerID
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_from", "Data inicial inválida.")
			return
		}
		filter.From = from
	}

	slots, err := h.listFree.Execute(c.Request.Context(), filter)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, slots)
}

// ======================================================
// LIST BY PROVIDER
// ======================================================

func (h *SlotHandler) ListByProvider(c *gin.Context) {
	providerID, ok := parseID(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_provider_id", "Profissional inválido.")
		return
	}

	slots, err := h.listProvider.Execute(c.Request.Context(), providerID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, slots)
}

// ======================================================
// CREATE
// ======================================================

func (h *SlotHandler) Create(c *gin.Context) {
	providerID, ok := parseID(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_provider_id", "Profissional inválido.")
		return
	}

	// provider só cria slots na própria agenda
	if own, exists := c.Get(middleware.ContextProviderID); exists && own.(uint) != providerID {
		httperr.Forbidden(c, "forbidden", "Acesso negado.")
		return
	}

	var req CreateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	slots, err := h.create.Execute(c.Request.Context(), ucAppointment.CreateSlotsInput{
		ProviderID: providerID,
		Start:      req.Start,
		End:        req.End,
		Duration:   time.Duration(req.DurationMinutes) * time.Minute,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Created(c, httpresp.ListResponse[models.Slot]{
		Data:  slots,
		Total: len(slots),
	})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/slot-scheduler/internal/httperr"
	"github.com/BruksfildServices01/slot-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/slot-scheduler/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/slot-scheduler/internal/usecase/appointment"
)

type ReservationHandler struct {
	reserve *ucAppointment.ReserveSlot
	cancel  *ucAppointment.CancelReservation
	quota   *ucAppointment.CheckQuota
}

func NewReservationHandler(
	reserve *ucAppointment.ReserveSlot,
	cancel *ucAppointment.CancelReservation,
	quota *ucAppointment.CheckQuota,
) *ReservationHandler {
	return &ReservationHandler{
		reserve: reserve,
		cancel:  cancel,
		quota:   quota,
	}
}

type ReserveRequest struct {
	SlotID uint `json:"slot_id" binding:"required"`
}

func (h *ReservationHandler) Reserve(c *gin.Context) {
	subscriberID := c.GetString(middleware.ContextSubscriberID)

	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	ap, err := h.reserve.Execute(c.Request.Context(), subscriberID, req.SlotID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Created(c, ap)
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	subscriberID := c.GetString(middleware.ContextSubscriberID)

	appointmentID, ok := parseID(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "ID inválido.")
		return
	}

	if err := h.cancel.Execute(c.Request.Context(), subscriberID, appointmentID); err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.NoContent(c)
}

func (h *ReservationHandler) Quota(c *gin.Context) {
	subscriberID := c.GetString(middleware.ContextSubscriberID)

	decision, err := h.quota.Execute(c.Request.Context(), subscriberID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, decision)
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/dealer-management-api/shared/middleware"
	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/policy"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// CreateAppointmentRequest represents the create appointment request
type CreateAppointmentRequest struct {
	DealerID        *uint     `json:"dealerId"`
	CustomerName    string    `json:"customerName"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Type            string    `json:"type"`
	Notes           string    `json:"notes"`
}

// handleGetAppointments lists the appointments visible to the caller
func handleGetAppointments(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)
		scope := policy.ReadScope(principal)

		var (
			appointments []models.Appointment
			err          error
		)
		switch {
		case scope.All:
			appointments, err = a.store.Appointments.ListAll(c.Request.Context())
		case scope.Empty():
			appointments = []models.Appointment{}
		default:
			appointments, err = a.store.Appointments.ListByDealer(c.Request.Context(), *scope.DealerID)
		}
		if err != nil {
			utils.HandleError(c, utils.Internal("Failed to fetch appointments.", err))
			return
		}
		if appointments == nil {
			appointments = []models.Appointment{}
		}

		utils.ListResponse(c, appointments, len(appointments))
	}
}

// handleCreateAppointment books an appointment for the caller's dealer
func handleCreateAppointment(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)

		var req CreateAppointmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		dealerID, err := policy.WriteDealerID(principal, req.DealerID)
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		if strings.TrimSpace(req.CustomerName) == "" || req.AppointmentDate.IsZero() {
			utils.BadRequestResponse(c, "Dealer ID, Customer Name, and Appointment Date are required.")
			return
		}
		apptType, ok := models.ParseAppointmentType(req.Type)
		if !ok {
			utils.BadRequestResponse(c, "Invalid appointment type.")
			return
		}

		appointment := &models.Appointment{
			DealerID:        dealerID,
			CustomerName:    strings.TrimSpace(req.CustomerName),
			AppointmentDate: req.AppointmentDate.UTC(),
			Type:            apptType,
			Status:          models.AppointmentStatusScheduled,
			Notes:           req.Notes,
		}
		if err := a.store.Appointments.Create(c.Request.Context(), appointment); err != nil {
			utils.HandleError(c, utils.Internal("Failed to create appointment.", err))
			return
		}

		utils.CreatedResponse(c, "Appointment created successfully.", appointment)
	}
}

// handleUpdateAppointmentStatus changes the status of an appointment owned by the caller
func handleUpdateAppointmentStatus(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)
		id, ok := parseID(c)
		if !ok {
			return
		}

		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
			utils.BadRequestResponse(c, "New status is required.")
			return
		}
		status, ok := models.ParseAppointmentStatus(req.Status)
		if !ok {
			utils.BadRequestResponse(c, "Invalid appointment status.")
			return
		}

		appointment, err := a.store.Appointments.FindByID(c.Request.Context(), id)
		if err != nil {
			utils.HandleError(c, lookupError("Appointment", err))
			return
		}
		if err := policy.AuthorizeMutation(principal, appointment.TenantID()); err != nil {
			utils.HandleError(c, err)
			return
		}

		if err := a.store.Appointments.UpdateStatus(c.Request.Context(), id, status); err != nil {
			utils.HandleError(c, lookupError("Appointment", err))
			return
		}

		utils.OKResponse(c, fmt.Sprintf("Appointment status updated to '%s'.", status), nil)
	}
}

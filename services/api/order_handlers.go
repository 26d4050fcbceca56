package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/dealer-management-api/shared/middleware"
	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/policy"
	"github.com/pavitra93/dealer-management-api/shared/repository"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// CreateOrderRequest represents the create order request. DealerID is only
// honoured for producer admins.
type CreateOrderRequest struct {
	DealerID      *uint                `json:"dealerId"`
	CustomerName  string               `json:"customerName"`
	Configuration models.Configuration `json:"configuration"`
}

// UpdateStatusRequest is shared by orders and appointments
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, "Invalid id")
		return 0, false
	}
	return uint(id), true
}

// handleGetOrders lists the orders visible to the caller
func handleGetOrders(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)
		scope := policy.ReadScope(principal)

		var (
			orders []models.Order
			err    error
		)
		switch {
		case scope.All:
			orders, err = a.store.Orders.ListAll(c.Request.Context())
		case scope.Empty():
			orders = []models.Order{}
		default:
			orders, err = a.store.Orders.ListByDealer(c.Request.Context(), *scope.DealerID)
		}
		if err != nil {
			utils.HandleError(c, utils.Internal("Orders could not be retrieved.", err))
			return
		}
		if orders == nil {
			orders = []models.Order{}
		}

		utils.ListResponse(c, orders, len(orders))
	}
}

// handleCreateOrder stamps the order with the caller's dealer
func handleCreateOrder(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)

		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		dealerID, err := policy.WriteDealerID(principal, req.DealerID)
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		if strings.TrimSpace(req.CustomerName) == "" || len(req.Configuration) == 0 {
			utils.BadRequestResponse(c, "Missing required fields.")
			return
		}

		order := &models.Order{
			DealerID:      dealerID,
			CustomerName:  strings.TrimSpace(req.CustomerName),
			Configuration: req.Configuration,
			Status:        models.OrderStatusPending,
		}
		if err := a.store.Orders.Create(c.Request.Context(), order); err != nil {
			utils.HandleError(c, utils.Internal("Order could not be created.", err))
			return
		}

		utils.CreatedResponse(c, "Order saved successfully.", order)
	}
}

// handleUpdateOrderStatus changes the status of an order owned by the caller
func handleUpdateOrderStatus(a *app) gin.HandlerFunc {
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
		status, ok := models.ParseOrderStatus(req.Status)
		if !ok {
			utils.BadRequestResponse(c, "Invalid order status.")
			return
		}

		order, err := a.store.Orders.FindByID(c.Request.Context(), id)
		if err != nil {
			utils.HandleError(c, lookupError("Order", err))
			return
		}
		if err := policy.AuthorizeMutation(principal, order.TenantID()); err != nil {
			utils.HandleError(c, err)
			return
		}

		if err := a.store.Orders.UpdateStatus(c.Request.Context(), id, status); err != nil {
			utils.HandleError(c, lookupError("Order", err))
			return
		}

		utils.OKResponse(c, fmt.Sprintf("Order status updated successfully as %s.", status), nil)
	}
}

func lookupError(entity string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NotFound(entity + " not found.")
	}
	return utils.Internal(entity+" could not be loaded.", err)
}

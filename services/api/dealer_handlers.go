package main

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pavitra93/dealer-management-api/shared/middleware"
	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/policy"
	"github.com/pavitra93/dealer-management-api/shared/repository"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

const defaultQuotaLimit = 10

// CreateDealerRequest represents the create dealer request
type CreateDealerRequest struct {
	Name       string `json:"name"`
	QuotaLimit int    `json:"quotaLimit"`
}

// handleGetDealers lists all dealers for producer admins and the own dealer
// for everyone else
func handleGetDealers(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)
		scope := policy.ReadScope(principal)

		dealers := []models.Dealer{}
		switch {
		case scope.All:
			all, err := a.store.Dealers.List(c.Request.Context())
			if err != nil {
				utils.HandleError(c, utils.Internal("Dealers could not be retrieved.", err))
				return
			}
			dealers = append(dealers, all...)
		case !scope.Empty():
			dealer, err := a.store.Dealers.FindByID(c.Request.Context(), *scope.DealerID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				utils.HandleError(c, utils.Internal("Dealers could not be retrieved.", err))
				return
			}
			if dealer != nil {
				dealers = append(dealers, *dealer)
			}
		}

		utils.ListResponse(c, dealers, len(dealers))
	}
}

// handleGetDealer returns one dealer the caller may access
func handleGetDealer(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := policy.AuthorizeDealerRead(principal, id); err != nil {
			utils.HandleError(c, err)
			return
		}

		dealer, err := a.store.Dealers.FindByID(c.Request.Context(), id)
		if err != nil {
			utils.HandleError(c, lookupError("Dealer", err))
			return
		}
		utils.OKResponse(c, "Dealer retrieved successfully", dealer)
	}
}

// handleCreateDealer registers a dealer with a fresh tracking link (producer admin only)
func handleCreateDealer(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateDealerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			utils.BadRequestResponse(c, "Dealer name is required.")
			return
		}
		quota := req.QuotaLimit
		if quota <= 0 {
			quota = defaultQuotaLimit
		}

		dealer := &models.Dealer{
			Name:       name,
			LinkHash:   uuid.NewString(),
			IsActive:   true,
			QuotaLimit: quota,
		}
		if err := a.store.Dealers.Create(c.Request.Context(), dealer); err != nil {
			utils.HandleError(c, utils.Internal("Dealer could not be created.", err))
			return
		}

		a.log.WithField("dealer_id", dealer.ID).Info("Dealer created")
		utils.CreatedResponse(c, "Dealer created successfully.", dealer)
	}
}

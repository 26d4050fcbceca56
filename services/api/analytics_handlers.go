package main

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/dealer-management-api/shared/middleware"
	"github.com/pavitra93/dealer-management-api/shared/policy"
	"github.com/pavitra93/dealer-management-api/shared/repository"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// handleTrackLink records a visit on a dealer link and redirects to the configurator
func handleTrackLink(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		linkHash := c.Param("linkHash")

		dealer, err := a.store.Dealers.FindByLinkHash(c.Request.Context(), linkHash)
		if errors.Is(err, repository.ErrNotFound) {
			utils.HandleError(c, utils.NotFound("Invalid link."))
			return
		}
		if err != nil {
			utils.HandleError(c, utils.Internal("Failed to resolve link.", err))
			return
		}

		a.recorder.RecordVisit(c.Request.Context(), dealer, c.ClientIP(), c.Request.UserAgent())

		c.Header("Cache-Control", "private, no-cache, no-store, must-revalidate")
		c.Header("Expires", "-1")
		c.Header("Pragma", "no-cache")
		c.Redirect(http.StatusFound, configuratorURL(a.cfg.ConfiguratorURL, dealer.ID))
	}
}

func configuratorURL(base string, dealerID uint) string {
	id := strconv.FormatUint(uint64(dealerID), 10)
	u, err := url.Parse(base)
	if err != nil {
		return base + "?dealerId=" + id
	}
	q := u.Query()
	q.Set("dealerId", id)
	u.RawQuery = q.Encode()
	return u.String()
}

// handleGetDealerStats returns the visit statistics of one dealer
func handleGetDealerStats(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)

		id, err := strconv.ParseUint(c.Param("tenantId"), 10, 64)
		if err != nil || id == 0 {
			utils.BadRequestResponse(c, "Invalid dealer id")
			return
		}
		dealerID := uint(id)

		if err := policy.AuthorizeDealerRead(principal, dealerID); err != nil {
			utils.HandleError(c, err)
			return
		}

		stats, err := a.recorder.Stats(c.Request.Context(), dealerID)
		if err != nil {
			utils.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"dealerId":    stats.DealerID,
			"totalVisits": stats.TotalVisits,
			"lastVisit":   stats.LastVisit,
			"data":        stats.Visits,
		})
	}
}

package handler

import (
	"invest-backoffice/internal/adapter/http/dto"
	"invest-backoffice/internal/core/ports"
	"invest-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

// DashboardHandler handles the admin dashboard endpoint.
type DashboardHandler struct {
	reportingSvc ports.ReportingService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(reportingSvc ports.ReportingService) *DashboardHandler {
	return &DashboardHandler{reportingSvc: reportingSvc}
}

// GetStats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.reportingSvc.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.DashboardStatsResponse{
		Total:         stats.Total,
		Pending:       stats.Pending,
		Confirmed:     stats.Confirmed,
		Scheduled:     stats.Scheduled,
		Rejected:      stats.Rejected,
		Paid:          stats.Paid,
		TotalPaidOut:  stats.TotalPaidOut,
		TotalRefunded: stats.TotalRefunded,
	})
}

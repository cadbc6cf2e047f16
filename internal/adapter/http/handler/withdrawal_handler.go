package handler

import (
	"math"
	"strconv"

	"invest-backoffice/internal/adapter/http/dto"
	"invest-backoffice/internal/adapter/http/middleware"
	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"
	"invest-backoffice/pkg/apperror"
	"invest-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WithdrawalHandler handles withdrawal request endpoints.
type WithdrawalHandler struct {
	withdrawalSvc ports.WithdrawalService
	reportingSvc  ports.ReportingService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalSvc ports.WithdrawalService, reportingSvc ports.ReportingService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc, reportingSvc: reportingSvc}
}

// Create handles POST /api/v1/withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a valid UUID"))
		return
	}

	w, err := h.withdrawalSvc.RequestWithdrawal(c.Request.Context(), ports.CreateWithdrawalRequest{
		UserID:   userID,
		Amount:   req.Amount,
		BankInfo: req.BankInfo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWithdrawalResponse(w))
}

// Transition handles POST /api/v1/withdrawals/:id/transition.
func (h *WithdrawalHandler) Transition(c *gin.Context) {
	operatorID, ok := c.Get(middleware.CtxOperatorID)
	if !ok {
		response.Error(c, apperror.ErrOperatorRequired())
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a valid UUID"))
		return
	}

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	target, err := domain.ParseStatus(req.TargetStatus)
	if err != nil {
		response.Error(c, apperror.ErrInvalidTargetStatus(req.TargetStatus))
		return
	}

	result, err := h.withdrawalSvc.Transition(c.Request.Context(), ports.TransitionRequest{
		RequestID:  requestID,
		Target:     target,
		OperatorID: operatorID.(uuid.UUID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TransitionResponse{
		Request:      toWithdrawalResponse(result.Request),
		AutoRejected: result.AutoRejected,
		Reason:       result.Reason,
	})
}

// List handles GET /api/v1/withdrawals.
func (h *WithdrawalHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.WithdrawalListParams{
		SortBy:   c.DefaultQuery("sort_by", "requested_at"),
		SortAsc:  c.Query("order") == "asc",
		Page:     page,
		PageSize: pageSize,
	}

	if s := c.Query("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			response.Error(c, apperror.Validation("unknown status filter"))
			return
		}
		params.Status = &status
	}
	if u := c.Query("user_id"); u != "" {
		userID, err := uuid.Parse(u)
		if err != nil {
			response.Error(c, apperror.Validation("user_id must be a valid UUID"))
			return
		}
		params.UserID = &userID
	}

	withdrawals, total, err := h.reportingSvc.ListWithdrawals(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WithdrawalResponse, 0, len(withdrawals))
	for i := range withdrawals {
		items = append(items, toWithdrawalResponse(&withdrawals[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.WithdrawalListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// toWithdrawalResponse converts domain.WithdrawalRequest to DTO.
func toWithdrawalResponse(w *domain.WithdrawalRequest) dto.WithdrawalResponse {
	resp := dto.WithdrawalResponse{
		ID:          w.ID.String(),
		UserID:      w.UserID.String(),
		Amount:      w.Amount,
		Status:      string(w.Status),
		RequestedAt: w.RequestedAt.Format("2006-01-02T15:04:05Z07:00"),
		BankInfo:    w.BankInfo,
		Refunded:    w.Refunded,
	}
	if w.ProcessedAt != nil {
		s := w.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ProcessedAt = &s
	}
	if w.OperatorID != nil {
		s := w.OperatorID.String()
		resp.OperatorID = &s
	}
	return resp
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anyulbade/annotation-payouts/internal/dto"
	"github.com/anyulbade/annotation-payouts/internal/middleware"
	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/service"
)

type PaymentCreator interface {
	CreatePaymentIntent(ctx context.Context, caller *model.User, in service.CreatePaymentIntentInput) (*service.PaymentIntentResult, error)
}

type PaymentLister interface {
	GetMyPayments(ctx context.Context, user *model.User, status string, limit, offset int) (*service.PaymentsPage, error)
}

type PaymentHandler struct {
	payments PaymentCreator
	queries  PaymentLister
}

func NewPaymentHandler(payments PaymentCreator, queries PaymentLister) *PaymentHandler {
	return &PaymentHandler{payments: payments, queries: queries}
}

func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req dto.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	result, err := h.payments.CreatePaymentIntent(c.Request.Context(), middleware.CurrentUser(c), service.CreatePaymentIntentInput{
		PayeeID:       req.PayeeID,
		ProjectID:     req.ProjectID,
		Amount:        req.Amount,
		Description:   req.Description,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewPaymentIntentResponse(result))
}

func (h *PaymentHandler) List(c *gin.Context) {
	params := dto.ParsePagination(c)

	page, err := h.queries.GetMyPayments(c.Request.Context(), middleware.CurrentUser(c), c.Query("status"), params.PageSize, params.Offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	data := make([]dto.PaymentResponse, len(page.Payments))
	for i, p := range page.Payments {
		data[i] = dto.NewPaymentResponse(p)
	}

	c.JSON(http.StatusOK, dto.PaymentListResponse{
		Data:       data,
		Pagination: dto.NewPagination(params.Page, page.Limit, page.Total),
	})
}

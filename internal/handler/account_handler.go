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

type AccountOnboarder interface {
	Onboard(ctx context.Context, user *model.User, country, refreshURL, returnURL string) (*service.OnboardResult, error)
	GetConnectAccountStatus(ctx context.Context, user *model.User) (*service.AccountStatusResult, error)
}

type AccountHandler struct {
	svc AccountOnboarder
}

func NewAccountHandler(svc AccountOnboarder) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) Onboard(c *gin.Context) {
	var req dto.OnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	res, err := h.svc.Onboard(c.Request.Context(), middleware.CurrentUser(c), req.Country, req.RefreshURL, req.ReturnURL)
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.OnboardResponse{
		AccountID:     res.AccountID,
		Country:       res.Country,
		Status:        string(res.Status),
		OnboardingURL: res.OnboardingURL,
		ExpiresAt:     res.ExpiresAt,
		Created:       res.Created,
	})
}

func (h *AccountHandler) Status(c *gin.Context) {
	res, err := h.svc.GetConnectAccountStatus(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.AccountStatusResponse{
		Status:              string(res.Status),
		AccountID:           res.AccountID,
		Country:             res.Country,
		ChargesEnabled:      res.ChargesEnabled,
		PayoutsEnabled:      res.PayoutsEnabled,
		DetailsSubmitted:    res.DetailsSubmitted,
		CurrentlyDue:        res.CurrentlyDue,
		DisabledReason:      res.DisabledReason,
		SupportedCurrencies: res.SupportedCurrencies,
	})
}

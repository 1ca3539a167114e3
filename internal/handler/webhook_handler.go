package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anyulbade/annotation-payouts/internal/dto"
	"github.com/anyulbade/annotation-payouts/internal/service"
)

// MaxWebhookBodyBytes caps the size of a processor webhook payload.
const MaxWebhookBodyBytes = 1 << 16

type WebhookIngester interface {
	Ingest(ctx context.Context, payload []byte, headers http.Header) (*service.IngestResult, error)
}

type WebhookHandler struct {
	svc WebhookIngester
}

func NewWebhookHandler(svc WebhookIngester) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorListResponse{Error: "webhook payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{Error: "could not read webhook payload"})
		return
	}

	result, err := h.svc.Ingest(c.Request.Context(), payload, c.Request.Header)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := dto.WebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		Duplicate: result.Duplicate,
		Ignored:   result.Ignored,
	}
	if result.Settlement != nil {
		resp.Status = string(result.Settlement.Status)
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anyulbade/annotation-payouts/internal/dto"
	"github.com/anyulbade/annotation-payouts/internal/service"
)

type CountriesProvider interface {
	GetSupportedCountriesInfo() *service.CountriesInfo
}

type CountriesHandler struct {
	svc CountriesProvider
}

func NewCountriesHandler(svc CountriesProvider) *CountriesHandler {
	return &CountriesHandler{svc: svc}
}

func (h *CountriesHandler) List(c *gin.Context) {
	info := h.svc.GetSupportedCountriesInfo()
	c.JSON(http.StatusOK, dto.CountriesResponse{
		PlatformCountry: info.PlatformCountry,
		PlatformMethods: info.PlatformMethods,
		Countries:       info.Countries,
	})
}

package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anyulbade/annotation-payouts/internal/service"
)

type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// ParsePagination reads page and page_size from the query string. Invalid
// values fall back to the first page of service.DefaultPageLimit items.
func ParsePagination(c *gin.Context) PaginationParams {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", service.DefaultPageLimit)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = service.DefaultPageLimit
	}
	if pageSize > service.MaxPageLimit {
		pageSize = service.MaxPageLimit
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func NewPagination(page, pageSize, totalItems int) Pagination {
	totalPages := 0
	if totalItems > 0 && pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}

	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/checkmoa/auth-service/internal/audit"
)

type AuditHTTP struct {
	Indexer *audit.Indexer
}

// SearchAccessLogs serves the admin audit trail search over Elasticsearch.
func (h *AuditHTTP) SearchAccessLogs(c echo.Context) error {
	if h.Indexer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit search is not configured")
	}

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	from, _ := strconv.Atoi(c.QueryParam("from"))
	size, err := strconv.Atoi(c.QueryParam("size"))
	if err != nil || size <= 0 || size > 100 {
		size = 20
	}

	total, logs, serr := h.Indexer.Search(c.Request().Context(), query, from, size)
	if serr != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "audit search failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"items": logs,
	})
}

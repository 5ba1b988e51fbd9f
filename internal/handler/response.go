package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// 遷移エラーは from/to も返す（クライアントエラー扱い）
type InvalidTransitionResponse struct {
	Error string `json:"error"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type InsufficientStockResponse struct {
	Error         string `json:"error"`
	SizeVariantID int64  `json:"size_variant_id"`
	Requested     int64  `json:"requested"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}
	if ite, ok := usecase.AsInvalidTransition(err); ok {
		return c.JSON(http.StatusConflict, InvalidTransitionResponse{
			Error: "invalid transition",
			From:  string(ite.From),
			To:    string(ite.To),
		})
	}
	if ise, ok := usecase.AsInsufficientStock(err); ok {
		return c.JSON(http.StatusConflict, InsufficientStockResponse{
			Error:         "out of stock",
			SizeVariantID: ise.SizeVariantID,
			Requested:     ise.Requested,
		})
	}
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, usecase.ErrTransactionConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict, retry"})
	case errors.Is(err, model.ErrInvalidTotals):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid totals"})
	}

	//500
	slog.ErrorContext(c.Request().Context(), "unhandled error", "err", err, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// page/limitのクエリ（無ければデフォルト）
func parsePaging(c echo.Context, defLimit int) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("invalid page")
		}
		page = p
	}

	limit := defLimit
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("invalid limit")
		}
		limit = l
	}
	return page, limit, nil
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/domain"
	"storefront/internal/domain/pricing"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse は { message: string } の形。
type SuccessResponse struct {
	Message string `json:"message"`
}

// 404（どの商品か分かるようにIDを返す）
type ProductNotFoundResponse struct {
	Error     string `json:"error"`
	ProductID int64  `json:"product_id"`
}

// 422（在庫不足）
type InsufficientStockResponse struct {
	Error     string `json:"error"`
	ProductID int64  `json:"product_id"`
	Available int64  `json:"available"`
	Requested int64  `json:"requested"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var (
		pnf *domain.ProductNotFoundError
		ise *domain.InsufficientStockError
		ili *pricing.InvalidLineItemError
		ist *domain.InvalidStatusTransitionError
	)
	switch {
	case errors.As(err, &pnf):
		return c.JSON(http.StatusNotFound, ProductNotFoundResponse{
			Error:     pnf.Error(),
			ProductID: pnf.ProductID,
		})
	case errors.As(err, &ise):
		return c.JSON(http.StatusUnprocessableEntity, InsufficientStockResponse{
			Error:     "Not enough stock for product",
			ProductID: ise.ProductID,
			Available: ise.Available,
			Requested: ise.Requested,
		})
	case errors.As(err, &ili):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: ili.Error()})
	case errors.Is(err, domain.ErrEmptyOrder):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Order not found"})
	case errors.As(err, &ist):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: ist.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500（中身はログにだけ出す）
	slog.ErrorContext(c.Request().Context(), "request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"err", err,
	)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// page/limitのクエリ（未指定はデフォルト）
func parsePaging(c echo.Context, defLimit int) (page int, limit int, msg string) {
	page = 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, "invalid page"
		}
		page = p
	}

	limit = defLimit
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, "invalid limit"
		}
		limit = l
	}
	return page, limit, ""
}

package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Order        *handler.OrderHandler
	AdminProduct *handler.AdminProductHandler
	AdminUser    *handler.AdminUserHandler
	AdminAudit   *handler.AdminAuditHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, tokens middleware.TokenVersionSource, h Handlers) {
	//公開
	h.Product.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e, cfg, tokens)

	//購入者
	h.Order.RegisterRoutes(e, cfg, tokens)

	//管理者
	h.AdminProduct.RegisterRoutes(e, cfg, tokens)
	h.AdminUser.RegisterRoutes(e, cfg, tokens)
	h.AdminAudit.RegisterRoutes(e, cfg, tokens)
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	appmw "fortexx_ledger/internal/middleware"
	"fortexx_ledger/internal/services"
)

// Dependencies carries what the route handlers need.
type Dependencies struct {
	DB         *gorm.DB
	Authorizer *services.KeyAuthorizer
	Payments   *services.PaymentStore
	Gateway    *services.SMSGateway
	Informant  *services.InformantService
	Catalog    *services.CatalogService
}

// RegisterRoutes mounts every route on e. Each protected route carries its
// access key as the :key path parameter.
func RegisterRoutes(e *echo.Echo, d Dependencies) {
	limited := appmw.RequireKey(d.Authorizer, services.AccessLimited)
	full := appmw.RequireKey(d.Authorizer, services.AccessFull)
	superUser := appmw.RequireKey(d.Authorizer, services.AccessSuperUser)

	e.GET("/health", healthCheck(d.DB))

	paymentHandler := NewPaymentHandler(d.Payments, d.Gateway, d.Informant)
	payments := e.Group("/payment/:key")
	payments.GET("", paymentHandler.LastPayments, full)
	payments.GET("/show/:show_num/page/:page", paymentHandler.PaymentsPage, full)
	payments.GET("/id/:id", paymentHandler.PaymentByID, full)
	payments.GET("/name/:name", paymentHandler.PaymentsByUser, full)
	payments.GET("/sms", paymentHandler.Gateway, full)
	payments.POST("/sms", paymentHandler.Gateway, full)
	payments.POST("/informant", paymentHandler.Informant, full)
	payments.PUT("/activate/:id", paymentHandler.Activate, limited)

	catalogHandler := NewCatalogHandler(d.Catalog)
	servers := e.Group("/servers/:key")
	servers.POST("/create", catalogHandler.CreateServer, full)
	servers.PUT("/update", catalogHandler.UpdateServer, full)
	servers.GET("/list", catalogHandler.ListServers, limited)
	servers.GET("/id/:id", catalogHandler.GetServer, limited)
	servers.DELETE("/id/:id", catalogHandler.DeleteServer, superUser)

	products := e.Group("/products/:key")
	products.POST("/create", catalogHandler.CreateProduct, full)
	products.PUT("/update", catalogHandler.UpdateProduct, full)
	products.GET("/id/:id", catalogHandler.GetProduct, limited)
	products.GET("/server/:serverId", catalogHandler.ProductsByServer, limited)
	products.DELETE("/id/:id", catalogHandler.DeleteProduct, superUser)
}

func healthCheck(db *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

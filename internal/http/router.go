// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"souq/internal/http/handlers"
	"souq/internal/http/middleware"
	"souq/internal/modules/account"
	"souq/internal/modules/catalog"
	"souq/internal/modules/location"
	"souq/internal/modules/order"
)

func NewRouter(
	log *logrus.Logger,
	verifier middleware.TokenVerifier,
	accountService *account.Service,
	catalogService *catalog.Service,
	orderService *order.Service,
	locationService *location.Service,
) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	accountHandler := handlers.NewAccountHandler(accountService)
	r.POST("/api/accounts/register", accountHandler.Register)
	r.POST("/api/accounts/login", accountHandler.Login)

	auth := r.Group("/api", middleware.Auth(verifier))
	auth.GET("/accounts/me", accountHandler.Me)
	auth.POST("/accounts/addresses", accountHandler.AddAddress)
	auth.GET("/accounts/addresses", accountHandler.ListAddresses)
	auth.PUT("/accounts/addresses/:id", accountHandler.UpdateAddress)
	auth.DELETE("/accounts/addresses/:id", accountHandler.DeleteAddress)

	catalogHandler := handlers.NewCatalogHandler(catalogService)
	r.GET("/api/shops/:id", catalogHandler.GetShop)
	r.GET("/api/shops/:id/products", catalogHandler.ListProducts)
	r.GET("/api/products/:id", catalogHandler.GetProduct)

	owner := auth.Group("", middleware.RequireRole(account.RoleShopOwner))
	owner.POST("/shops", catalogHandler.CreateShop)
	owner.POST("/shops/:id/products", catalogHandler.CreateProduct)

	orderHandler := handlers.NewOrderHandler(orderService, accountService)
	auth.GET("/orders", orderHandler.List)
	auth.GET("/orders/:id", orderHandler.Get)
	auth.POST("/orders", middleware.RequireRole(account.RoleCustomer), orderHandler.Create)

	driver := auth.Group("/drivers", middleware.RequireRole(account.RoleDriver))
	driverHandler := handlers.NewDriverHandler(locationService)
	driver.PUT("/location", driverHandler.UpdateLocation)
	driver.POST("/heartbeat", driverHandler.Heartbeat)
	driver.PUT("/availability", driverHandler.SetAvailability)

	auth.PATCH("/orders/:id/status", middleware.RequireRole(account.RoleDriver), orderHandler.UpdateStatus)
	auth.GET("/drivers/nearby", middleware.RequireRole(account.RoleShopOwner, account.RoleAdmin), driverHandler.Nearby)

	return r
}

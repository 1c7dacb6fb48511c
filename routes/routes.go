package routes

import (
	"github.com/bardan8586/Fancy-Enterprise/controllers"
	"github.com/bardan8586/Fancy-Enterprise/middleware"
	"github.com/gin-gonic/gin"
)

// Controllers bundles every handler set mounted under /api.
type Controllers struct {
	Users     *controllers.UserController
	Products  *controllers.ProductController
	Cart      *controllers.CartController
	Checkout  *controllers.CheckoutController
	Orders    *controllers.OrderController
	Admin     *controllers.AdminController
	Uploads   *controllers.UploadController
	Subscribe *controllers.SubscribeController
}

// Guards are the per-route middleware: authentication, rate limits and the
// admin IP allow-list.
type Guards struct {
	Auth     *middleware.Authenticator
	Limiters *middleware.Limiters
	AdminIPs []string
}

// Register mounts the storefront API on r.
func Register(r *gin.Engine, env string, h Controllers, g Guards) {
	r.GET("/", controllers.Welcome)
	r.GET("/health", controllers.Health(env))

	api := r.Group("/api")
	api.Use(g.Limiters.General.Middleware())

	protect := g.Auth.Protect()
	admin := []gin.HandlerFunc{protect, middleware.AdminOnly(), middleware.AdminIPAllowList(g.AdminIPs)}

	users := api.Group("/users")
	{
		authLimit := g.Limiters.Auth.Middleware()
		users.POST("/register", authLimit, h.Users.Register)
		users.POST("/login", authLimit, h.Users.Login)
		users.POST("/google-auth", authLimit, h.Users.GoogleAuth)
		users.POST("/forgot-password", authLimit, h.Users.ForgotPassword)
		users.POST("/reset-password/:token", authLimit, h.Users.ResetPassword)

		users.GET("/profile", protect, h.Users.Profile)
		users.GET("/wishlist", protect, h.Users.GetWishlist)
		users.POST("/wishlist", protect, h.Users.AddToWishlist)
		users.DELETE("/wishlist/:productId", protect, h.Users.RemoveFromWishlist)
	}

	products := api.Group("/products")
	{
		products.GET("", h.Products.List)
		products.GET("/best-seller", h.Products.BestSeller)
		products.GET("/new-arrivals", h.Products.NewArrivals)
		products.GET("/similar/:id", h.Products.Similar)
		products.GET("/:id", h.Products.Get)
	}

	cart := api.Group("/cart")
	cart.Use(g.Auth.OptionalAuth())
	{
		cart.POST("", h.Cart.Add)
		cart.PUT("", h.Cart.Update)
		cart.DELETE("", h.Cart.Remove)
		cart.GET("", h.Cart.Get)
		cart.POST("/merge", protect, h.Cart.Merge)
		cart.DELETE("/clear", h.Cart.Clear)
	}

	checkout := api.Group("/checkout")
	checkout.Use(protect)
	{
		paymentLimit := g.Limiters.Payment.Middleware()
		checkout.POST("", paymentLimit, h.Checkout.Create)
		checkout.GET("/:id", h.Checkout.Get)
		checkout.PUT("/:id/pay", paymentLimit, h.Checkout.Pay)
		checkout.POST("/:id/finalize", paymentLimit, h.Checkout.Finalize)
		checkout.POST("/:id/payment-intent", paymentLimit, h.Checkout.PaymentIntent)
	}

	api.POST("/payments/stripe/webhook", h.Checkout.StripeWebhook)

	orders := api.Group("/orders")
	orders.Use(protect)
	{
		orders.GET("/my-orders", h.Orders.MyOrders)
		orders.POST("", h.Orders.Create)
		orders.GET("/:id", h.Orders.Get)
	}

	api.POST("/subscribe", g.Limiters.Contact.Middleware(), h.Subscribe.Subscribe)

	upload := api.Group("/upload")
	upload.Use(admin...)
	{
		upload.POST("", h.Uploads.Upload)
		upload.GET("/presign", h.Uploads.Presign)
	}

	adminGroup := api.Group("/admin")
	adminGroup.Use(admin...)
	{
		adminGroup.GET("/users", h.Admin.ListUsers)
		adminGroup.POST("/users", h.Admin.CreateUser)
		adminGroup.PUT("/users/:id", h.Admin.UpdateUser)
		adminGroup.DELETE("/users/:id", h.Admin.DeleteUser)

		adminGroup.GET("/products", h.Products.AdminList)
		adminGroup.POST("/products", h.Products.Create)
		adminGroup.PUT("/products/:id", h.Products.Update)
		adminGroup.DELETE("/products/:id", h.Products.Delete)

		adminGroup.GET("/orders", h.Orders.AdminList)
		adminGroup.PUT("/orders/:id", h.Orders.UpdateStatus)
		adminGroup.DELETE("/orders/:id", h.Orders.Delete)

		adminGroup.GET("/notifications", h.Admin.ListNotifications)
	}
}

package httpserver

import (
	"context"
	"io"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"tiffinbox/internal/domain"
	"tiffinbox/internal/notify"
	"tiffinbox/internal/service/approval"
)

type menuService interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.MenuItem, error)
}

type cartService interface {
	Add(ctx context.Context, customerID, itemID string) error
	Remove(customerID, itemID string)
	SetQuantity(customerID, itemID string, quantity int)
	Clear(customerID string)
	Lines(customerID string) []domain.CartLine
	TotalQuantity(customerID string) int
}

type planService interface {
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
	SubmitReceipt(ctx context.Context, customerID, filename, contentType string, body io.Reader) (*domain.Customer, error)
	RequestRenewal(ctx context.Context, customerID string) (*domain.Customer, error)
}

type orderService interface {
	Checkout(ctx context.Context, customerID string) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListMine(ctx context.Context, customerID string) ([]domain.Order, error)
}

type approvalService interface {
	ApprovePayment(ctx context.Context, customerID string) (*domain.Customer, error)
	RejectPayment(ctx context.Context, customerID string) (*domain.Customer, error)
	ApproveOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*domain.Order, error)
	PendingPayments(ctx context.Context) ([]approval.PendingPayment, error)
	Orders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	Stats(ctx context.Context) (*approval.Dashboard, error)
}

type eventSource interface {
	Subscribe() (<-chan notify.Event, func())
}

// Deps carries the services the router exposes.
type Deps struct {
	MenuSvc     menuService
	CartSvc     cartService
	PlanSvc     planService
	OrderSvc    orderService
	ApprovalSvc approvalService
	Events      eventSource
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User-ID", "X-User-Role"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	v1 := router.Group("/v1")
	v1.GET("/menu", listMenuHandler(deps.MenuSvc))

	authed := v1.Group("", identityMiddleware())
	{
		authed.GET("/cart", getCartHandler(deps.CartSvc, deps.MenuSvc))
		authed.POST("/cart/items", addCartItemHandler(deps.CartSvc))
		authed.PUT("/cart/items/:itemID", setCartItemHandler(deps.CartSvc))
		authed.DELETE("/cart/items/:itemID", removeCartItemHandler(deps.CartSvc))
		authed.DELETE("/cart", clearCartHandler(deps.CartSvc))

		authed.POST("/orders", checkoutHandler(deps.OrderSvc))
		authed.GET("/orders", listOrdersHandler(deps.OrderSvc))
		authed.GET("/orders/:orderID", getOrderHandler(deps.OrderSvc))

		authed.GET("/plan", getPlanHandler(deps.PlanSvc))
		authed.POST("/plan/receipt", submitReceiptHandler(deps.PlanSvc))
		authed.POST("/plan/renewal", requestRenewalHandler(deps.PlanSvc))

		authed.GET("/events", eventsHandler(deps.Events))
	}

	owner := v1.Group("/owner", identityMiddleware(), requireOwner())
	{
		owner.GET("/payments", pendingPaymentsHandler(deps.ApprovalSvc))
		owner.POST("/payments/:customerID/approve", approvePaymentHandler(deps.ApprovalSvc))
		owner.POST("/payments/:customerID/reject", rejectPaymentHandler(deps.ApprovalSvc))
		owner.GET("/orders", ownerOrdersHandler(deps.ApprovalSvc))
		owner.POST("/orders/:orderID/approve", approveOrderHandler(deps.ApprovalSvc))
		owner.POST("/orders/:orderID/cancel", cancelOrderHandler(deps.ApprovalSvc))
		owner.GET("/dashboard", dashboardHandler(deps.ApprovalSvc))
	}

	return router
}

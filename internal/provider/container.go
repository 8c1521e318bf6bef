package provider

import (
	"context"

	"github.com/vendora-next/internal/authz"
	"github.com/vendora-next/internal/cache"
	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/event"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/payment"
	"github.com/vendora-next/internal/queue"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/service"
	"github.com/vendora-next/internal/tax"
	"github.com/vendora-next/internal/webhook"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config
	Bus    *event.Bus
	Queue  *queue.Client

	// Repositories
	AdminRepo       repository.AdminRepository
	ProductRepo     repository.ProductRepository
	OrderRepo       repository.OrderRepository
	FulfillmentRepo repository.FulfillmentRepository
	RefundRepo      repository.RefundRepository
	ReturnRepo      repository.ReturnRepository
	ClaimRepo       repository.ClaimRepository
	ExchangeRepo    repository.ExchangeRepository
	OrderEditRepo   repository.OrderEditRepository
	WebhookRepo     repository.WebhookRepository
	WebhookLogRepo  repository.WebhookLogRepository

	// Collaborators
	PaymentGateway   payment.Gateway
	WebhookDeliverer *webhook.Deliverer

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	OrderService       *service.OrderService
	FulfillmentService *service.FulfillmentService
	RefundService      *service.RefundService
	ReturnService      *service.ReturnService
	ClaimService       *service.ClaimService
	ExchangeService    *service.ExchangeService
	OrderEditService   *service.OrderEditService
	WebhookService     *service.WebhookService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue, &cfg.Webhook)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	c := &Container{
		Config: cfg,
		Bus:    event.NewBus(),
		Queue:  queueClient,
	}

	c.initRepositories()
	c.initServices()
	c.bridgeEvents()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.FulfillmentRepo = repository.NewFulfillmentRepository(db)
	c.RefundRepo = repository.NewRefundRepository(db)
	c.ReturnRepo = repository.NewReturnRepository(db)
	c.ClaimRepo = repository.NewClaimRepository(db)
	c.ExchangeRepo = repository.NewExchangeRepository(db)
	c.OrderEditRepo = repository.NewOrderEditRepository(db)
	c.WebhookRepo = repository.NewWebhookRepository(db)
	c.WebhookLogRepo = repository.NewWebhookLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	gateway, err := payment.NewGateway(c.Config.Payment)
	if err != nil {
		logger.Errorw("provider_init_payment_gateway_failed", "error", err)
		panic(err)
	}
	c.PaymentGateway = gateway
	c.WebhookDeliverer = webhook.NewDeliverer(c.Config.Webhook, c.WebhookRepo, c.WebhookLogRepo)

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.FulfillmentRepo, tax.Zero(), c.Bus)
	c.FulfillmentService = service.NewFulfillmentService(c.OrderRepo, c.FulfillmentRepo, c.Bus)
	c.RefundService = service.NewRefundService(c.OrderRepo, c.RefundRepo, c.PaymentGateway, c.Bus)
	c.ReturnService = service.NewReturnService(c.OrderRepo, c.ReturnRepo, c.RefundService, c.Bus)
	c.ClaimService = service.NewClaimService(c.OrderRepo, c.ClaimRepo, c.RefundService, c.Bus)
	c.ExchangeService = service.NewExchangeService(c.OrderRepo, c.ExchangeRepo, c.ProductRepo, c.RefundService, c.Bus)
	c.OrderEditService = service.NewOrderEditService(c.OrderRepo, c.OrderEditRepo, c.ProductRepo, c.Bus)
	c.WebhookService = service.NewWebhookService(c.WebhookRepo, c.WebhookLogRepo, c.WebhookDeliverer)
}

// bridgeEvents 将总线事件转入异步队列做回调扇出
// 入队失败只记录日志，不影响业务事务
func (c *Container) bridgeEvents() {
	if c.Bus == nil || !c.Queue.Enabled() {
		return
	}
	c.Bus.Subscribe(event.Wildcard, func(ctx context.Context, evt event.Event) {
		err := c.Queue.EnqueueWebhookDispatch(queue.WebhookDispatchPayload{
			Event:      evt.Name,
			StoreID:    evt.StoreID,
			OccurredAt: evt.OccurredAt,
			Data:       evt.Payload,
		})
		if err != nil {
			logger.Warnw("event_bridge_enqueue_failed", "event", evt.Name, "error", err)
		}
	})
}

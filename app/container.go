package app

import (
	"errors"
	"log/slog"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/config"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/handlers"
	admin_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/admin"
	auth_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/auth"
	course_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/course"
	learning_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/learning"
	payment_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/payment"
	subscription_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/subscription"
	transaction_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/transaction"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/router"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/cron"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/events"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/razorpay"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/storage"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/auth"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/cache"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
)

// container holds everything built from the environment
type container struct {
	middleware router.Middleware
	handlers   router.Handlers
	cron       *cron.CronManager
	closers    []closer
	logger     *slog.Logger
}

type closer struct {
	name  string
	close func() error
}

// buildContainer wires repositories, gateway clients, services and handlers
func buildContainer(env *config.Environment, store *database.GORMStore, logger *slog.Logger) (*container, error) {
	if env.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}

	c := &container{logger: logger}
	db := store.DB()

	payments := database.NewPaymentRepository(db)
	accounts := database.NewAccountRepository(db)
	catalog := database.NewCatalogRepository(db)
	learningStore := database.NewLearningRepository(db)
	blacklist := auth.NewBlacklistService(db)

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        env.JWT_ISSUER,
	})

	// Redis backs locks and login throttling; without it locks fall back to
	// process memory and brute force protection is disabled
	var (
		locker     services.Locker = cache.NewMemoryLocker()
		bruteForce *middleware.BruteForceProtection
		pinger     handlers.Pinger
	)
	if env.REDIS_URL == "" {
		logger.Warn("REDIS_URL not set, using in-memory locks and no brute force protection")
	} else if redisCache, err := cache.NewRedisCache(env.REDIS_URL); err != nil {
		logger.Warn("redis unavailable, using in-memory locks and no brute force protection", "error", err)
	} else {
		locker = redisCache
		bruteForce = middleware.NewBruteForceProtection(redisCache, logger)
		pinger = redisCache
		c.closers = append(c.closers, closer{name: "redis", close: redisCache.Close})
	}

	gateway := razorpay.NewClient(razorpay.Config{
		KeyID:         env.RAZORPAY_KEY_ID,
		KeySecret:     env.RAZORPAY_KEY_SECRET,
		WebhookSecret: env.RAZORPAY_WEBHOOK_SECRET,
		BaseURL:       env.RAZORPAY_BASE_URL,
		Timeout:       env.RAZORPAY_TIMEOUT,
	})
	if !gateway.HasWebhookSecret() {
		logger.Warn("RAZORPAY_WEBHOOK_SECRET not set, refund webhooks are accepted unsigned")
	}

	email := services.NewEmailService(env, logger)
	if !email.IsConfigured() {
		logger.Warn("SMTP not configured, transactional emails are disabled")
	}

	accessDeps := services.AccessDeps{Notifier: email}
	refundDeps := services.RefundDeps{Notifier: email, Locker: locker}
	if env.RABBITMQ_URL != "" {
		publisher := events.NewPublisher(env.RABBITMQ_URL, env.RABBITMQ_QUEUE, logger)
		accessDeps.Events = publisher
		refundDeps.Events = publisher
		c.closers = append(c.closers, closer{name: "rabbitmq", close: publisher.Close})
	}
	receipts, err := storage.NewReceiptArchive(storage.ReceiptConfig{
		AccessKey: env.RECEIPTS_ACCESS_KEY,
		SecretKey: env.RECEIPTS_SECRET_KEY,
		Bucket:    env.RECEIPTS_BUCKET,
		Region:    env.RECEIPTS_REGION,
		Endpoint:  env.RECEIPTS_ENDPOINT,
	})
	switch {
	case err == nil:
		accessDeps.Receipts = receipts
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Info("receipt archive disabled")
	default:
		return nil, err
	}

	access := services.NewAccessService(payments, logger, accessDeps)
	payment := services.NewPaymentService(payments, gateway, access, locker, logger)
	refunds := services.NewRefundService(payments, gateway, access, logger, refundDeps)
	history := services.NewTransactionService(payments)
	authService := services.NewAuthService(accounts, jwtManager, blacklist, email, logger)
	catalogService := services.NewCatalogService(catalog, logger)
	learning := services.NewLearningService(learningStore, logger)
	admin := services.NewAdminService(accounts, logger)

	c.middleware = router.Middleware{
		Auth:       middleware.NewAuthMiddleware(jwtManager, blacklist, accounts),
		BruteForce: bruteForce,
		Security: middleware.SecurityConfig{
			AllowedOrigins:    env.ALLOWED_ORIGINS,
			RateLimitRequests: env.RATE_LIMIT_REQUESTS,
			RateLimitWindow:   env.RATE_LIMIT_WINDOW,
			LogRequests:       true,
		},
	}
	c.handlers = router.Handlers{
		Health:       handlers.NewHealthHandler(store, pinger),
		Auth:         auth_handlers.NewAuthHandler(authService, bruteForce),
		Payment:      payment_handlers.NewPaymentHandler(payment),
		Transaction:  transaction_handlers.NewTransactionHandler(refunds, history, admin),
		Course:       course_handlers.NewCourseHandler(catalogService),
		Subscription: subscription_handlers.NewPlanHandler(catalogService),
		Learning:     learning_handlers.NewLearningHandler(learning),
		Admin:        admin_handlers.NewAdminHandler(admin),
	}

	if env.CRON_ENABLED {
		c.cron = cron.NewCronManager(cron.Jobs{
			Subscriptions: access,
			Refunds:       refunds,
			Tokens:        blacklist,
			ResetTokens:   authService,
		}, database.NewJobLogRepository(db), logger)
	}
	return c, nil
}

// close releases external connections in reverse order
func (c *container) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].close(); err != nil {
			c.logger.Warn("failed to close dependency", "dependency", c.closers[i].name, "error", err)
		}
	}
}

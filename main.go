package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/cache"
	"github.com/bardan8586/Fancy-Enterprise/config"
	"github.com/bardan8586/Fancy-Enterprise/consumer"
	"github.com/bardan8586/Fancy-Enterprise/controllers"
	"github.com/bardan8586/Fancy-Enterprise/database"
	"github.com/bardan8586/Fancy-Enterprise/events"
	"github.com/bardan8586/Fancy-Enterprise/logger"
	"github.com/bardan8586/Fancy-Enterprise/mailer"
	"github.com/bardan8586/Fancy-Enterprise/middleware"
	awspkg "github.com/bardan8586/Fancy-Enterprise/pkg/aws"
	"github.com/bardan8586/Fancy-Enterprise/payments"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"github.com/bardan8586/Fancy-Enterprise/routes"
	"github.com/bardan8586/Fancy-Enterprise/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName     = "fancy-api"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// AWS is optional locally; features that need it are disabled without it.
	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)

	var shipper io.Writer
	if cfg.CloudWatchEnable && awsErr == nil {
		if s, err := awspkg.NewLogShipper(ctx, awsCfg, cfg.CloudWatchGroup, serviceName); err != nil {
			log.Printf("CloudWatch log shipping disabled: %v", err)
		} else {
			shipper = s
		}
	}

	zapLogger, err := logger.New(cfg.AppEnv, shipper)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(zapLogger)

	if awsErr != nil {
		zapLogger.Warn("AWS config unavailable, SNS, SQS, S3 and CloudWatch disabled", zap.Error(awsErr))
	}

	// Stores
	mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := mongoDB.EnsureIndexes(ctx); err != nil {
		zapLogger.Fatal("Failed to create MongoDB indexes", zap.Error(err))
	}

	pg, err := database.ConnectPostgres(cfg.PostgresDSN(), zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	if err := database.RunMigrations(pg, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create Redis client", zap.Error(err))
	}

	// Third parties
	metrics := newMetrics(cfg, awsCfg, awsErr)
	publisher := newPublisher(cfg, awsCfg, awsErr, zapLogger)
	sender := newSender(cfg, zapLogger)

	var gateway payments.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		zapLogger.Warn("STRIPE_SECRET_KEY not set, card payments disabled")
	}

	var images services.ImageStore
	if cfg.CloudinaryURL != "" {
		store, err := services.NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			zapLogger.Fatal("Invalid CLOUDINARY_URL", zap.Error(err))
		}
		images = store
	} else {
		zapLogger.Warn("CLOUDINARY_URL not set, image uploads disabled")
	}

	var signer services.UploadSigner
	if awsErr == nil && cfg.S3UploadBucket != "" {
		signer = awspkg.NewPresigner(awsCfg, cfg.S3UploadBucket, cfg.S3PresignExpiry)
	}

	// Repositories
	userRepo := repository.NewUserRepository(mongoDB.DB)
	productRepo := repository.NewProductRepository(mongoDB.DB)
	cartRepo := repository.NewCartRepository(mongoDB.DB)
	checkoutRepo := repository.NewCheckoutRepository(mongoDB.DB)
	orderRepo := repository.NewOrderRepository(mongoDB.DB)
	subscriberRepo := repository.NewSubscriberRepository(pg)
	notificationRepo := repository.NewNotificationRepository(pg)

	var tx repository.TxRunner = database.NoTx{}
	if cfg.MongoTransactions {
		tx = database.NewMongoTx(mongoDB.Client)
	}

	// Services
	notificationService := services.NewNotificationService(sender, notificationRepo, zapLogger)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	cartService := services.NewCartService(cartRepo, productRepo, zapLogger)
	productService := services.NewProductService(
		productRepo,
		cache.NewProductCache(redisClient, cache.DefaultProductTTL, zapLogger, metrics),
		zapLogger,
	)
	userService := services.NewUserService(services.UserServiceDeps{
		Users:        userRepo,
		Products:     productRepo,
		Tokens:       tokenService,
		Google:       services.NewIDTokenVerifier(cfg.GoogleClientID),
		Carts:        cartService,
		Mail:         notificationService,
		ResetURLBase: cfg.ResetURLBase,
		Logger:       zapLogger,
	})
	checkoutService := services.NewCheckoutService(services.CheckoutServiceDeps{
		Checkouts:   checkoutRepo,
		Orders:      orderRepo,
		Carts:       cartRepo,
		Products:    productRepo,
		Users:       userRepo,
		Tx:          tx,
		Compensate:  !cfg.MongoTransactions,
		Idempotency: cache.NewIdempotencyStore(redisClient, cache.DefaultIdempotencyTTL),
		Gateway:     gateway,
		Currency:    cfg.StripeCurrency,
		Publisher:   publisher,
		Mail:        notificationService,
		Metrics:     metrics,
		Logger:      zapLogger,
	})
	orderService := services.NewOrderService(services.OrderServiceDeps{
		Orders:    orderRepo,
		Users:     userRepo,
		Publisher: publisher,
		Mail:      notificationService,
		Metrics:   metrics,
		Logger:    zapLogger,
	})

	if err := middleware.RegisterValidators(); err != nil {
		zapLogger.Fatal("Failed to register validators", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(zapLogger),
		apperrors.Recovery(cfg.AppEnv, zapLogger),
		middleware.SecurityHeaders(),
		middleware.NoStore(),
		middleware.CORS(cfg.FrontendURL),
		middleware.Timeout(requestTimeout),
		middleware.Metrics(metrics, serviceName),
		apperrors.Middleware(cfg.AppEnv, zapLogger),
	)
	r.NoRoute(apperrors.NotFoundHandler(cfg.AppEnv))

	limiters := middleware.NewLimiters()
	go limiters.RunSweeper(time.Minute, ctx.Done())

	routes.Register(r, cfg.AppEnv, routes.Controllers{
		Users:     controllers.NewUserController(userService),
		Products:  controllers.NewProductController(productService),
		Cart:      controllers.NewCartController(cartService),
		Checkout:  controllers.NewCheckoutController(checkoutService),
		Orders:    controllers.NewOrderController(orderService),
		Admin:     controllers.NewAdminController(services.NewAdminUserService(userRepo, zapLogger), notificationService),
		Uploads:   controllers.NewUploadController(services.NewUploadService(images, signer, cfg.S3PublicBaseURL, zapLogger)),
		Subscribe: controllers.NewSubscribeController(services.NewSubscriberService(subscriberRepo, zapLogger)),
	}, routes.Guards{
		Auth:     middleware.NewAuthenticator(tokenService, userRepo, zapLogger),
		Limiters: limiters,
		AdminIPs: cfg.AdminAllowedIPs,
	})

	// Workers
	var workers sync.WaitGroup
	if awsErr == nil && cfg.PaymentEventsQueueURL != "" {
		paymentConsumer := consumer.NewPaymentConsumer(checkoutService, metrics, zapLogger)
		poller := awspkg.NewSQSConsumer(awsCfg, cfg.PaymentEventsQueueURL, zapLogger)
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := paymentConsumer.Run(ctx, poller); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("payment consumer stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Server started", zap.String("port", cfg.Port), zap.String("environment", cfg.AppEnv))
	<-quit
	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	stop()
	workers.Wait()

	if err := publisher.Close(); err != nil {
		zapLogger.Error("Failed to close event publisher", zap.Error(err))
	}
	if err := mongoDB.Close(); err != nil {
		zapLogger.Error("Failed to close MongoDB", zap.Error(err))
	}
	if err := database.ClosePostgres(pg); err != nil {
		zapLogger.Error("Failed to close Postgres", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		zapLogger.Error("Failed to close Redis", zap.Error(err))
	}
	zapLogger.Info("Server exited cleanly")
}

func newMetrics(cfg *config.Config, awsCfg sdkaws.Config, awsErr error) awspkg.MetricsRecorder {
	if awsErr != nil || !cfg.CloudWatchEnable {
		return awspkg.NopMetrics()
	}
	return awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNS, true)
}

func newPublisher(cfg *config.Config, awsCfg sdkaws.Config, awsErr error, zapLogger *zap.Logger) events.Publisher {
	switch cfg.EventBus {
	case "sns":
		if awsErr != nil || cfg.OrderEventsTopicARN == "" {
			zapLogger.Warn("EVENT_BUS=sns but SNS is unavailable, order events disabled")
			return events.NopPublisher{}
		}
		return events.NewSNSPublisher(awspkg.NewSNSClient(awsCfg), cfg.OrderEventsTopicARN, zapLogger)
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, zapLogger)
	default:
		return events.NopPublisher{}
	}
}

// newSender falls back to logging mails when SMTP credentials are absent.
func newSender(cfg *config.Config, zapLogger *zap.Logger) mailer.Sender {
	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUser,
		Password:   cfg.SMTPPassword,
		SenderName: cfg.SMTPSenderName,
	})
	if err != nil {
		zapLogger.Warn("SMTP not configured, emails will only be logged", zap.Error(err))
		return mailer.NewLogSender(zapLogger)
	}
	return sender
}

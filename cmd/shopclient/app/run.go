package app

import (
	"context"
	"database/sql"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/AnjanaKvd/ZeroX-sub001/configs"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/backend"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/cache"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/http"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/http/middleware"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/kafka"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/queue"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/repo"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/storage"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/capture"
	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/logging"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/notify"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/scan"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	log := logging.Init(cfg.App.Name, cfg.App.LogFile)
	log.Info("shopclient: starting up")

	// mysql (scan audit trail)
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, nil, err
	}

	// redis (idempotency, optionally cart storage)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// rabbitmq channel for scan events
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	// shop backend (coupon validation + product catalog)
	shop := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)

	// cart persistence
	var cartStore usecase.CartStorage
	if cfg.Cart.Storage == "redis" {
		cartStore = cache.NewRedisCartStore(rdb)
	} else {
		cartStore, err = storage.NewFileCartStore(cfg.Cart.Dir)
		if err != nil {
			return nil, nil, err
		}
	}

	hub := notify.NewHub()
	cartSvc := usecase.NewCartService(cartStore, shop, hub)

	// scan infra
	scanRepo := repo.NewMySQLScanRepo(db)
	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)

	onConfirm := func(ctx context.Context, ev scan.Confirmed) {
		rec := &domain.ScanRecord{
			ID:         uuid.NewString(),
			SessionID:  ev.SessionID,
			UserID:     ev.UserID,
			Raw:        ev.Raw,
			Normalized: ev.Code,
			Format:     ev.Format,
			Backend:    ev.Backend,
			CreatedAt:  ev.At,
		}
		if err := scanRepo.Insert(ctx, rec); err != nil {
			log.Error("scan audit insert failed", "session", ev.SessionID, "err", err)
		}
		msg := usecase.ScanConfirmedMsg{
			SessionID: ev.SessionID,
			UserID:    ev.UserID,
			Code:      ev.Code,
			Format:    ev.Format,
			Backend:   ev.Backend,
			At:        ev.At,
		}
		if err := producer.PublishScanConfirmed(ctx, msg); err != nil {
			log.Error("scan confirmed publish failed", "session", ev.SessionID, "err", err)
		}
	}

	captureMgr := capture.NewManager()
	scanMgr := scan.NewManager(captureMgr, scan.Config{
		Debounce:       cfg.Scan.DebounceWindow,
		DecodeInterval: cfg.Scan.DecodeInterval,
		WindowSize:     cfg.Scan.WindowSize,
	}, onConfirm)

	// consume confirmed scans back into the cart
	confirmUC := usecase.NewConfirmScan(idem, shop, cartSvc)
	if err := setupQueue(ch, confirmUC); err != nil {
		return nil, nil, err
	}

	// product price changes from the catalog
	kafkaCtx, stopKafka := context.WithCancel(context.Background())
	if err := setupKafkaListener(kafkaCtx, cfg, cartSvc); err != nil {
		stopKafka()
		return nil, nil, err
	}

	// handlers + router
	cartH := http.NewCartHandler(cartSvc, hub)
	scanH := http.NewScanHandler(scanMgr, scanRepo)
	th := http.NewTokenHandler(cfg)
	auth := middleware.NewAuthz(cfg)
	router := http.NewRouter(cartH, scanH, th, auth)

	cleanup := func() {
		scanMgr.CloseAll()
		captureMgr.CloseAll()
		stopKafka()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupQueue(ch *amqp091.Channel, uc *usecase.ConfirmScan) error {
	h := queue.NewScanConfirmedHandler(uc)

	router := queue.NewRouter(ch, queue.WithPrefetch(50))
	router.Register(queue.ScanConfirmedQueue, queue.JSONHandler[usecase.ScanConfirmedMsg]{HandleFunc: h.HandleConfirmed})

	return router.Start()
}

func setupKafkaListener(ctx context.Context, cfg configs.Config, cart *usecase.CartService) error {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return err
	}

	h := kafka.NewPriceChangedHandler(cart)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.Topic}, h.Handle)
	consumer.Logger = logging.New("kafka")

	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logging.New("kafka").Error("consumer stopped", "err", err)
		}
	}()
	return nil
}

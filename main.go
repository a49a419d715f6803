package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/cafetab/cafetab/internal/billing"
	"github.com/cafetab/cafetab/internal/catalog"
	"github.com/cafetab/cafetab/internal/mongo"
	"github.com/cafetab/cafetab/internal/notify"
	"github.com/cafetab/cafetab/internal/order"
	"github.com/cafetab/cafetab/internal/tables"
	"github.com/cafetab/cafetab/pkg"
)

const (
	appNamespace = "CAFETAB"
	appName      = "cafetab"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	offeringRepo := mongo.NewOfferingRepo(db)
	tableRepo := mongo.NewTableRepo(db)
	periodRepo := mongo.NewPeriodRepo(db)
	orderRepo := mongo.NewOrderRepo(db)
	settingsRepo := mongo.NewSettingsRepo(db)

	indexed := []interface {
		EnsureIndexes(ctx context.Context) error
	}{offeringRepo, tableRepo, periodRepo, orderRepo}
	for _, repo := range indexed {
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("%s(%s) cannot create indexes: %v", appName, appVersion, err)
		}
	}

	aggregator := billing.NewAggregator(periodRepo, orderRepo, logger)

	hub := notify.NewHub(logger)
	var notifier notify.Notifier = notify.Noop{}
	var lifecycles []interface{}
	lifecycles = append(lifecycles, apt.LifecycleHooks{OnStop: baseRepo.Stop})

	pushEnabled := config.GetStringOrDef("notify.push", "true") == "true"
	if pushEnabled {
		natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

		pub, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
		}

		sub, err := pkg.NewNATSSubscriber(natsURL, logger)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
		}

		notifier = notify.NewBroadcast(pub, logger)
		bridge := notify.NewBridge(sub, hub, logger)

		lifecycles = append(lifecycles,
			apt.LifecycleHooks{OnStart: bridge.Start},
			apt.LifecycleHooks{OnStop: func(context.Context) error { return pub.Close() }},
			apt.LifecycleHooks{OnStop: func(context.Context) error { return sub.Close() }},
		)
	} else {
		logger.Info("Push notifications disabled, clients fall back to polling")
	}

	engine := order.NewEngine(orderRepo, offeringRepo, tableRepo, periodRepo, aggregator, notifier, logger)

	catalogHandler := catalog.NewHandler(offeringRepo, config, logger)
	tableHandler := tables.NewHandler(tableRepo, config, logger)
	billingHandler := billing.NewHandler(periodRepo, aggregator, orderRepo, config, logger)
	orderHandler := order.NewHandler(engine, config, logger)
	baristaHandler := order.NewBaristaHandler(engine, config, logger)
	notifyHandler := notify.NewHandler(hub, settingsRepo, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port",
			catalogHandler,
			tableHandler,
			billingHandler,
			orderHandler,
			baristaHandler,
			notifyHandler,
		),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

package main

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/config"
	"github.com/webpiratt/autoswap/internal/gate"
	"github.com/webpiratt/autoswap/internal/market/aggregator"
	"github.com/webpiratt/autoswap/internal/tasks"
	"github.com/webpiratt/autoswap/internal/tokens"
	"github.com/webpiratt/autoswap/service"
	"github.com/webpiratt/autoswap/storage"
	"github.com/webpiratt/autoswap/storage/filestore"
)

func main() {
	cfg, err := config.GetConfigure()
	if err != nil {
		panic(err)
	}

	logger := logrus.StandardLogger()

	sdClient, err := statsd.New(cfg.Datadog.Host + ":" + cfg.Datadog.Port)
	if err != nil {
		panic(err)
	}

	store, err := filestore.New(cfg.Files.Dir)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize order store: %v", err))
	}

	redisStorage, err := storage.NewRedisStorage(cfg.Redis)
	if err != nil {
		panic(err)
	}

	mkt := aggregator.NewClient(
		cfg.Market.BaseURL,
		common.HexToAddress(cfg.Market.TakerAddress),
		cfg.Swap.SlippageBps,
		time.Duration(cfg.Market.TimeoutSeconds)*time.Second,
		logger,
	)
	registry := tokens.NewRegistry(
		mkt,
		cfg.Files.PersonalTokens,
		redisStorage,
		time.Duration(cfg.TokenCacheTTLMinutes)*time.Minute,
		logger,
	)
	taskGate := gate.New(logger, cfg.Jobs...)

	swapJob, err := service.NewScheduledSwapJob(store, mkt, registry, taskGate, cfg.Swap.MaxGasFeesUSD, logger)
	if err != nil {
		panic(fmt.Errorf("failed to create scheduled swap job: %w", err))
	}
	orderJob := service.NewLimitOrderJob(store, mkt, registry, taskGate, logger)
	dcaJob := service.NewDCAJob(store, mkt, registry, cfg.DCA.WeeklyDay, cfg.DCA.MonthlyDay, logger)

	worker := service.NewWorker(swapJob, orderJob, dcaJob, sdClient, logger)

	redisOptions := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Username: cfg.Redis.User,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	scheduler := asynq.NewScheduler(redisOptions, &asynq.SchedulerOpts{Logger: logger})
	for _, job := range cfg.Jobs {
		if job.Enqueue == "" {
			continue
		}
		taskType, ok := tasks.TypeForJob(job.Name)
		if !ok {
			logger.Warnf("no task type for job %q, skipping", job.Name)
			continue
		}
		entryID, err := scheduler.Register(job.Enqueue, asynq.NewTask(taskType, nil), asynq.Queue(tasks.QUEUE_NAME))
		if err != nil {
			panic(fmt.Errorf("failed to register schedule for %s: %w", job.Name, err))
		}
		logger.Infof("registered schedule %s for job %s (%s)", entryID, job.Name, job.Enqueue)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			panic(fmt.Errorf("could not run scheduler: %w", err))
		}
	}()

	srv := asynq.NewServer(
		redisOptions,
		asynq.Config{
			Logger:      logger,
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QUEUE_NAME: 10,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeScheduledSwaps, worker.HandleScheduledSwaps)
	mux.HandleFunc(tasks.TypeLimitOrders, worker.HandleLimitOrders)
	mux.HandleFunc(tasks.TypeDCA, worker.HandleDCA)
	if err := srv.Run(mux); err != nil {
		panic(fmt.Errorf("could not run server: %w", err))
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/api"
	"github.com/webpiratt/autoswap/config"
	"github.com/webpiratt/autoswap/internal/market/aggregator"
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

	logger := logrus.New()

	sdClient, err := statsd.New(fmt.Sprintf("%s:%s", cfg.Datadog.Host, cfg.Datadog.Port))
	if err != nil {
		panic(err)
	}

	store, err := filestore.New(cfg.Files.Dir)
	if err != nil {
		panic(err)
	}

	redisStorage, err := storage.NewRedisStorage(cfg.Redis)
	if err != nil {
		panic(err)
	}

	redisOptions := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Username: cfg.Redis.User,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	client := asynq.NewClient(redisOptions)
	defer func() {
		if err := client.Close(); err != nil {
			fmt.Println("fail to close asynq client,", err)
		}
	}()

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

	orderService, err := service.NewOrderService(store, logrus.WithField("service", "orders").Logger)
	if err != nil {
		panic(err)
	}

	server := api.NewServer(
		cfg,
		orderService,
		registry,
		mkt,
		client,
		sdClient,
		logger,
	)
	if err := server.StartServer(); err != nil {
		panic(err)
	}
}

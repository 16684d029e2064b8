// Command runner executes a single category job once and exits, so an
// external cron supervisor can drive the system without the asynq worker.
// The Task Gate still decides whether the tick fires, so the supervisor's
// schedule only needs to be at least as frequent as the job's own.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/config"
	"github.com/webpiratt/autoswap/internal/gate"
	"github.com/webpiratt/autoswap/internal/market/aggregator"
	"github.com/webpiratt/autoswap/internal/tokens"
	"github.com/webpiratt/autoswap/service"
	"github.com/webpiratt/autoswap/storage/filestore"
)

func main() {
	jobName := flag.String("job", "", "job to run: gas-optimizer, order-manager or dca-manager")
	flag.Parse()

	logger := logrus.StandardLogger()

	cfg, err := config.GetConfigure()
	if err != nil {
		logger.Errorf("fail to read config: %v", err)
		os.Exit(1)
	}

	store, err := filestore.New(cfg.Files.Dir)
	if err != nil {
		logger.Errorf("fail to initialize order store: %v", err)
		os.Exit(1)
	}

	mkt := aggregator.NewClient(
		cfg.Market.BaseURL,
		common.HexToAddress(cfg.Market.TakerAddress),
		cfg.Swap.SlippageBps,
		time.Duration(cfg.Market.TimeoutSeconds)*time.Second,
		logger,
	)
	// No shared cache in one-shot mode; the process fetches the token list
	// once and exits.
	registry := tokens.NewRegistry(mkt, cfg.Files.PersonalTokens, nil, 0, logger)
	taskGate := gate.New(logger, cfg.Jobs...)

	ctx := context.Background()

	switch *jobName {
	case config.JobGasOptimizer:
		job, err := service.NewScheduledSwapJob(store, mkt, registry, taskGate, cfg.Swap.MaxGasFeesUSD, logger)
		if err != nil {
			logger.Errorf("fail to create scheduled swap job: %v", err)
			os.Exit(1)
		}
		run(ctx, job, logger)
	case config.JobOrderManager:
		run(ctx, service.NewLimitOrderJob(store, mkt, registry, taskGate, logger), logger)
	case config.JobDCAManager:
		run(ctx, service.NewDCAJob(store, mkt, registry, cfg.DCA.WeeklyDay, cfg.DCA.MonthlyDay, logger), logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown job %q\n", *jobName)
		flag.Usage()
		os.Exit(2)
	}
}

type job interface {
	Run(ctx context.Context) error
}

func run(ctx context.Context, j job, logger *logrus.Logger) {
	if err := j.Run(ctx); err != nil {
		logger.Errorf("job failed: %v", err)
		os.Exit(1)
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// WorkerService adapts the category jobs to the task queue. Each handler
// runs one job to completion; the Task Gate inside the gated jobs keeps
// over-frequent enqueues from double-executing a schedule tick.
type WorkerService struct {
	swapJob  *ScheduledSwapJob
	orderJob *LimitOrderJob
	dcaJob   *DCAJob
	sdClient *statsd.Client
	logger   *logrus.Logger
}

func NewWorker(
	swapJob *ScheduledSwapJob,
	orderJob *LimitOrderJob,
	dcaJob *DCAJob,
	sdClient *statsd.Client,
	logger *logrus.Logger,
) *WorkerService {
	return &WorkerService{
		swapJob:  swapJob,
		orderJob: orderJob,
		dcaJob:   dcaJob,
		sdClient: sdClient,
		logger:   logger,
	}
}

func (s *WorkerService) incCounter(name string, tags []string) {
	if err := s.sdClient.Count(name, 1, tags, 1); err != nil {
		s.logger.Errorf("fail to count metric, err: %v", err)
	}
}

func (s *WorkerService) measureTime(name string, start time.Time, tags []string) {
	if err := s.sdClient.Timing(name, time.Since(start), tags, 1); err != nil {
		s.logger.Errorf("fail to measure time metric, err: %v", err)
	}
}

func (s *WorkerService) HandleScheduledSwaps(ctx context.Context, t *asynq.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.measureTime("worker.job.scheduled_swaps.latency", time.Now(), []string{})
	s.incCounter("worker.job.scheduled_swaps", []string{})

	if err := s.swapJob.Run(ctx); err != nil {
		s.incCounter("worker.job.scheduled_swaps.error", []string{})
		s.logger.Errorf("scheduled swaps job failed: %v", err)
		// Store faults need operator attention; re-running immediately would
		// hit the same file again.
		return fmt.Errorf("scheduled swaps job failed: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

func (s *WorkerService) HandleLimitOrders(ctx context.Context, t *asynq.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.measureTime("worker.job.limit_orders.latency", time.Now(), []string{})
	s.incCounter("worker.job.limit_orders", []string{})

	if err := s.orderJob.Run(ctx); err != nil {
		s.incCounter("worker.job.limit_orders.error", []string{})
		s.logger.Errorf("limit orders job failed: %v", err)
		return fmt.Errorf("limit orders job failed: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

func (s *WorkerService) HandleDCA(ctx context.Context, t *asynq.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.measureTime("worker.job.dca.latency", time.Now(), []string{})
	s.incCounter("worker.job.dca", []string{})

	if err := s.dcaJob.Run(ctx); err != nil {
		s.incCounter("worker.job.dca.error", []string{})
		s.logger.Errorf("dca job failed: %v", err)
		return fmt.Errorf("dca job failed: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

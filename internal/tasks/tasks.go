package tasks

import "github.com/webpiratt/autoswap/config"

const (
	QUEUE_NAME = "autoswap_jobs"

	TypeScheduledSwaps = "job:scheduled_swaps"
	TypeLimitOrders    = "job:limit_orders"
	TypeDCA            = "job:dca"
)

// TypeForJob maps a configured job name to its asynq task type.
func TypeForJob(name string) (string, bool) {
	switch name {
	case config.JobGasOptimizer:
		return TypeScheduledSwaps, true
	case config.JobOrderManager:
		return TypeLimitOrders, true
	case config.JobDCAManager:
		return TypeDCA, true
	}
	return "", false
}

package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

// statsdMiddleware emits request count, latency and status metrics under the
// api.* prefix, mirroring the worker.job.* metrics on the queue side.
func (s *Server) statsdMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		tags := []string{"path:" + c.Path(), "method:" + c.Request().Method}
		_ = s.sdClient.Incr("api.requests", tags, 1)
		_ = s.sdClient.Timing("api.response_time", time.Since(start), tags, 1)
		_ = s.sdClient.Incr(fmt.Sprintf("api.status.%d", c.Response().Status), tags, 1)

		return err
	}
}

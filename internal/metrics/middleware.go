package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

// Middleware records request counts and latency labelled by route pattern
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		route := c.Route().Path
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
				// The router reports unmatched paths this way; they are
				// unbounded, so keep them out of the label set
				if fiberErr.Code == fiber.StatusNotFound {
					route = unmatchedRoute
				}
			}
		}

		RecordHTTPRequest(c.Method(), route, strconv.Itoa(status), time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus exposition format
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

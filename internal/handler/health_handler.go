package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/config"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

const healthProbeTimeout = 2 * time.Second

// HealthProbe reports whether a backing dependency is reachable.
type HealthProbe func(ctx context.Context) error

// DependencyStatus is the outcome of a single probe.
type DependencyStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string             `json:"status"`
	Timestamp    time.Time          `json:"timestamp"`
	Service      string             `json:"service"`
	Environment  string             `json:"environment"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// HealthCheck reports service health. Any failing probe degrades the response to 503.
func HealthCheck(cfg config.Config, probes map[string]HealthProbe) fiber.Handler {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
		defer cancel()

		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		for _, name := range names {
			dep := DependencyStatus{Name: name, Status: "up"}
			if err := probes[name](ctx); err != nil {
				dep.Status = "down"
				dep.Error = err.Error()
				payload.Status = "degraded"
			}
			payload.Dependencies = append(payload.Dependencies, dep)
		}

		if payload.Status != "ok" {
			return utils.Fail(c, fiber.StatusServiceUnavailable, "SERVICE_DEGRADED", "service degraded", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}

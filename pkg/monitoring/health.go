package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DefaultCheckTimeout bounds each check when the caller sets none
const DefaultCheckTimeout = 5 * time.Second

// HealthStatus is the /health response body
type HealthStatus struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp int64                  `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents the result of an individual health check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthCheck probes one dependency. It must return once ctx is done.
type HealthCheck func(ctx context.Context) CheckResult

// HealthChecker runs the registered checks concurrently on every probe.
type HealthChecker struct {
	service string
	version string
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		service: service,
		version: version,
		timeout: DefaultCheckTimeout,
		checks:  make(map[string]HealthCheck),
	}
}

// SetTimeout changes the per-check deadline. Non-positive values are ignored.
func (hc *HealthChecker) SetTimeout(d time.Duration) {
	if d > 0 {
		hc.timeout = d
	}
}

// AddCheck registers check under name, replacing any previous one.
func (hc *HealthChecker) AddCheck(name string, check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// CheckHealth runs every check and folds the results: any unhealthy check
// makes the service unhealthy, otherwise any degraded one degrades it.
// Unknown statuses count as unhealthy.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.checks))
	checks := make([]HealthCheck, 0, len(hc.checks))
	for name, check := range hc.checks {
		names = append(names, name)
		checks = append(checks, check)
	}
	hc.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, hc.timeout)
			defer cancel()
			results[i] = check(checkCtx)
			return nil
		})
	}
	_ = g.Wait()

	status := HealthStatus{
		Status:    StatusHealthy,
		Service:   hc.service,
		Version:   hc.version,
		Timestamp: time.Now().Unix(),
		Checks:    make(map[string]CheckResult, len(checks)),
	}
	for i, result := range results {
		status.Checks[names[i]] = result
		switch result.Status {
		case StatusHealthy:
		case StatusDegraded:
			if status.Status == StatusHealthy {
				status.Status = StatusDegraded
			}
		default:
			status.Status = StatusUnhealthy
		}
	}
	return status
}

// Handler serves /health; unhealthy answers 503.
func (hc *HealthChecker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := hc.CheckHealth(c.Request.Context())
		statusCode := http.StatusOK
		if health.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	}
}

// HTTPServiceHealthCheck probes an HTTP dependency with GET. Any status
// below 400 is healthy. A failing probe reports unhealthy when critical is
// set and degraded otherwise, so an optional upstream cannot take the
// service out of rotation.
func HTTPServiceHealthCheck(serviceName, target string, critical bool) HealthCheck {
	failStatus := StatusDegraded
	if critical {
		failStatus = StatusUnhealthy
	}
	client := &http.Client{}

	return func(ctx context.Context) CheckResult {
		start := time.Now()
		fail := func(format string, args ...any) CheckResult {
			return CheckResult{Status: failStatus, Message: fmt.Sprintf(format, args...), Latency: time.Since(start).String()}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fail("%s probe is misconfigured: %v", serviceName, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fail("%s unreachable: %v", serviceName, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 {
			return fail("%s returned %d", serviceName, resp.StatusCode)
		}
		return CheckResult{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%s responding", serviceName),
			Latency: time.Since(start).String(),
		}
	}
}

// ConfigurationHealthCheck reports unhealthy when any required value is
// empty. Keys ending in _URL must also hold an absolute URL.
func ConfigurationHealthCheck(configs map[string]string) HealthCheck {
	return func(context.Context) CheckResult {
		var missing, invalid []string
		for key, value := range configs {
			switch {
			case value == "":
				missing = append(missing, key)
			case isURLKey(key) && !isAbsoluteURL(value):
				invalid = append(invalid, key)
			}
		}
		sort.Strings(missing)
		sort.Strings(invalid)

		switch {
		case len(missing) > 0:
			return CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("Missing required configuration: %v", missing)}
		case len(invalid) > 0:
			return CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("Invalid URL configuration: %v", invalid)}
		}
		return CheckResult{Status: StatusHealthy, Message: "All required configuration present"}
	}
}

func isURLKey(key string) bool {
	return len(key) > 4 && key[len(key)-4:] == "_URL"
}

func isAbsoluteURL(value string) bool {
	u, err := url.Parse(value)
	return err == nil && u.Scheme != "" && u.Host != ""
}

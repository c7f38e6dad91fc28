package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	mu             sync.RWMutex
	RequestCount   int64            `json:"request_count"`
	ActiveRequests int64            `json:"active_requests"`
	ErrorCount     int64            `json:"error_count"`
	StatusCodes    map[string]int64 `json:"status_codes"`
	Endpoints      map[string]int64 `json:"endpoint_calls"`
	StartTime      time.Time        `json:"start_time"`
	LastRequest    time.Time        `json:"last_request"`
	totalDuration  time.Duration
}

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type HealthCheckFunc func(ctx context.Context) error

type HealthChecker struct {
	checks map[string]HealthCheckFunc
	mu     sync.RWMutex
}

var globalMetrics = &Metrics{
	StatusCodes: make(map[string]int64),
	Endpoints:   make(map[string]int64),
	StartTime:   time.Now(),
}

var globalHealthChecker = &HealthChecker{
	checks: make(map[string]HealthCheckFunc),
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests++
		globalMetrics.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests--
		globalMetrics.RequestCount++
		globalMetrics.totalDuration += duration
		globalMetrics.LastRequest = time.Now()
		globalMetrics.StatusCodes[status]++
		globalMetrics.Endpoints[c.Request.Method+" "+c.FullPath()]++
		if c.Writer.Status() >= http.StatusInternalServerError {
			globalMetrics.ErrorCount++
		}
		globalMetrics.mu.Unlock()
	}
}

// RegisterHealthCheck adds a named dependency probe run on every
// /health request.
func RegisterHealthCheck(name string, check HealthCheckFunc) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.checks[name] = check
}

func HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	globalHealthChecker.mu.RLock()
	defer globalHealthChecker.mu.RUnlock()

	overall := "healthy"
	results := make([]HealthCheck, 0, len(globalHealthChecker.checks))
	for name, check := range globalHealthChecker.checks {
		result := HealthCheck{Name: name, Status: "healthy", LastRun: time.Now()}
		if err := check(ctx); err != nil {
			result.Status = "unhealthy"
			result.Message = err.Error()
			overall = "unhealthy"
		}
		results = append(results, result)
	}

	status := http.StatusOK
	if overall != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": results,
		"uptime": time.Since(globalMetrics.StartTime).String(),
	})
}

func MetricsHandler(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	var avgDuration time.Duration
	if globalMetrics.RequestCount > 0 {
		avgDuration = globalMetrics.totalDuration / time.Duration(globalMetrics.RequestCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"request_count":        globalMetrics.RequestCount,
		"active_requests":      globalMetrics.ActiveRequests,
		"error_count":          globalMetrics.ErrorCount,
		"status_codes":         globalMetrics.StatusCodes,
		"endpoint_calls":       globalMetrics.Endpoints,
		"avg_request_duration": avgDuration.String(),
		"goroutines":           runtime.NumGoroutine(),
		"heap_alloc_bytes":     memStats.HeapAlloc,
		"uptime":               time.Since(globalMetrics.StartTime).String(),
	})
}

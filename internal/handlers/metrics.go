package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/services"
	"gorm.io/gorm"
)

var startTime = time.Now()

type MetricsHandler struct {
	db             *gorm.DB
	projectService *services.ProjectService
	redis          *services.RedisProbe
	queue          services.TaskQueue
	hub            *services.SSEHub
}

func NewMetricsHandler(db *gorm.DB, redis *services.RedisProbe, queue services.TaskQueue, hub *services.SSEHub) *MetricsHandler {
	return &MetricsHandler{
		db:             db,
		projectService: services.NewProjectService(db),
		redis:          redis,
		queue:          queue,
		hub:            hub,
	}
}

// Metrics returns Prometheus-compatible text format metrics.
// GET /metrics
func (h *MetricsHandler) Metrics(c *gin.Context) {
	var b strings.Builder

	// -- Runtime metrics --
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeGauge(&b, "marketplace_uptime_seconds", "Time since server start in seconds", time.Since(startTime).Seconds())
	writeGauge(&b, "marketplace_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "marketplace_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))
	writeGauge(&b, "marketplace_gc_runs_total", "Total number of GC runs", float64(m.NumGC))

	// -- Database metrics --
	if sqlDB, err := h.db.DB(); err == nil {
		stats := sqlDB.Stats()
		writeGauge(&b, "marketplace_db_open_connections", "Number of open DB connections", float64(stats.OpenConnections))
		writeGauge(&b, "marketplace_db_in_use_connections", "Number of in-use DB connections", float64(stats.InUse))
	}

	writeGauge(&b, "marketplace_sse_active_clients", "Number of active SSE connections", float64(h.hub.ClientCount()))
	writeGauge(&b, "marketplace_sse_dropped_events_total", "Events skipped for clients with a full buffer", float64(h.hub.Dropped()))

	// -- Queue metrics --
	queueAsync := 0.0
	if h.queue != nil && h.queue.IsAsync() {
		queueAsync = 1.0
	}
	writeGauge(&b, "marketplace_queue_async_enabled", "Whether async queue (Redis) is enabled (1=yes, 0=no)", queueAsync)
	if h.redis != nil {
		if depth, err := h.redis.QueueDepth(c.Request.Context()); err == nil {
			writeGauge(&b, "marketplace_queue_pending", "View tasks waiting in the queue", float64(depth))
		}
	}

	// -- Catalog metrics --
	if projects, reviews, views, err := h.projectService.Stats(c.Request.Context()); err == nil {
		writeGauge(&b, "marketplace_projects_total", "Number of listed projects", float64(projects))
		writeGauge(&b, "marketplace_reviews_total", "Number of reviews", float64(reviews))
		writeGauge(&b, "marketplace_project_views_total", "Sum of project view counters", float64(views))
	}

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}

package status

import (
	"context"
	"sync"
	"time"

	"github.com/benmeehan/iot-dashboard/internal/models"
	"github.com/benmeehan/iot-dashboard/internal/utils"
	"github.com/rs/zerolog"
)

// HealthMonitor gathers host health metrics on demand for the status
// endpoint. Collectors run concurrently on a shared worker pool so one
// slow reading cannot hold up the rest.
type HealthMonitor struct {
	collectors map[string]Collector
	workerPool *utils.WorkerPool
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewHealthMonitor creates an empty HealthMonitor. Register collectors
// before taking snapshots.
func NewHealthMonitor(timeout time.Duration, logger zerolog.Logger) *HealthMonitor {
	return &HealthMonitor{
		collectors: make(map[string]Collector),
		workerPool: utils.NewWorkerPool(4),
		timeout:    timeout,
		logger:     logger,
	}
}

// Register adds a collector to the monitor.
func (h *HealthMonitor) Register(collector Collector) {
	h.collectors[collector.Name()] = collector
}

// RegisterDefaultCollectors registers the standard host metrics.
func (h *HealthMonitor) RegisterDefaultCollectors() {
	h.Register(&CPUCollector{Logger: h.logger})
	h.Register(&MemoryCollector{Logger: h.logger})
	h.Register(&DiskCollector{Logger: h.logger})
	h.Register(&UptimeCollector{Logger: h.logger})
	h.Register(&GoroutineCollector{Logger: h.logger})
}

// Snapshot gathers all registered metrics concurrently. Collectors that
// fail or time out are left out of the result.
func (h *HealthMonitor) Snapshot(ctx context.Context) models.HostHealth {
	health := models.HostHealth{
		Timestamp: time.Now().UTC(),
		Metrics:   make(map[string]models.HealthMetric),
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var wg sync.WaitGroup
	metricsMutex := &sync.Mutex{}

	for name, collector := range h.collectors {
		// Copy the loop variables so each submitted closure sees its own
		// pair; required for per-iteration capture under go <= 1.21.
		name, collector := name, collector
		wg.Add(1)
		h.workerPool.Submit(func() {
			defer wg.Done()
			collectedValue := collector.Collect(ctx)
			if collectedValue == nil {
				return
			}

			metricsMutex.Lock()
			defer metricsMutex.Unlock()

			health.Metrics[name] = models.HealthMetric{
				Value: collectedValue,
				Unit:  collector.Unit(),
			}
		})
	}

	wg.Wait()
	return health
}

// Shutdown stops the worker pool. The monitor cannot be used afterwards.
func (h *HealthMonitor) Shutdown() {
	h.workerPool.Shutdown()
}

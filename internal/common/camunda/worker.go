// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"program-matcher/internal/common/config"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/common/metrics"
	"program-matcher/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
)

// HandlerFunc handles one activated job. ctx is the job span context.
type HandlerFunc func(ctx context.Context, client worker.JobClient, job entities.Job)

// WorkerPool opens job workers on one Zeebe client and closes them together.
type WorkerPool struct {
	client zbc.Client
	obs    *observability.Observability
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

// NewWorkerPool creates an empty pool. obs may be nil.
func NewWorkerPool(client zbc.Client, obs *observability.Observability, log logger.Logger) *WorkerPool {
	return &WorkerPool{
		client:  client,
		obs:     obs,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled in wcfg.
func (p *WorkerPool) Start(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) bool {
	if !wcfg.Enabled {
		p.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jobWorker := p.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, p.obs, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	p.mu.Lock()
	p.workers[taskType] = jobWorker
	p.mu.Unlock()

	p.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// Running lists the task types with an open worker.
func (p *WorkerPool) Running() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(p.workers))
	for t := range p.workers {
		types = append(types, t)
	}
	return types
}

func (p *WorkerPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for taskType, w := range p.workers {
		w.Close()
		w.AwaitClose()
		p.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	p.workers = make(map[string]worker.JobWorker)
}

// Instrument wraps handler in a span and records job duration on both the
// prometheus histogram and the otel instruments.
func Instrument(taskType string, obs *observability.Observability, handler HandlerFunc) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		ctx, span := obs.StartSpan(context.Background(), "job "+taskType,
			attribute.String("task_type", taskType),
			attribute.Int64("job_key", job.GetKey()),
		)
		defer span.End()

		start := time.Now()
		handler(ctx, client, job)
		elapsed := time.Since(start)

		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		obs.RecordJobDuration(ctx, taskType, elapsed, "handled")
		obs.RecordJobProcessed(ctx, taskType, "handled")
	}
}

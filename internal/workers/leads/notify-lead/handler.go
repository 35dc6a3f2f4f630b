// internal/workers/leads/notify-lead/handler.go
package notifylead

import (
	"context"
	"encoding/json"

	"program-matcher/internal/common/errors"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/common/metrics"
	"program-matcher/internal/leads"
	"program-matcher/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "notify-lead"
)

type Notifier interface {
	Notify(ctx context.Context, lead models.Lead) (leads.NotificationResult, error)
}

type Handler struct {
	config     *Config
	notifier   Notifier
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, n Notifier, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		notifier:   n,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

// Handle runs one job. ctx carries the job span opened by the worker pool.
func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError("parse input: " + err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Lead.ID == "" {
		return nil, errors.NewInvalidInputError("lead.id is required")
	}

	res, err := h.notifier.Notify(ctx, input.Lead)
	if err != nil {
		return nil, err
	}

	h.logger.Info("lead notifications processed", map[string]interface{}{
		"leadId": input.Lead.ID,
		"status": res.Status,
	})
	return &Output{
		NotificationStatus: res.Status,
		EmailMessageID:     res.EmailID,
		SMSMessageID:       res.SMSID,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

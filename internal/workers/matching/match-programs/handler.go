// internal/workers/matching/match-programs/handler.go
package matchprograms

import (
	"context"
	"encoding/json"
	"math"

	"program-matcher/internal/common/errors"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/common/metrics"
	"program-matcher/internal/matcher"
	"program-matcher/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "match-programs"
)

type Matcher interface {
	Match(ctx context.Context, pref models.Preference, source string) matcher.Result
}

type Handler struct {
	config     *Config
	matcher    Matcher
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, m Matcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		matcher:    m,
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
	if input.StudyField == "" || input.DegreeLevel == "" {
		return nil, errors.NewInvalidInputError("studyField and degreeLevel are required")
	}

	res := h.matcher.Match(ctx, input.Preference(), "worker")

	matches := res.Matches
	if h.config.TopN > 0 && len(matches) > h.config.TopN {
		matches = matches[:h.config.TopN]
	}

	out := &Output{
		MatchedPrograms:        matches,
		ThresholdScore:         res.ThresholdScore,
		ProgramsAboveThreshold: res.ProgramsAboveThreshold,
		TotalPrograms:          res.TotalPrograms,
		HasMatches:             len(matches) > 0,
	}
	if out.HasMatches && res.MaxPossibleScore > 0 {
		out.MatchScore = math.Round(matches[0].Score / res.MaxPossibleScore * 100)
	}
	if out.MatchedPrograms == nil {
		out.MatchedPrograms = []models.ScoredProgram{}
	}

	h.logger.Info("programs matched", map[string]interface{}{
		"studyField":    input.StudyField,
		"degreeLevel":   input.DegreeLevel,
		"matches":       len(matches),
		"matchScore":    out.MatchScore,
		"totalPrograms": res.TotalPrograms,
	})
	return out, nil
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

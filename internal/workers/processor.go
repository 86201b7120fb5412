package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
	"github.com/quietgrove/intently/internal/patterns"
	"github.com/quietgrove/intently/internal/queue"
	"github.com/quietgrove/intently/internal/services/ai"
)

// Processor consumes background jobs and runs the matching analysis. Failed
// jobs are dead-lettered rather than retried; the AI layer never retries a
// provider call.
type Processor struct {
	svc         *ai.Service
	commitments *database.CommitmentRepository
	patterns    *database.BehaviorPatternRepository
	logger      *zap.Logger
}

// NewProcessor creates a job processor
func NewProcessor(
	svc *ai.Service,
	commitments *database.CommitmentRepository,
	patternRepo *database.BehaviorPatternRepository,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		svc:         svc,
		commitments: commitments,
		patterns:    patternRepo,
		logger:      logger,
	}
}

// ProcessJob dispatches one message. Acks on success, dead-letters on
// failure or unknown type, and drops expired jobs.
func (p *Processor) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		p.logger.Info("job_expired",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to ack expired job: %w", err)
		}
		return nil
	}

	var err error
	switch job.Type {
	case queue.JobTypePriorityAnalysis:
		err = p.processPriorityAnalysis(ctx, job)
	case queue.JobTypeAutoReschedule:
		err = p.processAutoReschedule(ctx, job)
	case queue.JobTypePatternRefresh:
		err = p.processPatternRefresh(ctx, job)
	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		p.logger.Error("job_failed",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return err
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}

	p.logger.Info("job_processed",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)
	return nil
}

func (p *Processor) processPriorityAnalysis(ctx context.Context, job *queue.Job) error {
	if job.CommitmentID == nil {
		return fmt.Errorf("commitment_id is required for priority analysis")
	}

	commitment, err := p.commitments.GetByID(ctx, *job.CommitmentID)
	if err != nil {
		return fmt.Errorf("failed to get commitment: %w", err)
	}
	if commitment.Completed {
		// Nothing to prioritize anymore
		return nil
	}

	if _, err := p.svc.AnalyzePriority(ctx, job.UserID, *job.CommitmentID); err != nil {
		return fmt.Errorf("priority analysis failed: %w", err)
	}
	return nil
}

func (p *Processor) processAutoReschedule(ctx context.Context, job *queue.Job) error {
	if job.CommitmentID == nil {
		return fmt.Errorf("commitment_id is required for auto reschedule")
	}

	if _, err := p.svc.AutoReschedule(ctx, job.UserID, *job.CommitmentID); err != nil {
		return fmt.Errorf("auto reschedule failed: %w", err)
	}
	return nil
}

func (p *Processor) processPatternRefresh(ctx context.Context, job *queue.Job) error {
	all, err := p.commitments.GetByUserID(ctx, job.UserID, nil)
	if err != nil {
		return fmt.Errorf("failed to get commitments: %w", err)
	}

	var completed []*models.Commitment
	for _, c := range all {
		if c.Completed {
			completed = append(completed, c)
		}
	}

	pattern := patterns.Compute(job.UserID, completed, all)
	if err := p.patterns.Upsert(ctx, pattern); err != nil {
		return fmt.Errorf("failed to store behavior pattern: %w", err)
	}
	return nil
}

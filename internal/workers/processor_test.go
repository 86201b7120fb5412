package workers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quietgrove/intently/internal/queue"
)

// fakeMessage implements queue.MessageInterface with recorded outcomes
type fakeMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *fakeMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *fakeMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *fakeMessage) GetJob() *queue.Job {
	return m.job
}

func TestProcessJobExpired(t *testing.T) {
	t.Parallel()

	p := NewProcessor(nil, nil, nil, zap.NewNop())

	past := time.Now().Add(-time.Hour)
	job := queue.NewJob(queue.JobTypePatternRefresh, uuid.New(), nil)
	job.NotAfter = &past

	msg := &fakeMessage{job: job}
	if err := p.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !msg.acked {
		t.Error("Expected expired job to be acked")
	}
	if msg.nacked {
		t.Error("Expected expired job not to be nacked")
	}
}

func TestProcessJobUnknownType(t *testing.T) {
	t.Parallel()

	p := NewProcessor(nil, nil, nil, zap.NewNop())

	job := queue.NewJob(queue.JobType("tag_analysis"), uuid.New(), nil)
	msg := &fakeMessage{job: job}

	err := p.ProcessJob(context.Background(), msg)
	if err == nil {
		t.Fatal("Expected error for unknown job type")
	}
	if !strings.Contains(err.Error(), "unknown job type") {
		t.Errorf("Unexpected error: %v", err)
	}
	if !msg.nacked {
		t.Error("Expected unknown job to be nacked")
	}
	if msg.requeue {
		t.Error("Expected dead-letter nack, not requeue")
	}
	if msg.acked {
		t.Error("Expected unknown job not to be acked")
	}
}

func TestProcessJobMissingCommitmentID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		jobType queue.JobType
	}{
		{name: "priority analysis", jobType: queue.JobTypePriorityAnalysis},
		{name: "auto reschedule", jobType: queue.JobTypeAutoReschedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewProcessor(nil, nil, nil, zap.NewNop())
			msg := &fakeMessage{job: queue.NewJob(tt.jobType, uuid.New(), nil)}

			err := p.ProcessJob(context.Background(), msg)
			if err == nil {
				t.Fatal("Expected error for missing commitment id")
			}
			if !msg.nacked || msg.requeue {
				t.Error("Expected dead-letter nack without requeue")
			}
		})
	}
}

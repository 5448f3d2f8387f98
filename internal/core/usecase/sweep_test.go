package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

func TestSweepTransientTrashesTaggedArtifacts(t *testing.T) {
	store := &fileStoreFake{transient: []domain.SourceFile{
		{ID: "t1", Name: prefix + "one.pdf", Transient: true},
		{ID: "t2", Name: prefix + "two.pdf", Transient: true},
	}}

	count, err := NewSweepTransientUseCase(store, nil).SweepTransient(context.Background())
	if err != nil {
		t.Fatalf("SweepTransient() error = %v", err)
	}
	if count != 2 || len(store.trashed) != 2 {
		t.Fatalf("expected 2 trashed, got count=%d trashed=%v", count, store.trashed)
	}
}

func TestSweepTransientCountsOnlySuccessfulTrash(t *testing.T) {
	store := &fileStoreFake{
		transient: []domain.SourceFile{{ID: "t1", Transient: true}},
		trashErr:  errors.New("forbidden"),
	}

	count, err := NewSweepTransientUseCase(store, nil).SweepTransient(context.Background())
	if err != nil {
		t.Fatalf("SweepTransient() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 trashed, got %d", count)
	}
}

type queueFake struct {
	published []string
	err       error
}

func (q *queueFake) PublishRunRequested(_ context.Context, runID string) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, runID)
	return nil
}

func (q *queueFake) SubscribeRunRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestRequestRunPublishesGeneratedID(t *testing.T) {
	queue := &queueFake{}
	runID, err := NewRequestRunUseCase(queue).RequestRun(context.Background())
	if err != nil {
		t.Fatalf("RequestRun() error = %v", err)
	}
	if runID == "" || len(queue.published) != 1 || queue.published[0] != runID {
		t.Fatalf("unexpected publish: id=%q published=%v", runID, queue.published)
	}
}

func TestRequestRunPropagatesQueueError(t *testing.T) {
	queue := &queueFake{err: errors.New("nats down")}
	if _, err := NewRequestRunUseCase(queue).RequestRun(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

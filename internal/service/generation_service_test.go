package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newsdesk/internal/db"
)

// fakeGenerator 逐条应答生成请求，可按选题标题定制失败。
type fakeGenerator struct {
	failFor map[string]error
	calls   []GenerateInput
}

func (f *fakeGenerator) GenerateDraft(_ context.Context, input GenerateInput) (WriterResult, error) {
	f.calls = append(f.calls, input)
	if err, ok := f.failFor[input.TopicTitle]; ok {
		return WriterResult{}, err
	}
	return WriterResult{
		Title:   "生成:" + input.TopicTitle,
		Content: "# 生成:" + input.TopicTitle + "\n\n正文。",
		Summary: "摘要。",
	}, nil
}

func newGenerationTestService(t *testing.T, generator *fakeGenerator) (*GenerationService, *TopicService, *DraftService) {
	t.Helper()
	gdb := setupTestDB(t)
	locks := NewLockService()
	topics := NewTopicService(gdb, locks, &fakeScanner{})
	drafts := NewDraftService(gdb)
	svc := NewGenerationService(gdb, locks, topics, generator, drafts, nil)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, title := range []string{"选题一", "选题二", "选题三"} {
		topic := db.Topic{Title: title, Category: "宏观", Status: db.TopicPending, DetectedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := gdb.Create(&topic).Error; err != nil {
			t.Fatalf("failed to seed topic: %v", err)
		}
	}

	return svc, topics, drafts
}

func TestGenerateFromTopicsCreatesDrafts(t *testing.T) {
	generator := &fakeGenerator{}
	svc, topics, drafts := newGenerationTestService(t, generator)

	result, err := svc.GenerateFromTopics(context.Background(), db.ModeFactual, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Created) != 3 || len(result.Failed) != 0 {
		t.Fatalf("expected 3 drafts created, got %+v", result)
	}
	if len(generator.calls) != 3 {
		t.Fatalf("expected 3 generator calls, got %d", len(generator.calls))
	}

	list, err := drafts.List(DraftFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.Total != 3 {
		t.Fatalf("expected 3 drafts, got %d", list.Total)
	}
	for _, draft := range list.Drafts {
		if draft.Status != db.StatusDraft || draft.ReviewStatus != db.ReviewPending {
			t.Fatalf("generated draft must start at draft/pending, got %q/%q", draft.Status, draft.ReviewStatus)
		}
		if draft.TopicID == nil {
			t.Fatal("generated draft must reference its topic")
		}
	}

	// 消费过的选题离开待处理队列。
	pending, err := topics.ListPending(0)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending topics after generation, got %d", len(pending))
	}
}

func TestGenerateFromTopicsPartialFailure(t *testing.T) {
	generator := &fakeGenerator{failFor: map[string]error{"选题二": errors.New("model refused")}}
	svc, topics, _ := newGenerationTestService(t, generator)

	result, err := svc.GenerateFromTopics(context.Background(), db.ModeFactual, 10)
	if err != nil {
		t.Fatalf("batch must survive per-topic failures: %v", err)
	}
	if len(result.Created) != 2 || len(result.Failed) != 1 {
		t.Fatalf("expected 2 created and 1 failed, got %+v", result)
	}

	// 失败的选题留在队列里，等待下一轮。
	pending, err := topics.ListPending(0)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Title != "选题二" {
		t.Fatalf("failed topic must stay pending, got %+v", pending)
	}
}

func TestGenerateFromTopicsRespectsLimit(t *testing.T) {
	generator := &fakeGenerator{}
	svc, topics, _ := newGenerationTestService(t, generator)

	result, err := svc.GenerateFromTopics(context.Background(), db.ModeOpinion, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Created) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(result.Created))
	}
	if generator.calls[0].Mode != db.ModeOpinion {
		t.Fatalf("expected opinion mode to be passed through, got %q", generator.calls[0].Mode)
	}

	pending, err := topics.ListPending(0)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 topics untouched, got %d", len(pending))
	}
}

func TestGenerateFromTopicsInvalidMode(t *testing.T) {
	svc, _, _ := newGenerationTestService(t, &fakeGenerator{})

	if _, err := svc.GenerateFromTopics(context.Background(), "haiku", 5); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestGenerateFromTopicsRejectedWhileLocked(t *testing.T) {
	gdb := setupTestDB(t)
	locks := NewLockService()
	topics := NewTopicService(gdb, locks, &fakeScanner{})
	svc := NewGenerationService(gdb, locks, topics, &fakeGenerator{}, NewDraftService(gdb), nil)

	if !locks.TryAcquire(LockKeyGeneration, "other-batch") {
		t.Fatal("failed to pre-acquire lock")
	}
	defer locks.Release(LockKeyGeneration)

	if _, err := svc.GenerateFromTopics(context.Background(), db.ModeFactual, 5); !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("expected ErrGenerationInProgress, got %v", err)
	}
}

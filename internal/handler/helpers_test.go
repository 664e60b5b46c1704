package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk/internal/db"
	"github.com/newsdesk/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// syncReviser 同步返回固定修订结果，配合同步派发器使用。
type syncReviser struct {
	result service.WriterResult
	err    error
}

func (r *syncReviser) ReviseDraft(_ context.Context, _ service.ReviseInput) (service.WriterResult, error) {
	if r.err != nil {
		return service.WriterResult{}, r.err
	}
	return r.result, nil
}

// stubGenerator 为每个选题返回固定草稿。
type stubGenerator struct{}

func (stubGenerator) GenerateDraft(_ context.Context, input service.GenerateInput) (service.WriterResult, error) {
	return service.WriterResult{
		Title:   input.TopicTitle,
		Content: "# " + input.TopicTitle + "\n\n正文。",
		Summary: "正文。",
	}, nil
}

// stubScanner 返回固定选题列表。
type stubScanner struct {
	topics []service.ScannedTopic
}

func (s *stubScanner) Scan(_ context.Context) ([]service.ScannedTopic, error) {
	return s.topics, nil
}

// stubPublisher 以固定回执应答社交分发。
type stubPublisher struct {
	result service.SocialPostResult
	err    error
}

func (p *stubPublisher) Post(_ context.Context, _, _ string) (service.SocialPostResult, error) {
	if p.err != nil {
		return service.SocialPostResult{}, p.err
	}
	return p.result, nil
}

type testEnv struct {
	api       *API
	router    *gin.Engine
	db        *gorm.DB
	reviser   *syncReviser
	scanner   *stubScanner
	publisher *stubPublisher
}

// newTestEnv 搭建完整的服务栈与不带会话校验的测试路由。
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.User{}, &db.Draft{}, &db.DraftRevision{}, &db.Topic{}, &db.SystemSetting{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	locks := service.NewLockService()
	system := service.NewSystemSettingService(gdb)
	drafts := service.NewDraftService(gdb)
	reviews := service.NewReviewService(gdb)

	reviser := &syncReviser{result: service.WriterResult{
		Title:   "修订标题",
		Content: "# 修订标题\n\n修订正文。",
		Summary: "修订正文。",
	}}
	revisions := service.NewRevisionService(gdb, reviser, reviews)
	revisions.SetDispatcher(func(job func()) { job() })

	scanner := &stubScanner{}
	topics := service.NewTopicService(gdb, locks, scanner)
	generate := service.NewGenerationService(gdb, locks, topics, stubGenerator{}, drafts, nil)

	siteCfg := service.SlotConfig{IntervalMinutes: 30, StartHour: 9, EndHour: 18}
	site := service.NewSiteSchedulerService(gdb, locks, siteCfg, true)

	publisher := &stubPublisher{result: service.SocialPostResult{PostID: "post-1"}}
	socialCfg := service.SlotConfig{IntervalMinutes: 60, StartHour: 0, EndHour: 24}
	social := service.NewSocialSchedulerService(gdb, locks, publisher, socialCfg, "https://news.example.com", true)

	api := NewAPI(gdb, Options{
		Drafts:    drafts,
		Reviews:   reviews,
		Revisions: revisions,
		Topics:    topics,
		Generate:  generate,
		Site:      site,
		Social:    social,
		System:    system,
		UploadDir: t.TempDir(),
		UploadURL: "/static/uploads",
	})

	r := gin.New()
	r.GET("/healthz", api.HealthCheck)
	apiGroup := r.Group("/admin/api")
	{
		apiGroup.GET("/drafts", api.ListDrafts)
		apiGroup.POST("/drafts", api.CreateDraft)
		apiGroup.GET("/drafts/:id", api.GetDraft)
		apiGroup.PUT("/drafts/:id", api.UpdateDraft)
		apiGroup.DELETE("/drafts/:id", api.RejectDraft)
		apiGroup.GET("/drafts/:id/preview", api.PreviewDraft)
		apiGroup.POST("/drafts/:id/review-status", api.TransitionReviewStatus)
		apiGroup.POST("/drafts/:id/publish", api.PublishDraft)
		apiGroup.POST("/drafts/:id/schedule", api.ScheduleDraft)
		apiGroup.POST("/drafts/:id/share", api.ShareDraftNow)
		apiGroup.POST("/drafts/:id/revision", api.RequestRevision)
		apiGroup.GET("/drafts/:id/revision", api.PollRevision)
		apiGroup.POST("/drafts/:id/revision/apply", api.ApplyRevision)
		apiGroup.DELETE("/drafts/:id/revision", api.DiscardRevision)
		apiGroup.GET("/topics", api.ListTopics)
		apiGroup.POST("/topics/scan", api.ScanTopics)
		apiGroup.POST("/topics/generate", api.GenerateDrafts)
		apiGroup.POST("/schedule/recalculate", api.RecalculateSchedule)
		apiGroup.POST("/social/run", api.RunSocialSchedule)
		apiGroup.GET("/counts", api.GetPendingCounts)
		apiGroup.GET("/settings", api.GetSystemSettings)
		apiGroup.PUT("/settings", api.UpdateSystemSettings)
		apiGroup.POST("/upload", api.UploadImage)
	}

	return &testEnv{
		api:       api,
		router:    r,
		db:        gdb,
		reviser:   reviser,
		scanner:   scanner,
		publisher: publisher,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var parsed map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return parsed
}

func (e *testEnv) seedDraft(t *testing.T, mutate func(*db.Draft)) *db.Draft {
	t.Helper()
	draft := &db.Draft{
		Title:        "测试草稿",
		Content:      "# 测试草稿\n\n正文内容。",
		Summary:      "正文内容。",
		Mode:         db.ModeFactual,
		Status:       db.StatusDraft,
		ReviewStatus: db.ReviewPending,
		ShareStatus:  db.ShareNone,
	}
	if mutate != nil {
		mutate(draft)
	}
	if err := e.db.Create(draft).Error; err != nil {
		t.Fatalf("failed to seed draft: %v", err)
	}
	return draft
}

// Package metrics 聚合流水线各环节的 Prometheus 计数器。
// 计数在状态迁移发生的瞬间递增，而不是靠轮询反推。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DraftApprovals 统计审核通过次数。
	DraftApprovals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_draft_approvals_total",
		Help: "Number of drafts that entered the approved review state.",
	})

	// DraftPublishes 统计站点发布次数。
	DraftPublishes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_draft_publishes_total",
		Help: "Number of drafts published to the site.",
	})

	// RevisionJobs 按结果统计 AI 修订任务。
	RevisionJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_revision_jobs_total",
		Help: "AI revision jobs grouped by outcome.",
	}, []string{"result"})

	// SocialShares 按结果统计社交分发。
	SocialShares = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_social_shares_total",
		Help: "Social share attempts grouped by outcome.",
	}, []string{"result"})

	// ScheduledSlots 统计两类排期器写入的时间槽数量。
	ScheduledSlots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_scheduled_slots_total",
		Help: "Slots stamped onto records grouped by scheduler.",
	}, []string{"scheduler"})
)

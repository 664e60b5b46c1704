package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SchedulerConfig 描述一类排期器的时间窗参数。
type SchedulerConfig struct {
	Enabled         bool
	IntervalMinutes int
	StartHour       int
	EndHour         int
	MaxPerDay       int
}

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	SuperRootUserName string
	SuperRootPassword string
	SiteBaseURL       string
	TopicScanURL      string
	SitePublish       SchedulerConfig
	SocialShare       SchedulerConfig
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "newsdesk.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "newsdesk-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static/uploads"
	}

	siteBaseURL := strings.TrimSpace(os.Getenv("SITE_BASE_URL"))
	if siteBaseURL == "" {
		siteBaseURL = "https://newsdesk.example.com"
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      databasePath,
		SessionSecret:     sessionSecret,
		GinMode:           ginMode,
		UploadDir:         uploadDir,
		UploadURLPath:     uploadURLPath,
		SuperRootUserName: strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword: strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
		SiteBaseURL:       siteBaseURL,
		TopicScanURL:      strings.TrimSpace(os.Getenv("TOPIC_SCAN_URL")),
		SitePublish: SchedulerConfig{
			Enabled:         envBool("SITE_PUBLISH_ENABLED", true),
			IntervalMinutes: envInt("SITE_PUBLISH_INTERVAL_MINUTES", 60),
			StartHour:       envInt("SITE_PUBLISH_START_HOUR", 9),
			EndHour:         envInt("SITE_PUBLISH_END_HOUR", 18),
			MaxPerDay:       envInt("SITE_PUBLISH_MAX_PER_DAY", 0),
		},
		SocialShare: SchedulerConfig{
			Enabled:         envBool("SOCIAL_SHARE_ENABLED", true),
			IntervalMinutes: envInt("SOCIAL_SHARE_INTERVAL_MINUTES", 120),
			StartHour:       envInt("SOCIAL_SHARE_START_HOUR", 10),
			EndHour:         envInt("SOCIAL_SHARE_END_HOUR", 21),
			MaxPerDay:       envInt("SOCIAL_SHARE_MAX_PER_DAY", 4),
		},
	}
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

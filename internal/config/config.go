package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// GitHub project
	GitHubToken    string
	Organization   string
	ProjectNumber  int
	GitHubEndpoint string
	ItemFilter     string

	// Snapshot storage
	StorageDir     string
	StoragePath    string
	StorageBranch  string
	CommitterName  string
	CommitterEmail string

	// Status buckets for categorization
	StartedStatuses []string
	DoneStatuses    []string
	BlockedStatuses []string
	ReviewStatuses  []string
	BacklogStatuses []string

	// Slack
	SlackToken   string
	SlackChannel string

	// Machine-readable outputs
	OutputDir string

	// Run archive - empty disables it
	DatabaseURL string

	// Publish journal - empty disables it
	RedisURL string

	// Search index - empty disables it
	MeiliURL       string
	MeiliMasterKey string

	// Artifact storage - empty endpoint disables it
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// SMTP - empty by default, email disabled if not configured
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTo       []string
}

func Load() Config {
	return Config{
		GitHubToken:    getenv("GITHUB_TOKEN", ""),
		Organization:   getenv("BOARDWATCH_ORGANIZATION", ""),
		ProjectNumber:  getenvInt("BOARDWATCH_PROJECT_NUMBER", 0),
		GitHubEndpoint: getenv("BOARDWATCH_GITHUB_ENDPOINT", ""),
		ItemFilter:     getenv("BOARDWATCH_ITEM_FILTER", ""),

		StorageDir:     getenv("BOARDWATCH_STORAGE_DIR", "./data/board"),
		StoragePath:    getenv("BOARDWATCH_STORAGE_PATH", "snapshot.json"),
		StorageBranch:  getenv("BOARDWATCH_STORAGE_BRANCH", "main"),
		CommitterName:  getenv("BOARDWATCH_COMMITTER_NAME", "boardwatch"),
		CommitterEmail: getenv("BOARDWATCH_COMMITTER_EMAIL", "boardwatch@localhost"),

		StartedStatuses: getenvList("BOARDWATCH_STARTED_STATUSES", []string{"In Progress", "Active"}),
		DoneStatuses:    getenvList("BOARDWATCH_DONE_STATUSES", []string{"Done", "Completed"}),
		BlockedStatuses: getenvList("BOARDWATCH_BLOCKED_STATUSES", []string{"Blocked"}),
		ReviewStatuses:  getenvList("BOARDWATCH_REVIEW_STATUSES", []string{"In Review", "Review"}),
		BacklogStatuses: getenvList("BOARDWATCH_BACKLOG_STATUSES", []string{"Backlog"}),

		SlackToken:   getenv("SLACK_TOKEN", ""),
		SlackChannel: getenv("SLACK_CHANNEL", ""),

		OutputDir: getenv("BOARDWATCH_OUTPUT_DIR", "./out"),

		DatabaseURL: getenv("DATABASE_URL", ""),
		RedisURL:    getenv("REDIS_URL", ""),

		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "boardwatch"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),
		SMTPFromName: getenv("SMTP_FROM_NAME", "Boardwatch"),
		SMTPTo:       getenvList("SMTP_TO", nil),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

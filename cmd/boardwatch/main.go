package main

import (
	"context"
	"log"
	"strings"
	"time"

	"boardwatch/internal/app"
	"boardwatch/internal/archive"
	"boardwatch/internal/artifact"
	"boardwatch/internal/config"
	"boardwatch/internal/email"
	"boardwatch/internal/fetch"
	"boardwatch/internal/journal"
	"boardwatch/internal/notify"
	"boardwatch/internal/output"
	"boardwatch/internal/report"
	"boardwatch/internal/search"
	"boardwatch/internal/storage"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.GitHubToken == "" {
		log.Fatal("GITHUB_TOKEN is required")
	}
	if cfg.Organization == "" || cfg.ProjectNumber == 0 {
		log.Fatal("BOARDWATCH_ORGANIZATION and BOARDWATCH_PROJECT_NUMBER are required")
	}

	store := storage.New(cfg.StorageDir, cfg.StoragePath, cfg.CommitterName, cfg.CommitterEmail, cfg.StorageBranch)
	fetcher := fetch.NewClient(cfg.GitHubToken, cfg.Organization, cfg.ProjectNumber, cfg.GitHubEndpoint)

	filter, err := fetch.ParseFilter(cfg.ItemFilter)
	if err != nil {
		log.Fatalf("invalid item filter: %v", err)
	}

	renderer := report.New(report.Buckets{
		Started: cfg.StartedStatuses,
		Done:    cfg.DoneStatuses,
		Blocked: cfg.BlockedStatuses,
		Review:  cfg.ReviewStatuses,
		Backlog: cfg.BacklogStatuses,
	})

	opts := app.Options{
		Filter:   filter,
		Notifier: notify.NewSlack(cfg.SlackToken, cfg.SlackChannel, ""),
		Output:   output.NewWriter(cfg.OutputDir),
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := archive.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()
		if err := archive.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("archive schema failed: %v", err)
		}
		opts.Archive = archive.New(db)
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisJournal, err := journal.NewRedisJournal(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		opts.Journal = redisJournal
	}

	if strings.TrimSpace(cfg.MeiliURL) != "" {
		if index := search.NewIndex(cfg.MeiliURL, cfg.MeiliMasterKey); index != nil {
			opts.Indexer = index
		}
	}

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		objectStore, err := artifact.NewObjectStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
		opts.Artifact = objectStore
	}

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		To:       cfg.SMTPTo,
	})
	if mailer.IsConfigured() {
		opts.Email = mailer
	}

	service := app.New(store, fetcher, renderer, opts)
	result, err := service.Run(ctx)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	if result.FirstRun {
		log.Printf("run %s seeded baseline with %d items", result.RunID, result.ItemCount)
		return
	}
	log.Printf("run %s finished: %d added, %d removed, %d changed, %d closed, published=%t",
		result.RunID, len(result.Diff.Added), len(result.Diff.Removed), len(result.Diff.Changed), len(result.Diff.Closed), result.Published)
}

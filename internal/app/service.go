// Package app sequences one tracker run: load the stored snapshot, fetch the
// live board, persist the new observation, then diff, render and publish.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"boardwatch/internal/archive"
	"boardwatch/internal/diff"
	"boardwatch/internal/report"
	"boardwatch/internal/snapshot"
	"boardwatch/internal/storage"
)

type snapshotStorage interface {
	Read() ([]byte, string, error)
	Write(raw []byte, contentID, message string) (string, error)
}

type itemFetcher interface {
	List(ctx context.Context) (*snapshot.Snapshot, error)
}

type itemFilter interface {
	Apply(items *snapshot.Snapshot) *snapshot.Snapshot
}

type notifier interface {
	Send(ctx context.Context, msg string) error
}

type emailSender interface {
	IsConfigured() bool
	SendUpdate(runID, report string) error
}

type publishJournal interface {
	MarkPublished(ctx context.Context, runID string) (bool, error)
}

type runArchive interface {
	RecordRun(ctx context.Context, record archive.RunRecord) error
}

type itemIndexer interface {
	IndexItems(items *snapshot.Snapshot) error
}

type artifactStore interface {
	UploadRun(ctx context.Context, runID, summary string, diffJSON []byte) error
}

type outputWriter interface {
	WriteDiff(d diff.Diff) error
	WriteUpdates(report string) error
}

// Service runs the tracker pipeline. Only storage, fetcher and renderer are
// required; every other collaborator is optional and skipped when nil.
type Service struct {
	storage  snapshotStorage
	fetcher  itemFetcher
	filter   itemFilter
	renderer *report.Renderer
	notify   notifier
	email    emailSender
	journal  publishJournal
	archive  runArchive
	index    itemIndexer
	artifact artifactStore
	output   outputWriter
	now      func() time.Time
}

// Options carries the optional collaborators for New.
type Options struct {
	Filter   itemFilter
	Notifier notifier
	Email    emailSender
	Journal  publishJournal
	Archive  runArchive
	Indexer  itemIndexer
	Artifact artifactStore
	Output   outputWriter
}

func New(store snapshotStorage, fetcher itemFetcher, renderer *report.Renderer, opts Options) *Service {
	return &Service{
		storage:  store,
		fetcher:  fetcher,
		filter:   opts.Filter,
		renderer: renderer,
		notify:   opts.Notifier,
		email:    opts.Email,
		journal:  opts.Journal,
		archive:  opts.Archive,
		index:    opts.Indexer,
		artifact: opts.Artifact,
		output:   opts.Output,
		now:      time.Now,
	}
}

// RunResult summarizes what one pipeline run did.
type RunResult struct {
	RunID     string
	FirstRun  bool
	ItemCount int
	Diff      diff.Diff
	Report    string
	Published bool
}

// Run executes one pass. A load, fetch or save failure aborts the run; the
// stored snapshot is never overwritten unless the fetch succeeded. Publish
// side channels past the required ones degrade to warnings.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	var (
		prev     *snapshot.Snapshot
		prevMeta snapshot.Metadata
		firstRun bool
	)

	raw, contentID, err := s.storage.Read()
	switch {
	case errors.Is(err, storage.ErrNotFound):
		firstRun = true
	case err != nil:
		return nil, stageError(StageLoad, err)
	default:
		prev, prevMeta, err = snapshot.Decode(raw)
		if err != nil {
			return nil, stageError(StageLoad, err)
		}
	}

	next, err := s.fetcher.List(ctx)
	if err != nil {
		return nil, stageError(StageFetch, err)
	}
	if s.filter != nil {
		next = s.filter.Apply(next)
	}

	now := s.now()
	var loadedMeta *snapshot.Metadata
	if !firstRun {
		loadedMeta = &prevMeta
	}
	envelope := snapshot.Build(next, loadedMeta, now)
	runID := snapshot.RunID(now)

	encoded, err := envelope.Encode()
	if err != nil {
		return nil, stageError(StageSave, err)
	}
	message := fmt.Sprintf("boardwatch: update snapshot (run %s)", runID)
	if _, err := s.storage.Write(encoded, contentID, message); err != nil {
		return nil, stageError(StageSave, err)
	}

	result := &RunResult{
		RunID:     runID,
		FirstRun:  firstRun,
		ItemCount: next.Len(),
	}

	if firstRun {
		result.Report = s.renderer.FirstRun(next)
		log.Printf("app: first run, imported %d items", next.Len())
		if s.output != nil {
			if err := s.output.WriteUpdates(result.Report); err != nil {
				return result, stageError(StagePublish, err)
			}
		}
		s.recordRun(ctx, result, now)
		s.indexItems(next)
		return result, nil
	}

	result.Diff = diff.Compute(prev, next)
	result.Report = s.renderer.RenderDiff(result.Diff, &prevMeta)

	if s.output != nil {
		if err := s.output.WriteDiff(result.Diff); err != nil {
			return result, stageError(StagePublish, err)
		}
		if err := s.output.WriteUpdates(result.Report); err != nil {
			return result, stageError(StagePublish, err)
		}
	}

	if err := s.publish(ctx, result); err != nil {
		return result, err
	}

	s.recordRun(ctx, result, now)
	s.indexItems(next)
	s.uploadArtifacts(ctx, result)
	return result, nil
}

// publish sends the chat and email notifications once per run id. An empty
// report publishes nothing.
func (s *Service) publish(ctx context.Context, result *RunResult) error {
	if result.Report == "" {
		log.Printf("app: run %s produced no changes", result.RunID)
		return nil
	}

	if s.journal != nil {
		first, err := s.journal.MarkPublished(ctx, result.RunID)
		if err != nil {
			return stageError(StagePublish, err)
		}
		if !first {
			log.Printf("app: run %s already published, skipping notifications", result.RunID)
			return nil
		}
	}

	if s.notify != nil {
		cleaned := report.CleanForChat(result.Report)
		if err := s.notify.Send(ctx, cleaned); err != nil {
			return stageError(StagePublish, err)
		}
	}
	if s.email != nil && s.email.IsConfigured() {
		if err := s.email.SendUpdate(result.RunID, result.Report); err != nil {
			log.Printf("app: email delivery failed for run %s: %v", result.RunID, err)
		}
	}

	result.Published = true
	return nil
}

func (s *Service) recordRun(ctx context.Context, result *RunResult, completedAt time.Time) {
	if s.archive == nil {
		return
	}
	record := archive.RunRecord{
		RunID:       result.RunID,
		CompletedAt: completedAt,
		FirstRun:    result.FirstRun,
		ItemCount:   result.ItemCount,
		Diff:        result.Diff,
		Summary:     result.Report,
	}
	if err := s.archive.RecordRun(ctx, record); err != nil {
		log.Printf("app: archive failed for run %s: %v", result.RunID, err)
	}
}

func (s *Service) indexItems(items *snapshot.Snapshot) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexItems(items); err != nil {
		log.Printf("app: search indexing failed: %v", err)
	}
}

func (s *Service) uploadArtifacts(ctx context.Context, result *RunResult) {
	if s.artifact == nil || result.Report == "" {
		return
	}
	diffJSON, err := json.MarshalIndent(result.Diff, "", "  ")
	if err != nil {
		log.Printf("app: encode diff artifact for run %s: %v", result.RunID, err)
		return
	}
	if err := s.artifact.UploadRun(ctx, result.RunID, result.Report, diffJSON); err != nil {
		log.Printf("app: artifact upload failed for run %s: %v", result.RunID, err)
	}
}

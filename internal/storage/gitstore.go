// Package storage persists the board snapshot as a JSON file committed to a
// git repository. The file's blob hash is the content identifier used for
// compare-and-swap on write, and every commit message carries the run id, so
// the repository history doubles as an audit trail of runs.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotFound marks the first-run signal: no repository, no branch, or no
// snapshot file yet. Any other read failure is not a first-run signal.
var ErrNotFound = errors.New("snapshot not found")

// ErrConflict is returned when the stored snapshot moved underneath the
// caller between read and write.
var ErrConflict = errors.New("snapshot content identifier mismatch")

type Store struct {
	dir    string
	file   string
	branch string
	name   string
	email  string
	mu     sync.Mutex
}

// New creates a store rooted at dir committing file on branch. branch
// defaults to main.
func New(dir, file, committerName, committerEmail, branch string) *Store {
	if branch == "" {
		branch = "main"
	}
	return &Store{
		dir:    dir,
		file:   file,
		branch: branch,
		name:   committerName,
		email:  committerEmail,
	}
}

// Read returns the raw snapshot bytes and the blob hash identifying them.
func (s *Store) Read() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("open repo: %w", err)
	}

	commit, err := s.headCommit(repo)
	if err != nil {
		return nil, "", err
	}

	file, err := commit.File(s.file)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("load %s from commit: %w", s.file, err)
	}

	reader, err := file.Reader()
	if err != nil {
		return nil, "", fmt.Errorf("open snapshot reader: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("read snapshot bytes: %w", err)
	}
	return raw, file.Hash.String(), nil
}

// Write commits raw as the new snapshot. contentID must match the blob hash
// returned by the Read that preceded it, or be empty on the first write.
// Returns the new content identifier.
func (s *Store) Write(raw []byte, contentID, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, fresh, err := s.openOrInit()
	if err != nil {
		return "", err
	}

	if !fresh {
		current, err := s.currentContentID(repo)
		if err != nil {
			return "", err
		}
		if current != contentID {
			return "", fmt.Errorf("%w: have %s, expected %s", ErrConflict, current, contentID)
		}
		if err := s.checkoutBranch(repo); err != nil {
			return "", err
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}

	target := filepath.Join(s.dir, filepath.FromSlash(s.file))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(target, raw, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot file: %w", err)
	}
	if _, err := worktree.Add(s.file); err != nil {
		return "", fmt.Errorf("git add snapshot: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.name,
			Email: s.email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}

	if fresh {
		branchRef := plumbing.NewBranchReferenceName(s.branch)
		if err := repo.Storer.SetReference(plumbing.NewHashReference(branchRef, hash)); err != nil {
			return "", fmt.Errorf("set branch ref: %w", err)
		}
		if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)); err != nil {
			return "", fmt.Errorf("set HEAD: %w", err)
		}
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return "", fmt.Errorf("read commit object: %w", err)
	}
	file, err := commit.File(s.file)
	if err != nil {
		return "", fmt.Errorf("read committed snapshot: %w", err)
	}
	return file.Hash.String(), nil
}

// History returns the most recent commit messages on the snapshot branch,
// newest first.
func (s *Store) History(limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName(s.branch), true)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", s.branch, err)
	}
	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var messages []string
	err = iter.ForEach(func(commit *object.Commit) error {
		messages = append(messages, commit.Message)
		if limit > 0 && len(messages) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return messages, nil
}

// openOrInit opens the repository, initializing it on first use. fresh is
// true when the snapshot branch has no commits yet.
func (s *Store) openOrInit() (*git.Repository, bool, error) {
	repo, err := git.PlainOpen(s.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("create repo dir: %w", err)
		}
		repo, err = git.PlainInit(s.dir, false)
		if err != nil {
			return nil, false, fmt.Errorf("init repo: %w", err)
		}
		return repo, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open repo: %w", err)
	}

	if _, err := repo.Reference(plumbing.NewBranchReferenceName(s.branch), true); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return repo, true, nil
		}
		return nil, false, fmt.Errorf("resolve branch %s: %w", s.branch, err)
	}
	return repo, false, nil
}

func (s *Store) headCommit(repo *git.Repository) (*object.Commit, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(s.branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", s.branch, err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("load commit object: %w", err)
	}
	return commit, nil
}

// currentContentID reads the blob hash of the snapshot file at the branch
// head, or "" when the file does not exist yet.
func (s *Store) currentContentID(repo *git.Repository) (string, error) {
	commit, err := s.headCommit(repo)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	file, err := commit.File(s.file)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s from commit: %w", s.file, err)
	}
	return file.Hash.String(), nil
}

func (s *Store) checkoutBranch(repo *git.Repository) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	branchRef := plumbing.NewBranchReferenceName(s.branch)
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
		return fmt.Errorf("checkout branch %s: %w", s.branch, err)
	}
	return nil
}

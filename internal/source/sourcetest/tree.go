// Package sourcetest provides an in-memory source.Source for tests.
package sourcetest

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/modscan/internal/source"
)

// Tree is an in-memory remote tree. The zero value is not usable; call New.
type Tree struct {
	mu       sync.Mutex
	repos    map[string][]source.Repository
	branches map[string]*branch
	failures map[string]error
	calls    []string
	budget   int
	modified time.Time
}

type branch struct {
	files map[string][]byte
	dirs  map[string]struct{}
}

var _ source.Source = (*Tree)(nil)

// New returns an empty Tree with no rate limit.
func New() *Tree {
	return &Tree{
		repos:    make(map[string][]source.Repository),
		branches: make(map[string]*branch),
		failures: make(map[string]error),
		budget:   -1,
		modified: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// AddRepository registers repo under org and returns it with FullName filled in.
func (t *Tree) AddRepository(org string, repo source.Repository) source.Repository {
	t.mu.Lock()
	defer t.mu.Unlock()

	if repo.FullName == "" {
		repo.FullName = org + "/" + repo.Name
	}
	t.repos[org] = append(t.repos[org], repo)
	return repo
}

// RemoveRepository drops the repository called name from org.
func (t *Tree) RemoveRepository(org, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.repos[org] = slices.DeleteFunc(t.repos[org], func(r source.Repository) bool {
		return r.Name == name
	})
}

// AddBranch creates an empty branch.
func (t *Tree) AddBranch(fullName, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.branchLocked(fullName, name)
}

// AddDir creates the directory p and its parents on a branch, creating the branch if needed.
func (t *Tree) AddDir(fullName, branchName, p string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.branchLocked(fullName, branchName)
	for dir := p; dir != "." && dir != "" && dir != "/"; dir = path.Dir(dir) {
		b.dirs[dir] = struct{}{}
	}
}

// AddFile stores content at p on a branch, creating parents and the branch if needed.
func (t *Tree) AddFile(fullName, branchName, p string, content []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.branchLocked(fullName, branchName)
	b.files[p] = content
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		b.dirs[dir] = struct{}{}
	}
}

// FailOn makes every call touching fullName@branch:p return err.
// An empty p matches the branch root listing.
func (t *Tree) FailOn(fullName, branchName, p string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[fullName+"@"+branchName+":"+p] = err
}

// RateLimitAfter lets n more calls succeed; every later call fails with
// source.ErrRateLimited. A negative n removes the limit.
func (t *Tree) RateLimitAfter(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.budget = n
}

// Calls returns a log of every successful call in order.
func (t *Tree) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.calls)
}

// ResetCalls clears the call log.
func (t *Tree) ResetCalls() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

// ListRepositories implements source.Source.
func (t *Tree) ListRepositories(_ context.Context, org string) ([]source.Repository, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.spendLocked("repos " + org); err != nil {
		return nil, err
	}
	return slices.Clone(t.repos[org]), nil
}

// ListDirectory implements source.Source.
func (t *Tree) ListDirectory(_ context.Context, repo source.Repository, branchName, p string) ([]source.Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := repo.FullName + "@" + branchName + ":" + p
	if err := t.spendLocked("list " + id); err != nil {
		return nil, err
	}
	if err := t.failures[id]; err != nil {
		return nil, err
	}

	b, ok := t.branches[repo.FullName+"@"+branchName]
	if !ok {
		return nil, fmt.Errorf("branch %s of %s: %w", branchName, repo.FullName, source.ErrNotFound)
	}
	if _, isDir := b.dirs[p]; p != "" && !isDir {
		return nil, fmt.Errorf("directory %s: %w", p, source.ErrNotFound)
	}

	var entries []source.Entry
	for dir := range b.dirs {
		if parentOf(dir) == p {
			entries = append(entries, t.entry(repo, branchName, dir, source.EntryTypeDir))
		}
	}
	for file := range b.files {
		if parentOf(file) == p {
			entries = append(entries, t.entry(repo, branchName, file, source.EntryTypeFile))
		}
	}
	// Stable order keeps call logs reproducible.
	slices.SortFunc(entries, func(a, b source.Entry) int { return strings.Compare(a.Path, b.Path) })
	return entries, nil
}

// FetchFile implements source.Source.
func (t *Tree) FetchFile(_ context.Context, repo source.Repository, branchName, p string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := repo.FullName + "@" + branchName + ":" + p
	if err := t.spendLocked("fetch " + id); err != nil {
		return nil, err
	}
	if err := t.failures[id]; err != nil {
		return nil, err
	}

	b, ok := t.branches[repo.FullName+"@"+branchName]
	if !ok {
		return nil, fmt.Errorf("branch %s of %s: %w", branchName, repo.FullName, source.ErrNotFound)
	}
	content, ok := b.files[p]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", p, source.ErrNotFound)
	}
	return slices.Clone(content), nil
}

// RateLimit implements source.Source. It does not consume the call budget.
func (t *Tree) RateLimit(context.Context) (source.RateLimit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := 5000
	if t.budget >= 0 {
		remaining = t.budget
	}
	return source.RateLimit{Limit: 5000, Remaining: remaining, Reset: t.modified.Add(time.Hour)}, nil
}

func (t *Tree) spendLocked(call string) error {
	if t.budget == 0 {
		return fmt.Errorf("%s: %w", call, source.ErrRateLimited)
	}
	if t.budget > 0 {
		t.budget--
	}
	t.calls = append(t.calls, call)
	return nil
}

func (t *Tree) branchLocked(fullName, name string) *branch {
	id := fullName + "@" + name
	b, ok := t.branches[id]
	if !ok {
		b = &branch{files: make(map[string][]byte), dirs: make(map[string]struct{})}
		t.branches[id] = b
	}
	return b
}

func (t *Tree) entry(repo source.Repository, branchName, p, typ string) source.Entry {
	kind := "blob"
	if typ == source.EntryTypeDir {
		kind = "tree"
	}
	return source.Entry{
		Name:         path.Base(p),
		Type:         typ,
		Path:         p,
		HTMLURL:      fmt.Sprintf("https://example.test/%s/%s/%s/%s", repo.FullName, kind, branchName, p),
		LastModified: t.modified,
	}
}

func parentOf(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}

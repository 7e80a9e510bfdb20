// Package sync maintains a client-held cache of tasks reconciled against the
// backend through the task client. The synchronizer is explicit about which
// backend is authoritative: Remote in normal operation, DegradedLocal after
// the backend becomes unreachable, in which case reads and writes go to the
// injected key-value store until an explicit Reconnect.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/todo-platform/internal/localstore"
	"github.com/example/todo-platform/internal/taskclient"
)

// Authority names which backend currently owns the task list.
type Authority string

const (
	AuthorityRemote        Authority = "remote"
	AuthorityDegradedLocal Authority = "degraded_local"
)

// TaskAPI captures the task client operations required by the synchronizer.
type TaskAPI interface {
	ListTasks(ctx context.Context, token, userID string, filters taskclient.TaskFilters) (taskclient.TaskPage, error)
	CreateTask(ctx context.Context, token, userID string, input taskclient.TaskInput) (taskclient.Task, error)
	UpdateTask(ctx context.Context, token, userID, taskID string, patch taskclient.TaskPatch) (taskclient.Task, error)
	DeleteTask(ctx context.Context, token, userID, taskID string) error
	ToggleCompletion(ctx context.Context, token, userID, taskID string) (taskclient.Task, error)
}

// Synchronizer owns one user's in-memory task sequence plus loading and error
// flags. One instance serves one user; the fallback store namespace
// todos_{userID} has this instance as its single writer.
type Synchronizer struct {
	mu sync.Mutex

	api    TaskAPI
	store  localstore.Store
	logger *slog.Logger

	userID string
	token  string

	now        func() time.Time
	newLocalID func() string

	tasks     []taskclient.Task
	loading   bool
	lastErr   error
	authority Authority

	// Per-entity sequence numbers: a mutation response carrying a sequence
	// below the last applied one for its id is discarded, so the latest
	// issued request wins regardless of network reordering.
	nextSeq map[string]uint64
	applied map[string]uint64
}

// NewSynchronizer wires a synchronizer for one user.
func NewSynchronizer(api TaskAPI, store localstore.Store, userID, accessToken string, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		api:        api,
		store:      store,
		logger:     logger,
		userID:     userID,
		token:      accessToken,
		now:        time.Now,
		newLocalID: func() string { return "local-" + uuid.NewString() },
		authority:  AuthorityRemote,
		nextSeq:    make(map[string]uint64),
		applied:    make(map[string]uint64),
	}
}

// SetAccessToken replaces the bearer token used for subsequent calls.
func (s *Synchronizer) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Authority reports which backend currently owns the task list.
func (s *Synchronizer) Authority() Authority {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authority
}

// Loading reports whether a call is in flight.
func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error recorded by the most recent failed call, or nil.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Tasks returns a copy of the cached task sequence.
func (s *Synchronizer) Tasks() []taskclient.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]taskclient.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Filtered returns the cached tasks satisfying the filter.
func (s *Synchronizer) Filtered(filter FilterState) []taskclient.Task {
	return filter.Apply(s.Tasks())
}

// Refresh replaces the cached sequence with the authoritative list. In Remote
// mode that is the server's; a backend failure switches authority to
// DegradedLocal and loads the fallback namespace. In DegradedLocal mode the
// fallback namespace is reloaded; only Reconnect returns to Remote.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	if s == nil {
		return errors.New("synchronizer is nil")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	token, userID := s.token, s.userID
	degraded := s.authority == AuthorityDegradedLocal
	s.mu.Unlock()

	if userID == "" || token == "" {
		err := fmt.Errorf("refresh requires an authenticated identity: %w", taskclient.ErrUnauthenticated)
		s.recordError(err)
		return err
	}

	if degraded {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.loadFallbackLocked(); err != nil {
			s.lastErr = err
			return err
		}
		s.lastErr = nil
		return nil
	}

	page, err := s.api.ListTasks(ctx, token, userID, taskclient.TaskFilters{})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		if shouldDegrade(err) {
			s.logger.WarnContext(ctx, "backend unreachable, switching to degraded local authority", "user_id", userID, "error", err)
			s.authority = AuthorityDegradedLocal
			if loadErr := s.loadFallbackLocked(); loadErr != nil {
				// No fallback entry yet; seed it with the last known cache.
				s.persistFallbackLocked(ctx)
			}
		}
		return err
	}

	s.tasks = append([]taskclient.Task(nil), page.Tasks...)
	s.lastErr = nil
	return nil
}

// Reconnect is the explicit step from DegradedLocal back to Remote. It
// refreshes from the server and only then abandons the degraded cache. The
// returned count is the number of local-only entries that the server list did
// not contain; reconciling them is the caller's concern.
func (s *Synchronizer) Reconnect(ctx context.Context) (int, error) {
	if s == nil {
		return 0, errors.New("synchronizer is nil")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	token, userID := s.token, s.userID
	s.mu.Unlock()

	page, err := s.api.ListTasks(ctx, token, userID, taskclient.TaskFilters{})
	if err != nil {
		s.recordError(err)
		return 0, err
	}

	s.mu.Lock()
	remote := make(map[string]struct{}, len(page.Tasks))
	for _, task := range page.Tasks {
		remote[task.ID] = struct{}{}
	}
	divergence := 0
	for _, task := range s.tasks {
		if _, ok := remote[task.ID]; !ok {
			divergence++
		}
	}
	s.tasks = append([]taskclient.Task(nil), page.Tasks...)
	s.authority = AuthorityRemote
	s.lastErr = nil
	store := s.store
	s.mu.Unlock()

	if store != nil {
		if err := store.Delete(localstore.TasksKey(userID)); err != nil {
			s.logger.WarnContext(ctx, "failed to drop degraded cache", "user_id", userID, "error", err)
		}
	}
	if divergence > 0 {
		s.logger.WarnContext(ctx, "degraded cache diverged from server", "user_id", userID, "local_only_entries", divergence)
	}
	return divergence, nil
}

// Create adds a task. In Remote mode the server-returned entity is appended
// after confirmation; there is no optimistic insert. In DegradedLocal mode a
// local entity is created and persisted to the fallback namespace.
func (s *Synchronizer) Create(ctx context.Context, input taskclient.TaskInput) (taskclient.Task, error) {
	if s == nil {
		return taskclient.Task{}, errors.New("synchronizer is nil")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	if s.authority == AuthorityDegradedLocal {
		defer s.mu.Unlock()
		task := s.localCreateLocked(input)
		s.persistFallbackLocked(ctx)
		s.lastErr = nil
		return task, nil
	}
	token, userID := s.token, s.userID
	s.mu.Unlock()

	task, err := s.api.CreateTask(ctx, token, userID, input)
	if err != nil {
		s.recordError(err)
		return taskclient.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	s.lastErr = nil
	return task, nil
}

// Update applies a partial update. The server-returned entity replaces the
// cached one; a response for an id absent from the cache triggers a full
// refresh instead of being dropped.
func (s *Synchronizer) Update(ctx context.Context, taskID string, patch taskclient.TaskPatch) (taskclient.Task, error) {
	if s == nil {
		return taskclient.Task{}, errors.New("synchronizer is nil")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	if s.authority == AuthorityDegradedLocal {
		defer s.mu.Unlock()
		task, ok := s.localUpdateLocked(taskID, patch)
		if !ok {
			err := fmt.Errorf("task %s: %w", taskID, taskclient.ErrNotFound)
			s.lastErr = err
			return taskclient.Task{}, err
		}
		s.persistFallbackLocked(ctx)
		s.lastErr = nil
		return task, nil
	}
	token, userID := s.token, s.userID
	seq := s.bumpSeqLocked(taskID)
	s.mu.Unlock()

	task, err := s.api.UpdateTask(ctx, token, userID, taskID, patch)
	if err != nil {
		s.recordError(err)
		return taskclient.Task{}, err
	}

	s.applyEntity(ctx, taskID, seq, task)
	return task, nil
}

// ToggleCompletion flips a task's completed flag, adopting the server's
// returned entity rather than flipping the cached boolean.
func (s *Synchronizer) ToggleCompletion(ctx context.Context, taskID string) (taskclient.Task, error) {
	if s == nil {
		return taskclient.Task{}, errors.New("synchronizer is nil")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	if s.authority == AuthorityDegradedLocal {
		defer s.mu.Unlock()
		task, ok := s.localToggleLocked(taskID)
		if !ok {
			err := fmt.Errorf("task %s: %w", taskID, taskclient.ErrNotFound)
			s.lastErr = err
			return taskclient.Task{}, err
		}
		s.persistFallbackLocked(ctx)
		s.lastErr = nil
		return task, nil
	}
	token, userID := s.token, s.userID
	seq := s.bumpSeqLocked(taskID)
	s.mu.Unlock()

	task, err := s.api.ToggleCompletion(ctx, token, userID, taskID)
	if err != nil {
		s.recordError(err)
		return taskclient.Task{}, err
	}

	s.applyEntity(ctx, taskID, seq, task)
	return task, nil
}

// Delete removes a task. A NotFound response means the task is already gone
// and is treated as a local-removal signal, not an error.
func (s *Synchronizer) Delete(ctx context.Context, taskID string) error {
	if s == nil {
		return errors.New("synchronizer is nil")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	if s.authority == AuthorityDegradedLocal {
		defer s.mu.Unlock()
		s.removeLocked(taskID)
		s.persistFallbackLocked(ctx)
		s.lastErr = nil
		return nil
	}
	token, userID := s.token, s.userID
	seq := s.bumpSeqLocked(taskID)
	s.mu.Unlock()

	err := s.api.DeleteTask(ctx, token, userID, taskID)
	if err != nil && !errors.Is(err, taskclient.ErrNotFound) {
		s.recordError(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq >= s.applied[taskID] {
		s.applied[taskID] = seq
		s.removeLocked(taskID)
	}
	s.lastErr = nil
	return nil
}

func (s *Synchronizer) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *Synchronizer) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

func (s *Synchronizer) bumpSeqLocked(taskID string) uint64 {
	s.nextSeq[taskID]++
	return s.nextSeq[taskID]
}

// applyEntity replaces the cached entity unless a later mutation has already
// been applied for the same id. A response for an unknown id triggers a full
// refresh.
func (s *Synchronizer) applyEntity(ctx context.Context, taskID string, seq uint64, task taskclient.Task) {
	s.mu.Lock()
	if seq < s.applied[taskID] {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "discarding stale mutation response", "task_id", taskID, "sequence", seq)
		return
	}
	s.applied[taskID] = seq

	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			found = true
			break
		}
	}
	s.lastErr = nil
	s.mu.Unlock()

	if !found {
		s.logger.DebugContext(ctx, "mutation response for uncached task, refreshing", "task_id", taskID)
		_ = s.Refresh(ctx)
	}
}

func (s *Synchronizer) removeLocked(taskID string) {
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

func (s *Synchronizer) localCreateLocked(input taskclient.TaskInput) taskclient.Task {
	now := s.now().UTC()
	task := taskclient.Task{
		ID:          s.newLocalID(),
		UserID:      s.userID,
		Title:       input.Title,
		Description: input.Description,
		Completed:   input.Completed,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}
	if task.Completed {
		completedAt := now
		task.CompletedAt = &completedAt
	}
	s.tasks = append(s.tasks, task)
	return task
}

func (s *Synchronizer) localUpdateLocked(taskID string, patch taskclient.TaskPatch) (taskclient.Task, bool) {
	for i := range s.tasks {
		if s.tasks[i].ID != taskID {
			continue
		}
		task := s.tasks[i]
		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = patch.Description
		}
		if patch.Priority != nil {
			task.Priority = *patch.Priority
		}
		if patch.ClearDueDate {
			task.DueDate = nil
		} else if patch.DueDate != nil {
			task.DueDate = patch.DueDate
		}
		now := s.now().UTC()
		if patch.Completed != nil && *patch.Completed != task.Completed {
			task.Completed = *patch.Completed
			if task.Completed {
				completedAt := now
				task.CompletedAt = &completedAt
			} else {
				task.CompletedAt = nil
			}
		}
		task.UpdatedAt = now
		s.tasks[i] = task
		return task, true
	}
	return taskclient.Task{}, false
}

func (s *Synchronizer) localToggleLocked(taskID string) (taskclient.Task, bool) {
	for i := range s.tasks {
		if s.tasks[i].ID != taskID {
			continue
		}
		task := s.tasks[i]
		now := s.now().UTC()
		task.Completed = !task.Completed
		if task.Completed {
			completedAt := now
			task.CompletedAt = &completedAt
		} else {
			task.CompletedAt = nil
		}
		task.UpdatedAt = now
		s.tasks[i] = task
		return task, true
	}
	return taskclient.Task{}, false
}

func (s *Synchronizer) loadFallbackLocked() error {
	if s.store == nil {
		return errors.New("no fallback store configured")
	}
	value, ok, err := s.store.Get(localstore.TasksKey(s.userID))
	if err != nil {
		return fmt.Errorf("read fallback store: %w", err)
	}
	if !ok {
		return errors.New("fallback store has no entry for user")
	}
	var tasks []taskclient.Task
	if err := json.Unmarshal([]byte(value), &tasks); err != nil {
		return fmt.Errorf("decode fallback store: %w", err)
	}
	s.tasks = tasks
	return nil
}

// persistFallbackLocked writes the cache to the fallback namespace. The write
// is best-effort; a failure is logged and the in-memory state stands.
func (s *Synchronizer) persistFallbackLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(s.tasks)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode fallback tasks", "user_id", s.userID, "error", err)
		return
	}
	if err := s.store.Set(localstore.TasksKey(s.userID), string(data)); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist fallback tasks", "user_id", s.userID, "error", err)
	}
}

// shouldDegrade reports whether a refresh failure means the backend is
// unreachable rather than rejecting the request. Auth and validation
// failures never switch authority.
func shouldDegrade(err error) bool {
	if errors.Is(err, taskclient.ErrNetworkFailure) {
		return true
	}
	var reqErr *taskclient.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status >= 500
	}
	return false
}

// Package sync keeps the local task cache in step with the backend and
// feeds every fresh task list to the notification engine.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/source"
	"github.com/nhle/taskflow/internal/store"
)

// SyncState represents the current state of the sync loop.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "running"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the sync state of the backend source.
type SyncStatus struct {
	SourceType source.SourceType
	State      SyncState
	LastSync   time.Time
	Error      error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	Tasks        []model.Task
	Error        error
	AuthError    *AuthErrorMsg
	NewTaskCount int
}

// AuthErrorMsg is a tea.Msg sent when the backend rejects the credentials.
type AuthErrorMsg struct {
	SourceType source.SourceType
	Message    string
}

// TaskListener receives every successfully synced task list.
type TaskListener interface {
	TasksChanged(tasks []model.Task)
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// DefaultInterval is used when no poll interval is configured.
const DefaultInterval = 120 * time.Second

// Poller orchestrates background polling of the backend.
type Poller struct {
	store     store.Store
	src       source.Source
	listener  TaskListener
	interval  time.Duration
	logger    *zap.Logger
	status    SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	done      chan struct{}
	mu        gosync.Mutex
	running   bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithListener registers the receiver of synced task lists.
func WithListener(l TaskListener) Option {
	return func(p *Poller) { p.listener = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a new Poller that copies tasks from src into s.
func New(s store.Store, src source.Source, opts ...Option) *Poller {
	p := &Poller{
		store:     s,
		src:       src,
		interval:  DefaultInterval,
		logger:    zap.NewNop(),
		status:    SyncStatus{SourceType: src.Type(), State: SyncIdle},
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start returns a tea.Cmd that starts the polling goroutine and
// subscribes to results. The returned command waits on the result
// channel and returns SyncResultMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.poll()

	return p.waitForResult()
}

// Stop halts the polling goroutine and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.running = false
	p.mu.Unlock()

	<-p.done
}

// Refresh triggers an immediate poll.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
	return nil
}

// Status returns the current sync status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SyncOnce fetches, stores and publishes tasks synchronously.
func (p *Poller) SyncOnce(ctx context.Context) SyncResultMsg {
	p.setStatus(SyncRunning, nil)

	tasks, err := p.src.FetchTasks(ctx)
	if err != nil {
		p.setStatus(SyncError, err)
		p.logger.Warn("fetching tasks", zap.Error(err))

		// Detect auth errors and emit a specific message.
		if source.IsAuthError(err) {
			return SyncResultMsg{
				Error: err,
				AuthError: &AuthErrorMsg{
					SourceType: p.src.Type(),
					Message: fmt.Sprintf(
						"%s: authentication expired. Run `taskflow auth login`.",
						p.src.Type(),
					),
				},
			}
		}
		return SyncResultMsg{Error: err}
	}

	// Detect new tasks by checking which ones don't exist in the store yet.
	existing, err := p.store.GetTasks(ctx, model.TaskFilters{})
	if err != nil {
		p.setStatus(SyncError, err)
		return SyncResultMsg{Error: fmt.Errorf("reading cached tasks: %w", err)}
	}
	known := make(map[string]bool, len(existing))
	for _, t := range existing {
		known[t.ID] = true
	}
	newCount := 0
	for _, t := range tasks {
		if !known[t.ID] {
			newCount++
		}
	}

	if err := p.store.ReplaceTasks(ctx, tasks); err != nil {
		p.setStatus(SyncError, err)
		return SyncResultMsg{Error: fmt.Errorf("caching tasks: %w", err)}
	}

	if p.listener != nil {
		p.listener.TasksChanged(tasks)
	}

	p.setStatus(SyncIdle, nil)
	p.logger.Debug("synced tasks", zap.Int("count", len(tasks)), zap.Int("new", newCount))

	return SyncResultMsg{Tasks: tasks, NewTaskCount: newCount}
}

// poll runs the polling loop.
func (p *Poller) poll() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.fetchAndSend()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetchAndSend()
		case <-p.triggerCh:
			p.fetchAndSend()
		}
	}
}

func (p *Poller) fetchAndSend() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	p.sendResult(p.SyncOnce(ctx))
}

// setStatus updates the sync status.
func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

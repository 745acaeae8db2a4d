// Package progress implements a thread-safe, hierarchical job/sub-task
// progress model with bounded log retention and a derived aggregate
// percentage, mirroring the snapshot observers poll during a harvest.
package progress

import (
	"math"
	"sync"
	"time"
)

// Status is the top-level job or sub-task lifecycle state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// LogLevel tags one ring-buffer log entry.
type LogLevel string

const (
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelDebug LogLevel = "DEBUG"
)

const maxLogEntries = 100

// LogEntry is one append-only log ring entry.
type LogEntry struct {
	Level     LogLevel
	Message   string
	Timestamp time.Time
}

// SubTask is one unit of sub-progress (e.g. one study program).
type SubTask struct {
	ID        string
	Label     string
	Status    Status
	Processed int
	Total     int
	Progress  int
	Message   string
	StartedAt *time.Time
}

// Snapshot is an immutable copy of the tracker's state at one instant.
type Snapshot struct {
	Status         Status
	CurrentTask    string
	ProcessedCount int
	TotalCount     int
	Progress       int
	Message        string
	Logs           []LogEntry
	SubTasks       []SubTask
}

// Tracker is the mutex-protected hierarchical progress model. Construct it
// with New, which starts it in StatusIdle.
type Tracker struct {
	mu sync.Mutex

	status         Status
	currentTask    string
	processedCount int
	totalCount     int
	message        string
	logs           []LogEntry
	subTasks       map[string]*SubTask
	subTaskOrder   []string
}

// New returns a Tracker in StatusIdle.
func New() *Tracker {
	return &Tracker{status: StatusIdle, subTasks: make(map[string]*SubTask)}
}

// Start resets the tracker to running with the given top-level counters.
func (t *Tracker) Start(total int, task, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusRunning
	t.currentTask = task
	t.processedCount = 0
	t.totalCount = total
	t.message = msg
	t.subTasks = make(map[string]*SubTask)
	t.subTaskOrder = nil
	t.appendLog(LevelInfo, msg)
}

// Update advances the top-level counters while staying in StatusRunning.
// A zero total leaves the prior total unchanged; task/msg are optional
// (empty string leaves the prior value unchanged).
func (t *Tracker) Update(task string, processed int, total int, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusRunning
	if task != "" {
		t.currentTask = task
	}
	t.processedCount = processed
	if total > 0 {
		t.totalCount = total
	}
	if msg != "" {
		t.message = msg
		t.appendLog(LevelInfo, msg)
	}
}

// Finish marks the job completed at 100%.
func (t *Tracker) Finish(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusCompleted
	t.processedCount = t.totalCount
	t.message = msg
	t.appendLog(LevelInfo, msg)
}

// Fail marks the job failed.
func (t *Tracker) Fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusFailed
	t.message = msg
	t.appendLog(LevelError, msg)
}

// Pause marks the job paused.
func (t *Tracker) Pause(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusPaused
	t.message = msg
	t.appendLog(LevelWarn, msg)
}

// Reset returns the tracker to idle and clears sub-tasks.
func (t *Tracker) Reset(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusIdle
	t.currentTask = ""
	t.processedCount = 0
	t.totalCount = 0
	t.message = msg
	t.subTasks = make(map[string]*SubTask)
	t.subTaskOrder = nil
	if msg != "" {
		t.appendLog(LevelInfo, msg)
	}
}

// StartSubTask registers (or resets) one sub-task under the given id.
func (t *Tracker) StartSubTask(id, label string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if _, exists := t.subTasks[id]; !exists {
		t.subTaskOrder = append(t.subTaskOrder, id)
	}
	t.subTasks[id] = &SubTask{
		ID: id, Label: label, Status: StatusRunning, Total: total, StartedAt: &now,
	}
}

// UpdateSubTask advances one sub-task's processed count and, optionally, message.
func (t *Tracker) UpdateSubTask(id string, processed int, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.subTasks[id]
	if !ok {
		return
	}
	st.Processed = processed
	st.Progress = percentage(processed, st.Total)
	if msg != "" {
		st.Message = msg
		t.appendLog(LevelInfo, msg)
	}
}

// FinishSubTask marks one sub-task completed or failed.
func (t *Tracker) FinishSubTask(id string, failed bool, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.subTasks[id]
	if !ok {
		return
	}
	if failed {
		st.Status = StatusFailed
		t.appendLog(LevelError, msg)
	} else {
		st.Status = StatusCompleted
		st.Processed = st.Total
		st.Progress = 100
		t.appendLog(LevelInfo, msg)
	}
	st.Message = msg
}

// Warn appends a WARN log line without changing any counters (parse drops).
func (t *Tracker) Warn(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.appendLog(LevelWarn, msg)
}

// appendLog must be called with the lock held.
func (t *Tracker) appendLog(level LogLevel, msg string) {
	t.logs = append(t.logs, LogEntry{Level: level, Message: msg, Timestamp: time.Now()})
	if len(t.logs) > maxLogEntries {
		t.logs = t.logs[len(t.logs)-maxLogEntries:]
	}
}

// Snapshot returns an immutable copy of the tracker's current state,
// including the aggregate progress derived from sub-tasks when present.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	logs := make([]LogEntry, len(t.logs))
	copy(logs, t.logs)

	subTasks := make([]SubTask, 0, len(t.subTaskOrder))
	for _, id := range t.subTaskOrder {
		subTasks = append(subTasks, *t.subTasks[id])
	}

	return Snapshot{
		Status:         t.status,
		CurrentTask:    t.currentTask,
		ProcessedCount: t.processedCount,
		TotalCount:     t.totalCount,
		Progress:       t.aggregateProgress(),
		Message:        t.message,
		Logs:           logs,
		SubTasks:       subTasks,
	}
}

// aggregateProgress must be called with the lock held.
func (t *Tracker) aggregateProgress() int {
	if t.status == StatusCompleted {
		return 100
	}
	if len(t.subTaskOrder) == 0 {
		return percentage(t.processedCount, t.totalCount)
	}

	sumProcessed, sumTotal := 0, 0
	for _, id := range t.subTaskOrder {
		st := t.subTasks[id]
		sumProcessed += st.Processed
		sumTotal += st.Total
	}
	if sumTotal > 0 {
		return percentage(sumProcessed, sumTotal)
	}

	sum := 0
	for _, id := range t.subTaskOrder {
		sum += t.subTasks[id].Progress
	}
	return sum / len(t.subTaskOrder)
}

func percentage(processed, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(processed) / float64(total) * 100))
	return clamp(p, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ABOUTME: Outermost task boundary for the bridge's goroutines and event handlers.
// ABOUTME: Recovers panics, logs them with task context and counts them for the health endpoint.

// Package supervise keeps a panicking task from taking the whole bridge down.
// Every recovered panic is logged with the task name and stack, and the
// running count is exposed so /health can surface it.
package supervise

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Failure describes the most recent recovered panic.
type Failure struct {
	Task  string    `json:"task"`
	Value string    `json:"value"`
	At    time.Time `json:"at"`
}

// Supervisor recovers panics from the tasks it runs.
type Supervisor struct {
	logger *slog.Logger

	mu     sync.Mutex
	panics int
	last   *Failure

	wg sync.WaitGroup
}

// New creates a Supervisor. Pass nil logger for default.
func New(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{logger: logger.With("component", "supervisor")}
}

// Run executes fn on the calling goroutine. A panic inside fn is recovered,
// logged and counted; Run then returns normally.
func (s *Supervisor) Run(task string, fn func()) {
	defer s.recover(task)
	fn()
}

// Go executes fn on a new goroutine under the same boundary as Run.
func (s *Supervisor) Go(task string, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(task, fn)
	}()
}

// Wait blocks until every goroutine started with Go has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Panics returns how many panics have been recovered so far.
func (s *Supervisor) Panics() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panics
}

// LastFailure returns the most recent recovered panic, or nil.
func (s *Supervisor) LastFailure() *Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	f := *s.last
	return &f
}

func (s *Supervisor) recover(task string) {
	r := recover()
	if r == nil {
		return
	}

	failure := &Failure{Task: task, Value: fmt.Sprint(r), At: time.Now()}

	s.mu.Lock()
	s.panics++
	s.last = failure
	s.mu.Unlock()

	s.logger.Error("task panicked",
		"task", task,
		"panic", failure.Value,
		"stack", string(debug.Stack()),
	)
}

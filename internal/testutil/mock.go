// Package testutil provides testing utilities for pocketflow and ytdigest.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/agentstation/pocketflow"
	"github.com/agentstation/pocketflow/internal/llm"
	"github.com/agentstation/pocketflow/internal/youtube"
)

// MockLLM provides a scripted llm.Client for testing.
// Replies are matched by prompt substring, first rule wins.
type MockLLM struct {
	mu    sync.Mutex
	rules []llmRule
	calls []LLMCall
}

type llmRule struct {
	contains string
	reply    string
	err      error
	times    int // remaining uses, -1 for unlimited
}

// LLMCall records a Complete call.
type LLMCall struct {
	Prompt string
	Task   llm.Task
}

var _ llm.Client = (*MockLLM)(nil)

// NewMockLLM creates a new mock client.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// On replies with reply to every prompt containing substr.
func (m *MockLLM) On(substr, reply string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, llmRule{contains: substr, reply: reply, times: -1})
	return m
}

// FailOn fails the next n prompts containing substr with err.
func (m *MockLLM) FailOn(substr string, err error, n int) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, llmRule{contains: substr, err: err, times: n})
	return m
}

// Complete returns the reply of the first matching rule.
func (m *MockLLM) Complete(ctx context.Context, prompt string, task llm.Task) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, LLMCall{Prompt: prompt, Task: task})
	for i := range m.rules {
		r := &m.rules[i]
		if r.times == 0 || !strings.Contains(prompt, r.contains) {
			continue
		}
		if r.times > 0 {
			r.times--
		}
		return r.reply, r.err
	}
	return "", fmt.Errorf("mock llm: no reply scripted for prompt %.60q", prompt)
}

// GetCalls returns all recorded calls.
func (m *MockLLM) GetCalls() []LLMCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]LLMCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of calls made with task.
func (m *MockLLM) CallCount(task llm.Task) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c.Task == task {
			n++
		}
	}
	return n
}

// MockTranscripts serves a fixed video.
type MockTranscripts struct {
	mu    sync.Mutex
	Video *youtube.Video
	Err   error
	urls  []string
}

// Fetch returns a copy of Video, or Err.
func (m *MockTranscripts) Fetch(ctx context.Context, url string) (*youtube.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.urls = append(m.urls, url)
	if m.Err != nil {
		return nil, m.Err
	}
	v := *m.Video
	v.URL = url
	return &v, nil
}

// URLs returns the fetched URLs in order.
func (m *MockTranscripts) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

// MockLogger provides a mock logger for testing.
type MockLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ pocketflow.Logger = (*MockLogger)(nil)

// LogEntry represents a log entry.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// NewMockLogger creates a new mock logger.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		entries: []LogEntry{},
	}
}

// Debug logs a debug message.
func (l *MockLogger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	l.log("debug", msg, keysAndValues...)
}

// Info logs an info message.
func (l *MockLogger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	l.log("info", msg, keysAndValues...)
}

// Error logs an error message.
func (l *MockLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	l.log("error", msg, keysAndValues...)
}

func (l *MockLogger) log(level, msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := make(map[string]any)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}

	l.entries = append(l.entries, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

// GetEntries returns all log entries.
func (l *MockLogger) GetEntries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]LogEntry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// Find returns the first entry with level and msg.
func (l *MockLogger) Find(level, msg string) (LogEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, entry := range l.entries {
		if entry.Level == level && entry.Message == msg {
			return entry, true
		}
	}
	return LogEntry{}, false
}

// HasEntry checks if a log entry exists.
func (l *MockLogger) HasEntry(level, msg string) bool {
	_, ok := l.Find(level, msg)
	return ok
}

package pipeline

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"sellerpulse/internal/logging"
)

// MatchMode selects how canonical phrases are compared to questions.
type MatchMode string

const (
	// MatchSubstring matches a phrase anywhere inside the normalized
	// question. Catches paraphrases, but a short phrase can false-positive
	// inside an unrelated longer question.
	MatchSubstring MatchMode = "substring"
	// MatchExact requires the whole normalized question to equal the
	// phrase.
	MatchExact MatchMode = "exact"
)

// HardcodedMatcher looks questions up in a table of canonical phrase to
// canned response pairs. It runs before any extraction and short-circuits
// the pipeline on a hit.
type HardcodedMatcher struct {
	mode   MatchMode
	logger *zap.Logger

	mu      sync.RWMutex
	table   map[string]string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// DefaultHardcodedTable is the built-in response table, used when no
// table file is configured.
func DefaultHardcodedTable() map[string]string {
	return map[string]string{
		"performance insight": "Here are your performance insights: sales are trending upward with strong conversion rates over the past week.",
		"performance compare": "Here are your performance insights: sales are trending upward with strong conversion rates over the past week.",
		"highest performance": "Your highest performance day in September was Sep 2, 2025.",
	}
}

// NewHardcodedMatcher builds a matcher over the given table. Phrases are
// normalized the same way questions are at lookup time.
func NewHardcodedMatcher(table map[string]string, mode MatchMode) *HardcodedMatcher {
	if mode == "" {
		mode = MatchSubstring
	}
	m := &HardcodedMatcher{
		mode:   mode,
		logger: logging.For(logging.ComponentPipeline),
		table:  normalizeTable(table),
	}
	return m
}

// NewHardcodedMatcherFromFile loads the table from a YAML file. A missing
// file falls back to the built-in table.
func NewHardcodedMatcherFromFile(path string, mode MatchMode) (*HardcodedMatcher, error) {
	table, err := loadHardcodedTable(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewHardcodedMatcher(DefaultHardcodedTable(), mode), nil
		}
		return nil, err
	}
	return NewHardcodedMatcher(table, mode), nil
}

func loadHardcodedTable(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table map[string]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse hardcoded table %s: %w", path, err)
	}
	return table, nil
}

func normalizeTable(table map[string]string) map[string]string {
	normalized := make(map[string]string, len(table))
	for phrase, response := range table {
		normalized[normalizeQuestion(phrase)] = response
	}
	return normalized
}

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Lookup returns the canned response for a question, or ("", false).
func (m *HardcodedMatcher) Lookup(question string) (string, bool) {
	normalized := normalizeQuestion(question)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.mode == MatchExact {
		response, ok := m.table[normalized]
		return response, ok
	}
	for phrase, response := range m.table {
		if strings.Contains(normalized, phrase) {
			return response, true
		}
	}
	return "", false
}

// Watch reloads the table whenever the file changes on disk. Call Close
// to stop the watcher.
func (m *HardcodedMatcher) Watch(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create table watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	m.mu.Lock()
	m.watcher = watcher
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.watchLoop(path, watcher)
	return nil
}

func (m *HardcodedMatcher) watchLoop(path string, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-m.done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			table, err := loadHardcodedTable(path)
			if err != nil {
				m.logger.Warn("hardcoded table reload failed",
					zap.String("path", path), zap.Error(err))
				continue
			}
			m.mu.Lock()
			m.table = normalizeTable(table)
			m.mu.Unlock()
			m.logger.Info("hardcoded table reloaded",
				zap.String("path", path), zap.Int("entries", len(table)))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("hardcoded table watcher error", zap.Error(err))
		}
	}
}

// Close stops the file watcher, if one is running.
func (m *HardcodedMatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher == nil {
		return nil
	}
	close(m.done)
	err := m.watcher.Close()
	m.watcher = nil
	return err
}

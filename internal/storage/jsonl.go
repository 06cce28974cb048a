package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"positionScope/internal/model"
)

// JsonlStore appends decisions to a JSONL file, one decision per line.
type JsonlStore struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStore(path string) *JsonlStore {
	return &JsonlStore{path: path}
}

// Append writes a decision as one JSON line.
func (s *JsonlStore) Append(_ context.Context, decision model.RebalanceDecision) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open decision file: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write decision: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush decision file: %w", err)
	}

	return nil
}

// Last scans the file and returns the most recent decision.
func (s *JsonlStore) Last(_ context.Context) (model.RebalanceDecision, bool, error) {
	return s.lastMatching(func(model.RebalanceDecision) bool { return true })
}

// LastRebalance returns the most recent decision that recommended a
// rebalance.
func (s *JsonlStore) LastRebalance(_ context.Context) (model.RebalanceDecision, bool, error) {
	return s.lastMatching(func(d model.RebalanceDecision) bool { return d.ShouldRebalance })
}

func (s *JsonlStore) lastMatching(match func(model.RebalanceDecision) bool) (model.RebalanceDecision, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.RebalanceDecision{}, false, nil
		}
		return model.RebalanceDecision{}, false, fmt.Errorf("open decision file: %w", err)
	}
	defer file.Close()

	var last model.RebalanceDecision
	found := false
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var decision model.RebalanceDecision
		if err := json.Unmarshal(scanner.Bytes(), &decision); err != nil {
			return model.RebalanceDecision{}, false, fmt.Errorf("parse decision: %w", err)
		}
		if match(decision) {
			last = decision
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		return model.RebalanceDecision{}, false, fmt.Errorf("scan decision file: %w", err)
	}
	return last, found, nil
}

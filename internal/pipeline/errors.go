package pipeline

import (
	"errors"
	"fmt"
)

// Error classes a run can fail with.
var (
	ErrFetch      = errors.New("fetch failed")
	ErrStoreRead  = errors.New("store read failed")
	ErrStoreWrite = errors.New("store write failed")
)

// Stage names in execution order.
const (
	StageCollect       = "collect"
	StageMerge         = "merge"
	StageDedupeBatch   = "dedupe_batch"
	StageFetchHistory  = "fetch_history"
	StageDedupeHistory = "dedupe_history"
	StagePersist       = "persist"
	StageBroadcast     = "broadcast"
)

// StageError records which stage aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, class, err error) error {
	return &StageError{Stage: stage, Err: fmt.Errorf("%w: %w", class, err)}
}

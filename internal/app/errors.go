package app

import "fmt"

// StageError tags a failure with the pipeline stage it came from, so the
// binary's exit log tells operators which side of the run broke.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

const (
	StageLoad    = "load"
	StageFetch   = "fetch"
	StageSave    = "save"
	StagePublish = "publish"
)

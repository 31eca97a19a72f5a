package app

import (
	"errors"
	"fmt"
)

// Sentinel kinds for app errors.
var (
	ErrPipeline       = errors.New("training pipeline failed")
	ErrModelNotLoaded = errors.New("model not loaded")
)

// Stage names one step of the training pipeline.
type Stage string

// Training stages in execution order.
const (
	StageLoad       Stage = "load"
	StageClean      Stage = "clean"
	StageSplit      Stage = "split"
	StageFitScaler  Stage = "fit_scaler"
	StageScaleTrain Stage = "scale_train"
	StageFitModel   Stage = "fit_model"
	StageEvaluate   Stage = "evaluate"
	StagePersist    Stage = "persist"
)

// PipelineError reports the stage at which a training run aborted.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("training failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPipeline) hold for every PipelineError.
func (e *PipelineError) Is(target error) bool {
	return target == ErrPipeline
}

package pipeline

import (
	"fmt"
	"time"

	"github.com/mgpai22/lecsub/internal/catalog"
)

// Stage names one step of item processing.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageProbe     Stage = "probe"
	StageExtract   Stage = "extract"
	StageUpload    Stage = "upload"
	StageRecognize Stage = "recognize"
	StageSegment   Stage = "segment"
	StageFormat    Stage = "format"
	StageWrite     Stage = "write"
)

// StageError records which stage failed for which item.
type StageError struct {
	Item  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Item, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Status is the outcome of one item.
type Status string

const (
	StatusWritten  Status = "written"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// ItemResult is the outcome of one item.
type ItemResult struct {
	Item    catalog.Item
	Status  Status
	Output  string
	Cues    int
	Words   int
	Elapsed time.Duration
	Err     error
}

// Report lists item outcomes in input order.
type Report struct {
	RunID   string
	Results []ItemResult
}

func (r *Report) count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

func (r *Report) Written() int  { return r.count(StatusWritten) }
func (r *Report) Skipped() int  { return r.count(StatusSkipped) }
func (r *Report) Failed() int   { return r.count(StatusFailed) }
func (r *Report) Canceled() int { return r.count(StatusCanceled) }

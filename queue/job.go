package queue

import (
	"time"

	"github.com/wudi/pdfreduce/reduce"
)

// Mode selects the work a job performs.
type Mode string

const (
	ModeReduce  Mode = "reduce"
	ModeExtract Mode = "extract"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job tracks one document through the queue. The queue hands out copies;
// the canonical state lives behind the queue's lock.
type Job struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Mode     Mode   `json:"mode"`

	InputPath  string `json:"-"`
	OutputPath string `json:"-"`
	CSVDir     string `json:"-"`
	ExtractCSV bool   `json:"-"`

	Options reduce.Options `json:"-"`

	Status       Status     `json:"status"`
	Progress     float64    `json:"progress"`
	Message      string     `json:"message"`
	OriginalSize int64      `json:"original_size"`
	ReducedSize  int64      `json:"reduced_size"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Spec describes a job to be added to the queue.
type Spec struct {
	Filename   string
	InputPath  string
	OutputPath string
	CSVDir     string
	Mode       Mode
	ExtractCSV bool
	Options    reduce.Options
}

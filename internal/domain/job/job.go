// Package job models submitted prediction jobs: the on-disk naming of a job
// directory, submission requests and receipts, and history entries.
package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/af3-portal/internal/domain/submission"
)

const (
	// TimestampLayout is the directory-name timestamp, e.g. 20240131T093000.
	TimestampLayout = "20060102T150405"
	// DisplayLayout is how history entries show their submission time.
	DisplayLayout = "2006/01/02 - 15:04:05"

	// InputFileName is the document written into every job directory.
	InputFileName = "input.json"
	// ScriptFileName is the rendered scheduler script.
	ScriptFileName = "submit.sh"
	// LogsDirName holds scheduler stdout and stderr captures.
	LogsDirName = "logs"
	// ArchiveExt is appended to the directory name to form the result archive.
	ArchiveExt = ".zip"
)

// Request is a job submission as received from the form.
type Request struct {
	JobName  string
	Email    string
	User     string
	Document *submission.Document
	// RequestID, when set, is carried into published job events.
	RequestID string
}

// Receipt describes an accepted submission.
type Receipt struct {
	SchedulerJobID string    `json:"schedulerJobId"`
	JobName        string    `json:"jobName"`
	Timestamp      string    `json:"timestamp"`
	SubmittedAt    time.Time `json:"submittedAt"`
	Dir            string    `json:"dir"`
	Message        string    `json:"message"`
}

// Entry is one completed job found in the jobs directory.
type Entry struct {
	Name      string    `json:"name"`
	Stamp     string    `json:"timestamp"`
	Timestamp time.Time `json:"submittedAt"`
	Display   string    `json:"display"`
	Archive   string    `json:"-"`
}

// DirName returns the directory stem for a job name and submission time.
func DirName(jobName string, at time.Time) string {
	return jobName + "_" + at.Format(TimestampLayout)
}

// ArchiveName returns the result archive file name for a job directory.
func ArchiveName(dirName string) string {
	return dirName + ArchiveExt
}

// ParseDirName splits a job directory name into job name and timestamp.  The
// split is on the last underscore so that job names may contain underscores.
func ParseDirName(dirName string) (name string, stamp string, at time.Time, err error) {
	idx := strings.LastIndex(dirName, "_")
	if idx <= 0 || idx == len(dirName)-1 {
		return "", "", time.Time{}, fmt.Errorf("job directory %q: want <name>_<timestamp>", dirName)
	}
	name, stamp = dirName[:idx], dirName[idx+1:]
	at, err = time.ParseInLocation(TimestampLayout, stamp, time.Local)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("job directory %q: %w", dirName, err)
	}
	return name, stamp, at, nil
}

// NewEntry builds a history entry from its parts.
func NewEntry(name, stamp string, at time.Time, archive string) Entry {
	return Entry{
		Name:      name,
		Stamp:     stamp,
		Timestamp: at,
		Display:   at.Format(DisplayLayout),
		Archive:   archive,
	}
}

// DirName returns the entry's job directory name.
func (e Entry) DirName() string {
	return e.Name + "_" + e.Stamp
}

// SubmittedMessage is the user-facing confirmation for an accepted job.
func SubmittedMessage(schedulerID, stamp, email string) string {
	return fmt.Sprintf("Job submitted (ID %s TS %s). Notifications → %s.", schedulerID, stamp, email)
}

// SchedulerJobID extracts the job id from scheduler stdout: the last
// whitespace-separated field, e.g. "Submitted batch job 12345" → "12345".
func SchedulerJobID(stdout string) string {
	fields := strings.Fields(stdout)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Event types published after a submission attempt.
const (
	EventSubmitted = "job.submitted"
	EventFailed    = "job.failed"
)

// Event describes the outcome of a submission for downstream consumers.
type Event struct {
	Type           string    `json:"type"`
	JobName        string    `json:"jobName"`
	Timestamp      string    `json:"timestamp"`
	SubmittedAt    time.Time `json:"submittedAt"`
	User           string    `json:"user,omitempty"`
	Email          string    `json:"email,omitempty"`
	SchedulerJobID string    `json:"schedulerJobId,omitempty"`
	Dir            string    `json:"dir,omitempty"`
	Entities       int       `json:"entities"`
	Error          string    `json:"error,omitempty"`
}

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Reason categorizes why a lesson produced no downloaded video.
type Reason string

const (
	ReasonAlreadyExists Reason = "already exists"
	ReasonTextFallback  Reason = "no video, saved page text"
	ReasonNoContent     Reason = "no video or lesson content"
	ReasonResolveFailed Reason = "video resolution failed"
	ReasonManualFailed  Reason = "manual download failed"
	ReasonCourseFiles   Reason = "course files unavailable"
)

// SkippedRecord is a durable note that a lesson did not produce a video file,
// with enough context to retry by hand later.
type SkippedRecord struct {
	CourseTitle string `json:"course_title"`
	LessonTitle string `json:"lesson_title"`
	LessonLink  string `json:"lesson_link,omitempty"`
	Reason      Reason `json:"reason"`
}

// Recorder accumulates skipped lessons in run order. Flush is cheap and
// atomic, so the pipeline calls it after every course instead of only at the
// end of the run; a crash loses at most the current course.
type Recorder struct {
	path    string
	records []SkippedRecord
	log     zerolog.Logger
}

// NewRecorder creates a Recorder that flushes to path.
func NewRecorder(path string, log zerolog.Logger) *Recorder {
	return &Recorder{
		path:    path,
		records: []SkippedRecord{},
		log:     log,
	}
}

// Add appends a record. Order is preserved across Flush calls.
func (r *Recorder) Add(record SkippedRecord) {
	r.records = append(r.records, record)
	r.log.Warn().
		Str("course", record.CourseTitle).
		Str("lesson", record.LessonTitle).
		Str("reason", string(record.Reason)).
		Msg("Recorded skipped lesson")
}

// Len returns the number of records so far.
func (r *Recorder) Len() int {
	return len(r.records)
}

// Records returns a copy of the accumulated records.
func (r *Recorder) Records() []SkippedRecord {
	out := make([]SkippedRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Flush writes the full record list to disk, replacing any previous file.
// The write goes through a temp file and a rename so a crash mid-write never
// leaves a corrupt summary.
func (r *Recorder) Flush() error {
	data, err := json.MarshalIndent(r.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal skipped records: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save report file: %w", err)
	}

	return nil
}

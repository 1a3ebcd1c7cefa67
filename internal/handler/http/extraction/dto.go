package extraction

import (
	"time"

	"digest-extractor/internal/domain/entity"
)

// TriggerResponse is the envelope of every endpoint that starts a job.
type TriggerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"jobId,omitempty"`
	Status  string `json:"status,omitempty"`
}

// JobDTO is the wire form of an extraction job.
type JobDTO struct {
	JobID       string            `json:"jobId"`
	Kind        string            `json:"kind"`
	Scope       string            `json:"scope"`
	Status      string            `json:"status"`
	TargetDate  string            `json:"targetDate,omitempty"`
	SourceID    *int64            `json:"sourceId,omitempty"`
	RequestedBy string            `json:"requestedBy"`
	CreatedAt   time.Time         `json:"createdAt"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Error       *entity.JobError  `json:"error,omitempty"`
	Result      *entity.JobResult `json:"result,omitempty"`
}

func toJobDTO(j *entity.ExtractionJob) JobDTO {
	return JobDTO{
		JobID:       j.ID,
		Kind:        string(j.Kind),
		Scope:       j.Scope,
		Status:      string(j.Status),
		TargetDate:  j.TargetDate,
		SourceID:    j.SourceID,
		RequestedBy: j.RequestedBy,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Error:       j.Error,
		Result:      j.Result,
	}
}

// LastExtraction summarizes the most recent job of a kind.
type LastExtraction struct {
	JobID     string            `json:"jobId"`
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	User      string            `json:"user"`
	Error     *entity.JobError  `json:"error,omitempty"`
	Result    *entity.JobResult `json:"result,omitempty"`
}

// StatusResponse is the body of GET /extraction/status. Both fields are null
// when unknown.
type StatusResponse struct {
	LastExtraction *LastExtraction `json:"lastExtraction"`
	NextExtraction *time.Time      `json:"nextExtraction"`
}

// toLastExtraction stamps the job with its most recent transition time.
func toLastExtraction(j *entity.ExtractionJob) *LastExtraction {
	ts := j.CreatedAt
	switch {
	case j.CompletedAt != nil:
		ts = *j.CompletedAt
	case j.StartedAt != nil:
		ts = *j.StartedAt
	}
	return &LastExtraction{
		JobID:     j.ID,
		Status:    string(j.Status),
		Timestamp: ts,
		User:      j.RequestedBy,
		Error:     j.Error,
		Result:    j.Result,
	}
}

// LogDTO is the wire form of an extraction log entry.
type LogDTO struct {
	ID        int64             `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"`
	Module    string            `json:"module"`
	Message   string            `json:"message"`
	JobID     string            `json:"jobId,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// LogsResponse is the body of GET /extraction/logs.
type LogsResponse struct {
	Logs       []LogDTO `json:"logs"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
	Modules    []string `json:"modules"`
}

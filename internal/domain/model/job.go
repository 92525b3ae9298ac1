package model

import "time"

// JobStatus is the state of a print job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobPrinting  JobStatus = "printing"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobQueued:   {JobPrinting, JobCancelled, JobFailed},
	JobPrinting: {JobCompleted, JobFailed, JobCancelled},
}

// IsTerminal reports whether no transition leaves s.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// CanTransitionTo reports whether s may move to next.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PrintJob is one unit of print work: one transaction's labels on one printer.
type PrintJob struct {
	ID               string        `json:"id"`
	TransactionNo    string        `json:"transaction_no"`
	Company          string        `json:"company"`
	RequestedPrinter string        `json:"requested_printer,omitempty"`
	PrinterName      string        `json:"printer_name,omitempty"`
	BatchID          string        `json:"batch_id,omitempty"`
	IdempotencyKey   string        `json:"idempotency_key,omitempty"`
	Labels           []QRLabel     `json:"labels"`
	Settings         PrintSettings `json:"settings"`
	Status           JobStatus     `json:"status"`
	Progress         int           `json:"progress"`
	Message          string        `json:"message,omitempty"`
	ErrorMessage     string        `json:"error_message,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	StartedAt        *time.Time    `json:"started_at,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	ReadAt           *time.Time    `json:"read_at,omitempty"`
}

// PageCount is the number of physical labels the job emits.
func (j *PrintJob) PageCount() int {
	copies := j.Settings.Copies
	if copies < 1 {
		copies = 1
	}
	return len(j.Labels) * copies
}

// Duration returns how long the job printed; zero until it finishes.
func (j *PrintJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

// ToStatus projects the job onto its public status view.
func (j *PrintJob) ToStatus() PrintStatus {
	return PrintStatus{
		JobID:         j.ID,
		TransactionNo: j.TransactionNo,
		PrinterName:   j.PrinterName,
		BatchID:       j.BatchID,
		Status:        j.Status,
		Progress:      j.Progress,
		LabelsCount:   len(j.Labels),
		Message:       j.Message,
		CreatedAt:     j.CreatedAt,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
		ErrorMessage:  j.ErrorMessage,
	}
}

// ToResponse projects the job onto the submission response.
func (j *PrintJob) ToResponse() PrintJobResponse {
	return PrintJobResponse{
		JobID:         j.ID,
		TransactionNo: j.TransactionNo,
		Status:        j.Status,
		LabelsCount:   len(j.Labels),
		CreatedAt:     j.CreatedAt,
	}
}

// PrintJobResponse acknowledges a submitted job.
//
// @Description Submitted print job
type PrintJobResponse struct {
	JobID         string    `json:"job_id" example:"1790843929128423424"`
	TransactionNo string    `json:"transaction_no" example:"TRX-2024-0001"`
	Status        JobStatus `json:"status" example:"queued"`
	LabelsCount   int       `json:"labels_count" example:"3"`
	CreatedAt     time.Time `json:"created_at"`
} // @name PrintJobResponse

// PrintStatus is the observable state of one job.
//
// @Description Print job status
type PrintStatus struct {
	JobID         string     `json:"job_id"`
	TransactionNo string     `json:"transaction_no,omitempty"`
	PrinterName   string     `json:"printer_name,omitempty"`
	BatchID       string     `json:"batch_id,omitempty"`
	Status        JobStatus  `json:"status" example:"printing"`
	Progress      int        `json:"progress" example:"40"`
	LabelsCount   int        `json:"labels_count"`
	Message       string     `json:"message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
} // @name PrintStatus

// PrintQueue is the read-only view of every live job.
//
// @Description Print queue view
type PrintQueue struct {
	Jobs          []PrintStatus `json:"jobs"`
	ActiveJob     *PrintStatus  `json:"active_job,omitempty"`
	ActiveJobs    []PrintStatus `json:"active_jobs"`
	TotalJobs     int           `json:"total_jobs"`
	CompletedJobs int           `json:"completed_jobs"`
	FailedJobs    int           `json:"failed_jobs"`
} // @name PrintQueue

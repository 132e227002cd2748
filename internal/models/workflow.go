package models

import "time"

// WorkflowState marks how far a workflow run has progressed. States advance
// monotonically; a resumed run re-enters the first incomplete step rather
// than starting over.
type WorkflowState string

const (
	StateStarted          WorkflowState = "STARTED"
	StateFanOutDispatched WorkflowState = "FAN_OUT_DISPATCHED"
	StateJoined           WorkflowState = "JOINED"
	StateReportBuilt      WorkflowState = "REPORT_BUILT"
	StateReportStored     WorkflowState = "REPORT_STORED"
	StateCompleted        WorkflowState = "COMPLETED"
	StateFailed           WorkflowState = "FAILED"
)

// WorkflowRecord is the durable checkpoint for one workflow instance, keyed
// by document identity. Analyzer results appear once the join completes and
// the report once it is built, so a restarted process never recomputes a
// step that already finished (the built report pins generated_at_utc across
// resumes).
type WorkflowRecord struct {
	Container   string        `firestore:"container" json:"container"`
	BlobName    string        `firestore:"blobName" json:"blob_name"`
	State       WorkflowState `firestore:"state" json:"state"`
	ExecutionID string        `firestore:"executionId" json:"execution_id"` // For traceability across resumes

	Text       *ExtractionResult    `firestore:"text,omitempty" json:"text,omitempty"`
	Metadata   *MetadataResult      `firestore:"metadata,omitempty" json:"metadata,omitempty"`
	Statistics *StatisticsResult    `firestore:"statistics,omitempty" json:"statistics,omitempty"`
	Sensitive  *SensitiveDataResult `firestore:"sensitive,omitempty" json:"sensitive,omitempty"`
	Report     *Report              `firestore:"report,omitempty" json:"report,omitempty"`

	ErrorDetails string    `firestore:"errorDetails,omitempty" json:"error_details,omitempty"`
	UpdatedAt    time.Time `firestore:"updatedAt" json:"updated_at"`
}

// Identity returns the document identity this record checkpoints.
func (r *WorkflowRecord) Identity() DocumentIdentity {
	return DocumentIdentity{Container: r.Container, BlobName: r.BlobName}
}

// JoinComplete reports whether all four analyzer results have been recorded.
// Results are checkpointed all-or-nothing at the fan-in barrier, so either
// every pointer is set or none is.
func (r *WorkflowRecord) JoinComplete() bool {
	return r.Text != nil && r.Metadata != nil && r.Statistics != nil && r.Sensitive != nil
}

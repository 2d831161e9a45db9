package domain

import "time"

// StepLedgerEntry is the durable, idempotent record of a single node
// execution for a single lead, keyed by (campaignID, leadID, stepIndex).
type StepLedgerEntry struct {
	campaignID string
	leadID     string
	stepIndex  int
	kind       NodeKind
	config     map[string]any
	success    bool
	result     map[string]any
	createdAt  time.Time
}

// NewStepLedgerEntry creates a StepLedgerEntry value. Entries are immutable
// once written; a second write for the same key is a no-op enforced by the
// ledger store, not by this type.
func NewStepLedgerEntry(campaignID, leadID string, stepIndex int, kind NodeKind, config map[string]any, success bool, result map[string]any, now time.Time) *StepLedgerEntry {
	return &StepLedgerEntry{
		campaignID: campaignID,
		leadID:     leadID,
		stepIndex:  stepIndex,
		kind:       kind,
		config:     config,
		success:    success,
		result:     result,
		createdAt:  now,
	}
}

// CampaignID returns the owning campaign's ID.
func (e *StepLedgerEntry) CampaignID() string { return e.campaignID }

// LeadID returns the lead this step belongs to.
func (e *StepLedgerEntry) LeadID() string { return e.leadID }

// StepIndex returns the step's position in the lead's DAG walk.
func (e *StepLedgerEntry) StepIndex() int { return e.stepIndex }

// Kind returns the node kind this step executed.
func (e *StepLedgerEntry) Kind() NodeKind { return e.kind }

// Config returns the node config snapshot at execution time.
func (e *StepLedgerEntry) Config() map[string]any { return e.config }

// Success reports whether the step succeeded.
func (e *StepLedgerEntry) Success() bool { return e.success }

// Result returns the step's typed result payload (provider id, error code,
// status, etc.), as a generic map for storage.
func (e *StepLedgerEntry) Result() map[string]any { return e.result }

// CreatedAt returns when the step was recorded.
func (e *StepLedgerEntry) CreatedAt() time.Time { return e.createdAt }

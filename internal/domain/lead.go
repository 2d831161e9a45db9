package domain

import "time"

// Lead is a single outreach target attached to a campaign.
type Lead struct {
	id          string
	campaignID  string
	firstName   string
	lastName    string
	profileURL  string
	status      LeadStatus
	currentStep int
	createdAt   time.Time
	updatedAt   time.Time
}

// NewLead creates a new Lead in LeadStatusPending.
func NewLead(id, campaignID, firstName, lastName, profileURL string, now time.Time) *Lead {
	return &Lead{
		id:         id,
		campaignID: campaignID,
		firstName:  firstName,
		lastName:   lastName,
		profileURL: profileURL,
		status:     LeadStatusPending,
		createdAt:  now,
		updatedAt:  now,
	}
}

// ReconstructLead reconstructs a Lead from persistence.
func ReconstructLead(id, campaignID, firstName, lastName, profileURL string, status LeadStatus, currentStep int, createdAt, updatedAt time.Time) *Lead {
	return &Lead{
		id:          id,
		campaignID:  campaignID,
		firstName:   firstName,
		lastName:    lastName,
		profileURL:  profileURL,
		status:      status,
		currentStep: currentStep,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the lead ID.
func (l *Lead) ID() string { return l.id }

// CampaignID returns the owning campaign's ID.
func (l *Lead) CampaignID() string { return l.campaignID }

// FirstName returns the lead's first name.
func (l *Lead) FirstName() string { return l.firstName }

// LastName returns the lead's last name.
func (l *Lead) LastName() string { return l.lastName }

// ProfileURL returns the lead's provider profile URL.
func (l *Lead) ProfileURL() string { return l.profileURL }

// Status returns the lead's current lifecycle status.
func (l *Lead) Status() LeadStatus { return l.status }

// CurrentStep returns the index of the next step index to run.
func (l *Lead) CurrentStep() int { return l.currentStep }

// CreatedAt returns when the lead was imported.
func (l *Lead) CreatedAt() time.Time { return l.createdAt }

// UpdatedAt returns the last time the lead's status or step changed.
func (l *Lead) UpdatedAt() time.Time { return l.updatedAt }

// Start transitions the lead Pending -> Running. It is a no-op if the lead
// is already past Pending.
func (l *Lead) Start(now time.Time) {
	if l.status != LeadStatusPending {
		return
	}
	l.status = LeadStatusRunning
	l.updatedAt = now
}

// AdvanceStep records that stepIndex has been executed and moves the cursor
// to stepIndex+1.
func (l *Lead) AdvanceStep(stepIndex int, now time.Time) {
	l.currentStep = stepIndex + 1
	l.updatedAt = now
}

// Wait marks the lead as waiting on a durable sleep (delay edge, poll
// interval, window or quota gate).
func (l *Lead) Wait(now time.Time) {
	if l.status.IsTerminal() {
		return
	}
	l.status = LeadStatusWaiting
	l.updatedAt = now
}

// Resume moves a waiting lead back to Running.
func (l *Lead) Resume(now time.Time) {
	if l.status != LeadStatusWaiting {
		return
	}
	l.status = LeadStatusRunning
	l.updatedAt = now
}

// Complete transitions the lead to Completed once its DAG walk finishes.
func (l *Lead) Complete(now time.Time) {
	l.status = LeadStatusCompleted
	l.updatedAt = now
}

// Fail transitions the lead to Failed on a permanent classifier verdict or
// an explicit non-graceful stop.
func (l *Lead) Fail(now time.Time) {
	l.status = LeadStatusFailed
	l.updatedAt = now
}

// Cancel transitions the lead to Cancelled, used when an operator stop
// signal requests immediate termination of in-flight leads.
func (l *Lead) Cancel(now time.Time) {
	if l.status.IsTerminal() {
		return
	}
	l.status = LeadStatusCancelled
	l.updatedAt = now
}

package ledger

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// StepRecord is the bun model backing the Postgres-persisted step ledger.
type StepRecord struct {
	bun.BaseModel `bun:"table:step_ledger,alias:sl"`

	ID         int64          `bun:"id,pk,autoincrement"`
	CampaignID string         `bun:"campaign_id,notnull"`
	LeadID     string         `bun:"lead_id,notnull"`
	StepIndex  int            `bun:"step_index,notnull"`
	Kind       string         `bun:"kind,notnull"`
	Config     map[string]any `bun:"config,type:jsonb"`
	Success    bool           `bun:"success,notnull"`
	Result     map[string]any `bun:"result,type:jsonb"`
	CreatedAt  time.Time      `bun:"created_at,notnull,default:current_timestamp"`
}

// BunStore is the Postgres-backed Store implementation.
type BunStore struct {
	db *bun.DB
}

// NewBunStore wraps an existing bun.DB for step-ledger persistence.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// InitSchema creates the step_ledger table and its uniqueness constraint if
// they don't already exist.
func (s *BunStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*StepRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_step_ledger_key ON step_ledger(campaign_id, lead_id, step_index)")
	return err
}

// RecordStep inserts entry unless a row already exists for its (campaign,
// lead, step) key, in which case it reads back and returns that row. The
// idempotency contract is enforced by the unique index plus ON CONFLICT
// DO NOTHING.
func (s *BunStore) RecordStep(ctx context.Context, entry *domain.StepLedgerEntry) (*domain.StepLedgerEntry, error) {
	record := &StepRecord{
		CampaignID: entry.CampaignID(),
		LeadID:     entry.LeadID(),
		StepIndex:  entry.StepIndex(),
		Kind:       string(entry.Kind()),
		Config:     entry.Config(),
		Success:    entry.Success(),
		Result:     entry.Result(),
		CreatedAt:  entry.CreatedAt(),
	}

	res, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (campaign_id, lead_id, step_index) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, _ := res.RowsAffected(); n > 0 {
		return entry, nil
	}

	var existing StepRecord
	err = s.db.NewSelect().
		Model(&existing).
		Where("campaign_id = ? AND lead_id = ? AND step_index = ?", entry.CampaignID(), entry.LeadID(), entry.StepIndex()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return recordToDomain(&existing), nil
}

// ListSteps returns every ledger row for a campaign, ordered by lead ID and
// then by step index.
func (s *BunStore) ListSteps(ctx context.Context, campaignID string) ([]*domain.StepLedgerEntry, error) {
	var records []StepRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("campaign_id = ?", campaignID).
		Order("lead_id ASC", "step_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return recordsToDomain(records), nil
}

// ListForLead returns a single lead's ledger rows, ordered by step index.
func (s *BunStore) ListForLead(ctx context.Context, leadID string) ([]*domain.StepLedgerEntry, error) {
	var records []StepRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("lead_id = ?", leadID).
		Order("step_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return recordsToDomain(records), nil
}

func recordToDomain(r *StepRecord) *domain.StepLedgerEntry {
	return domain.NewStepLedgerEntry(r.CampaignID, r.LeadID, r.StepIndex, domain.NodeKind(r.Kind), r.Config, r.Success, r.Result, r.CreatedAt)
}

func recordsToDomain(records []StepRecord) []*domain.StepLedgerEntry {
	out := make([]*domain.StepLedgerEntry, 0, len(records))
	for i := range records {
		out = append(out, recordToDomain(&records[i]))
	}
	return out
}

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// nodeJSON and edgeJSON are the jsonb-serialized forms of a campaign's graph
// snapshot, stored alongside the campaign row rather than as separate
// tables, since the graph is immutable after activation.
type nodeJSON struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

type edgeJSON struct {
	ID     string  `json:"id"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Branch string  `json:"branch"`
	Delay  *string `json:"delay,omitempty"`
}

type graphJSON struct {
	Nodes []nodeJSON `json:"nodes"`
	Edges []edgeJSON `json:"edges"`
}

func graphToJSON(g *domain.WorkflowGraph) graphJSON {
	if g == nil {
		return graphJSON{}
	}
	out := graphJSON{}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, nodeJSON{ID: n.ID(), Kind: string(n.Kind()), Name: n.Name(), Config: n.Config()})
	}
	for _, e := range g.Edges() {
		ej := edgeJSON{ID: e.ID(), From: e.FromNodeID(), To: e.ToNodeID(), Branch: string(e.Branch())}
		if d := e.Delay(); d != nil {
			ej.Delay = &d.Duration
		}
		out.Edges = append(out.Edges, ej)
	}
	return out
}

func graphFromJSON(campaignID string, gj graphJSON) *domain.WorkflowGraph {
	nodes := make([]*domain.Node, 0, len(gj.Nodes))
	for _, n := range gj.Nodes {
		nodes = append(nodes, domain.ReconstructNode(n.ID, campaignID, domain.NodeKind(n.Kind), n.Name, n.Config))
	}
	edges := make([]*domain.Edge, 0, len(gj.Edges))
	for _, e := range gj.Edges {
		var delay *domain.Delay
		if e.Delay != nil {
			delay = &domain.Delay{Duration: *e.Delay}
		}
		edges = append(edges, domain.NewEdge(e.ID, campaignID, e.From, e.To, domain.EdgeBranch(e.Branch), delay))
	}
	return domain.NewWorkflowGraph(campaignID, nodes, edges)
}

// CampaignModel is the bun model backing the Postgres-persisted campaign
// aggregate.
type CampaignModel struct {
	bun.BaseModel `bun:"table:campaigns,alias:cm"`

	ID             string     `bun:"id,pk"`
	OrganizationID string     `bun:"organization_id,notnull"`
	AccountID      string     `bun:"account_id,notnull"`
	Status         string     `bun:"status,notnull"`
	Graph          graphJSON  `bun:"graph,type:jsonb"`
	ScheduleStart  string     `bun:"schedule_start"`
	ScheduleEnd    string     `bun:"schedule_end"`
	ScheduleTZ     string     `bun:"schedule_tz"`
	SentDay        int        `bun:"sent_day,notnull"`
	SentWeek       int        `bun:"sent_week,notnull"`
	LastDayReset   *time.Time `bun:"last_day_reset_at"`
	LastWeekReset  *time.Time `bun:"last_week_reset_at"`
	DailyLimit     int        `bun:"daily_limit,notnull"`
	WeeklyLimit    int        `bun:"weekly_limit,notnull"`
	CreatedAt      time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

func campaignToModel(c *domain.Campaign) *CampaignModel {
	q := c.Quota()
	s := c.Schedule()
	return &CampaignModel{
		ID:             c.ID(),
		OrganizationID: c.OrganizationID(),
		AccountID:      c.AccountID(),
		Status:         string(c.Status()),
		Graph:          graphToJSON(c.Graph()),
		ScheduleStart:  s.StartHHMM,
		ScheduleEnd:    s.EndHHMM,
		ScheduleTZ:     s.TZ,
		SentDay:        q.SentDay,
		SentWeek:       q.SentWeek,
		LastDayReset:   q.LastDayResetAt,
		LastWeekReset:  q.LastWeekResetAt,
		DailyLimit:     c.DailyLimit(),
		WeeklyLimit:    c.WeeklyLimit(),
		CreatedAt:      c.CreatedAt(),
		UpdatedAt:      c.UpdatedAt(),
	}
}

func modelToCampaign(m *CampaignModel) *domain.Campaign {
	graph := graphFromJSON(m.ID, m.Graph)
	schedule := domain.ScheduleWindow{StartHHMM: m.ScheduleStart, EndHHMM: m.ScheduleEnd, TZ: m.ScheduleTZ}
	quota := domain.QuotaCounters{
		SentDay:         m.SentDay,
		SentWeek:        m.SentWeek,
		LastDayResetAt:  m.LastDayReset,
		LastWeekResetAt: m.LastWeekReset,
	}
	return domain.ReconstructCampaign(m.ID, m.OrganizationID, m.AccountID, domain.CampaignStatus(m.Status), graph, schedule, quota, m.DailyLimit, m.WeeklyLimit, m.CreatedAt, m.UpdatedAt)
}

// BunCampaignStore is the Postgres-backed CampaignStore.
type BunCampaignStore struct {
	db *bun.DB
}

// NewBunCampaignStore wraps an existing bun.DB for campaign persistence.
func NewBunCampaignStore(db *bun.DB) *BunCampaignStore {
	return &BunCampaignStore{db: db}
}

// InitSchema creates the campaigns table if it doesn't already exist.
func (s *BunCampaignStore) InitSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*CampaignModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Get returns the campaign with the given ID.
func (s *BunCampaignStore) Get(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	var m CampaignModel
	if err := s.db.NewSelect().Model(&m).Where("id = ?", campaignID).Scan(ctx); err != nil {
		return nil, err
	}
	return modelToCampaign(&m), nil
}

// Save upserts a campaign.
func (s *BunCampaignStore) Save(ctx context.Context, c *domain.Campaign) error {
	m := campaignToModel(c)
	_, err := s.db.NewInsert().
		Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("graph = EXCLUDED.graph").
		Set("schedule_start = EXCLUDED.schedule_start").
		Set("schedule_end = EXCLUDED.schedule_end").
		Set("schedule_tz = EXCLUDED.schedule_tz").
		Set("sent_day = EXCLUDED.sent_day").
		Set("sent_week = EXCLUDED.sent_week").
		Set("last_day_reset_at = EXCLUDED.last_day_reset_at").
		Set("last_week_reset_at = EXCLUDED.last_week_reset_at").
		Set("daily_limit = EXCLUDED.daily_limit").
		Set("weekly_limit = EXCLUDED.weekly_limit").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// UpdateQuota performs the read-modify-write inside a transaction with a
// row-level lock, serializing concurrent lead workflows of the same
// campaign.
func (s *BunCampaignStore) UpdateQuota(ctx context.Context, campaignID string, mutate func(domain.QuotaCounters) domain.QuotaCounters) (domain.QuotaCounters, error) {
	var updated domain.QuotaCounters
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var m CampaignModel
		if err := tx.NewSelect().Model(&m).Where("id = ?", campaignID).For("UPDATE").Scan(ctx); err != nil {
			return err
		}
		current := domain.QuotaCounters{
			SentDay:         m.SentDay,
			SentWeek:        m.SentWeek,
			LastDayResetAt:  m.LastDayReset,
			LastWeekResetAt: m.LastWeekReset,
		}
		updated = mutate(current)
		_, err := tx.NewUpdate().
			Model((*CampaignModel)(nil)).
			Set("sent_day = ?", updated.SentDay).
			Set("sent_week = ?", updated.SentWeek).
			Set("last_day_reset_at = ?", updated.LastDayResetAt).
			Set("last_week_reset_at = ?", updated.LastWeekResetAt).
			Where("id = ?", campaignID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return domain.QuotaCounters{}, err
	}
	return updated, nil
}

// LeadModel is the bun model backing the Postgres-persisted lead aggregate.
type LeadModel struct {
	bun.BaseModel `bun:"table:leads,alias:ld"`

	ID          string    `bun:"id,pk"`
	CampaignID  string    `bun:"campaign_id,notnull"`
	FirstName   string    `bun:"first_name"`
	LastName    string    `bun:"last_name"`
	ProfileURL  string    `bun:"profile_url,notnull"`
	Status      string    `bun:"status,notnull"`
	CurrentStep int       `bun:"current_step,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func leadToModel(l *domain.Lead) *LeadModel {
	return &LeadModel{
		ID:          l.ID(),
		CampaignID:  l.CampaignID(),
		FirstName:   l.FirstName(),
		LastName:    l.LastName(),
		ProfileURL:  l.ProfileURL(),
		Status:      string(l.Status()),
		CurrentStep: l.CurrentStep(),
		CreatedAt:   l.CreatedAt(),
		UpdatedAt:   l.UpdatedAt(),
	}
}

func modelToLead(m *LeadModel) *domain.Lead {
	return domain.ReconstructLead(m.ID, m.CampaignID, m.FirstName, m.LastName, m.ProfileURL, domain.LeadStatus(m.Status), m.CurrentStep, m.CreatedAt, m.UpdatedAt)
}

// BunLeadStore is the Postgres-backed LeadStore.
type BunLeadStore struct {
	db *bun.DB
}

// NewBunLeadStore wraps an existing bun.DB for lead persistence.
func NewBunLeadStore(db *bun.DB) *BunLeadStore {
	return &BunLeadStore{db: db}
}

// InitSchema creates the leads table if it doesn't already exist.
func (s *BunLeadStore) InitSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*LeadModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Get returns the lead with the given ID.
func (s *BunLeadStore) Get(ctx context.Context, leadID string) (*domain.Lead, error) {
	var m LeadModel
	if err := s.db.NewSelect().Model(&m).Where("id = ?", leadID).Scan(ctx); err != nil {
		return nil, err
	}
	return modelToLead(&m), nil
}

// Save upserts a lead.
func (s *BunLeadStore) Save(ctx context.Context, l *domain.Lead) error {
	m := leadToModel(l)
	_, err := s.db.NewInsert().
		Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("current_step = EXCLUDED.current_step").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ListByCampaign returns all leads attached to campaignID, ordered by
// creation order.
func (s *BunLeadStore) ListByCampaign(ctx context.Context, campaignID string) ([]*domain.Lead, error) {
	var records []LeadModel
	err := s.db.NewSelect().
		Model(&records).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Lead, 0, len(records))
	for i := range records {
		out = append(out, modelToLead(&records[i]))
	}
	return out, nil
}

// ConnectedAccountModel is the bun model backing the Postgres-persisted
// connected account; this table is owned by an upstream system and the
// engine only ever reads it.
type ConnectedAccountModel struct {
	bun.BaseModel `bun:"table:connected_accounts,alias:ca"`

	ID                string `bun:"id,pk"`
	OrganizationID    string `bun:"organization_id,notnull"`
	ProviderAccountID string `bun:"provider_account_id,notnull"`
	Status            string `bun:"status,notnull"`
}

// BunConnectedAccountStore is the Postgres-backed, read-only
// ConnectedAccountStore.
type BunConnectedAccountStore struct {
	db *bun.DB
}

// NewBunConnectedAccountStore wraps an existing bun.DB for connected
// account lookups.
func NewBunConnectedAccountStore(db *bun.DB) *BunConnectedAccountStore {
	return &BunConnectedAccountStore{db: db}
}

// Get returns the connected account with the given ID.
func (s *BunConnectedAccountStore) Get(ctx context.Context, accountID string) (*domain.ConnectedAccount, error) {
	var m ConnectedAccountModel
	if err := s.db.NewSelect().Model(&m).Where("id = ?", accountID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("connected account %s: %w", accountID, err)
	}
	return domain.NewConnectedAccount(m.ID, m.OrganizationID, m.ProviderAccountID, domain.ConnectedAccountStatus(m.Status)), nil
}

package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

type webhookLeadPayload struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ProfileURL string `json:"profileUrl"`
	Status     string `json:"status"`
}

type webhookStepPayload struct {
	StepIndex int            `json:"stepIndex"`
	Kind      string         `json:"kind"`
	Success   bool           `json:"success"`
	Result    map[string]any `json:"result"`
}

// webhookExecutor implements the Webhook node kind: a best-effort outbound
// POST of the lead's current state and step history.
type webhookExecutor struct {
	deps       Deps
	httpClient *http.Client
}

func (e *webhookExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg, err := parseConfig[WebhookConfig](req.Node.Config())
	if err != nil || cfg.URL == "" {
		return &Result{Verdict: domain.VerdictPermanent, Success: false, Detail: "webhook node missing url"}, nil
	}

	steps, err := e.deps.Ledger.ListForLead(ctx, req.Lead.ID())
	if err != nil {
		return nil, err
	}
	stepPayloads := make([]webhookStepPayload, 0, len(steps))
	for _, s := range steps {
		stepPayloads = append(stepPayloads, webhookStepPayload{
			StepIndex: s.StepIndex(),
			Kind:      string(s.Kind()),
			Success:   s.Success(),
			Result:    s.Result(),
		})
	}

	body := map[string]any{
		"lead": webhookLeadPayload{
			ID:         req.Lead.ID(),
			FirstName:  req.Lead.FirstName(),
			LastName:   req.Lead.LastName(),
			ProfileURL: req.Lead.ProfileURL(),
			Status:     string(req.Lead.Status()),
		},
		"leadSteps": stepPayloads,
	}

	client := e.httpClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	verdict, code, detail := withRetry(ctx, e.deps.Runtime, e.deps.Retry, func(ctx context.Context) error {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	})
	return &Result{Verdict: verdict, Success: verdict.IsSuccess(), ErrorCode: code, Detail: detail}, nil
}

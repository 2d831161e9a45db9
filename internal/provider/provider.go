// Package provider is a typed HTTP client over the external outreach
// aggregator API: profile lookup, like, comment, invite, invite-cancel,
// relation list, invite list, and message send.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	domainerrors "github.com/smilemakc/outreach-engine/internal/domain/errors"
)

// Error is the wire shape of a provider failure: an HTTP status alongside
// the aggregator's own typed error body. This is the only place in the
// engine that inspects the provider's raw error shape; everywhere else
// switches on a classifier verdict instead.
type Error struct {
	HTTPStatus int
	TypedCode  string
	Detail     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %d %s: %s", e.HTTPStatus, e.TypedCode, e.Detail)
}

type errorBody struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
	Status string `json:"status"`
}

// VisitResult is the profile snapshot returned by VisitProfile.
type VisitResult struct {
	ProviderID string
	FirstName  string
	LastName   string
	LastCompany string
}

// SentInvitation is one row from ListSentInvitations.
type SentInvitation struct {
	InvitedProviderID string
	InvitationID      string
}

// Client is a throttled HTTP wrapper over the outreach provider's API. The
// rate limiter bounds total outbound calls per process, distinct from the
// per-campaign quota gate in internal/quota.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a provider Client. ratePerSecond bounds outbound calls
// process-wide; burst allows short spikes above that steady rate.
func New(baseURL, token string, ratePerSecond float64, burst int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// ExtractPublicIdentifier extracts the opaque slug portion of a profile or
// company URL: the path component after "/in/" or "/company/", trimmed of
// trailing slashes. Returns an empty string if neither marker is present.
func ExtractPublicIdentifier(profileURL string) string {
	u, err := url.Parse(profileURL)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if (seg == "in" || seg == "company") && i+1 < len(segments) {
			return strings.Trim(segments[i+1], "/")
		}
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &domainerrors.ConfigurationError{Component: "provider", Message: err.Error()}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{HTTPStatus: 0, TypedCode: "", Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{HTTPStatus: resp.StatusCode, TypedCode: "", Detail: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		return &Error{HTTPStatus: resp.StatusCode, TypedCode: eb.Type, Detail: eb.Detail}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &domainerrors.ConfigurationError{Component: "provider", Message: "failed to decode response: " + err.Error()}
		}
	}
	return nil
}

// VisitProfile visits a profile and returns the provider's opaque id plus
// the name fields the node executors template into outreach messages.
func (c *Client) VisitProfile(ctx context.Context, accountID, publicIdentifier string, notify bool) (*VisitResult, error) {
	var out struct {
		ProviderID  string `json:"provider_id"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		LastCompany string `json:"last_company"`
	}
	body := map[string]any{
		"account_id":        accountID,
		"public_identifier": publicIdentifier,
		"notify":            notify,
	}
	if err := c.do(ctx, http.MethodPost, "/profile/visit", body, &out); err != nil {
		return nil, err
	}
	return &VisitResult{
		ProviderID:  out.ProviderID,
		FirstName:   out.FirstName,
		LastName:    out.LastName,
		LastCompany: out.LastCompany,
	}, nil
}

// LikeRecentPost likes a random post from the last lookbackDays; success
// with no effect if the account has no recent posts.
func (c *Client) LikeRecentPost(ctx context.Context, accountID, providerID string, lookbackDays int, reaction string) error {
	body := map[string]any{
		"account_id":    accountID,
		"provider_id":   providerID,
		"lookback_days": lookbackDays,
		"reaction":      reaction,
	}
	return c.do(ctx, http.MethodPost, "/posts/like", body, nil)
}

// CommentRecentPost comments on a random post from the last lookbackDays;
// success with no effect if the account has no recent posts.
func (c *Client) CommentRecentPost(ctx context.Context, accountID, providerID string, lookbackDays int, commentText string) error {
	body := map[string]any{
		"account_id":    accountID,
		"provider_id":   providerID,
		"lookback_days": lookbackDays,
		"comment_text":  commentText,
	}
	return c.do(ctx, http.MethodPost, "/posts/comment", body, nil)
}

// SendInvitation sends a connection request, with an optional message.
func (c *Client) SendInvitation(ctx context.Context, accountID, providerID, message string) error {
	body := map[string]any{
		"account_id":  accountID,
		"provider_id": providerID,
		"message":     message,
	}
	return c.do(ctx, http.MethodPost, "/invitations/send", body, nil)
}

// ListSentInvitations lists the account's currently outstanding invitations.
func (c *Client) ListSentInvitations(ctx context.Context, accountID string) ([]SentInvitation, error) {
	var out []struct {
		InvitedProviderID string `json:"invited_provider_id"`
		InvitationID      string `json:"invitation_id"`
	}
	path := fmt.Sprintf("/invitations/sent?account_id=%s", url.QueryEscape(accountID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	result := make([]SentInvitation, 0, len(out))
	for _, i := range out {
		result = append(result, SentInvitation{InvitedProviderID: i.InvitedProviderID, InvitationID: i.InvitationID})
	}
	return result, nil
}

// CancelInvitation withdraws a previously sent invitation.
func (c *Client) CancelInvitation(ctx context.Context, accountID, invitationID string) error {
	body := map[string]any{
		"account_id":    accountID,
		"invitation_id": invitationID,
	}
	return c.do(ctx, http.MethodPost, "/invitations/cancel", body, nil)
}

// IsConnected reports whether the account is already connected to the
// target public identifier, via the relation listing.
func (c *Client) IsConnected(ctx context.Context, accountID, publicIdentifier string) (bool, error) {
	var out struct {
		Connected bool `json:"connected"`
	}
	path := fmt.Sprintf("/relations/is-connected?account_id=%s&public_identifier=%s",
		url.QueryEscape(accountID), url.QueryEscape(publicIdentifier))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Connected, nil
}

// SendMessage sends a direct message to one or more recipients.
func (c *Client) SendMessage(ctx context.Context, accountID string, recipientIDs []string, text string) error {
	body := map[string]any{
		"account_id":    accountID,
		"recipient_ids": recipientIDs,
		"text":          text,
	}
	return c.do(ctx, http.MethodPost, "/messages/send", body, nil)
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/assessment"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/chain"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/taxops"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/timeline"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/types/ids"
)

// Client talks to a node's HTTP API.
type Client struct {
	rc *resty.Client
}

// NewClient targets baseURL and sends token as a bearer token when non-empty.
func NewClient(baseURL, token string) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}
	return &Client{rc: rc}
}

// APIError is a non-2xx response from the node.
type APIError struct {
	Status  int
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("node returned %d", e.Status)
	}
	return fmt.Sprintf("node returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the node.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	apiErr := &APIError{}
	req := c.rc.R().SetContext(ctx).SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return nil
}

// HealthMetrics mirrors the node's /api/health body.
type HealthMetrics struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	Metrics    struct {
		UptimeSeconds  int64   `json:"uptime_seconds"`
		BlockHeight    int     `json:"block_height"`
		Assessments    int     `json:"assessments"`
		CPULoadPercent float64 `json:"cpu_load_percent"`
		MemoryMB       float64 `json:"memory_mb"`
		DiskFreeMB     float64 `json:"disk_free_mb"`
		LastBlockTime  string  `json:"last_block_time"`
	} `json:"metrics"`
}

func (c *Client) GetHealthMetrics(ctx context.Context) (HealthMetrics, error) {
	var h HealthMetrics
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &h)
	return h, errors.WithMessage(err, "health")
}

type Chain struct {
	Height int           `json:"height"`
	Blocks []block.Block `json:"blocks"`
}

func (c *Client) GetChain(ctx context.Context) (Chain, error) {
	var ch Chain
	err := c.do(ctx, http.MethodGet, "/api/chain", nil, &ch)
	return ch, errors.WithMessage(err, "chain")
}

// Verification mirrors the node's /api/chain/verify body.
type Verification struct {
	OK        bool   `json:"ok"`
	Height    int    `json:"height"`
	TipDigest string `json:"tipDigest"`
	Root      string `json:"root"`
}

// VerifyChain checks the node's own verification, then fetches the chain, checks its
// links and fingerprints locally and compares the served blocks with the node's sealed
// commitment.
func (c *Client) VerifyChain(ctx context.Context) (Chain, error) {
	var v Verification
	if err := c.do(ctx, http.MethodGet, "/api/chain/verify", nil, &v); err != nil {
		return Chain{}, errors.WithMessage(err, "verify chain")
	}
	ch, err := c.GetChain(ctx)
	if err != nil {
		return ch, err
	}
	if err := chain.VerifyChain(ch.Blocks); err != nil {
		return ch, err
	}
	if v.Height < 1 || v.Height > len(ch.Blocks) {
		return ch, errors.Errorf("node sealed %d blocks but served %d", v.Height, len(ch.Blocks))
	}
	// the chain may have grown between the two calls; compare the sealed prefix
	sealed := ch.Blocks[:v.Height]
	tip, err := ids.FromString(v.TipDigest)
	if err != nil {
		return ch, errors.Wrap(err, "node tip digest")
	}
	if d, err := block.Digest(sealed[len(sealed)-1]); err != nil || d != tip {
		return ch, &chain.ChainIntegrityError{Index: uint64(v.Height - 1), Reason: "served block differs from the sealed digest"}
	}
	served, err := chain.ChainCommitment(sealed)
	if err != nil {
		return ch, err
	}
	if served.Root != v.Root {
		return ch, &chain.ChainIntegrityError{Index: uint64(v.Height - 1), Reason: "served chain does not match the sealed root"}
	}
	return ch, nil
}

// Assessment is an assessment as served by the node, with its computed balance.
type Assessment struct {
	assessment.Assessment
	Balance string `json:"balance"`
}

func (c *Client) GetAssessment(ctx context.Context, id string) (Assessment, error) {
	var a Assessment
	err := c.do(ctx, http.MethodGet, "/api/assessments/"+url.PathEscape(id), nil, &a)
	return a, errors.WithMessagef(err, "get assessment %s", id)
}

// CreateAssessment posts a raw assessment document; the node normalises field names.
func (c *Client) CreateAssessment(ctx context.Context, doc map[string]interface{}) (taxops.Result, error) {
	var res taxops.Result
	err := c.do(ctx, http.MethodPost, "/api/assessments", doc, &res)
	return res, errors.WithMessage(err, "create assessment")
}

func (c *Client) DeleteAssessment(ctx context.Context, id string) error {
	return errors.WithMessagef(c.do(ctx, http.MethodDelete, "/api/assessments/"+url.PathEscape(id), nil, nil), "delete assessment %s", id)
}

func (c *Client) ApplyPenalty(ctx context.Context, id, amount, reason string) (taxops.Result, error) {
	var res taxops.Result
	err := c.do(ctx, http.MethodPost, "/api/assessments/"+url.PathEscape(id)+"/penalty",
		map[string]string{"amount": amount, "reason": reason}, &res)
	return res, errors.WithMessagef(err, "penalty for %s", id)
}

func (c *Client) ApplyInterest(ctx context.Context, id, rate, reason string) (taxops.Result, error) {
	var res taxops.Result
	err := c.do(ctx, http.MethodPost, "/api/assessments/"+url.PathEscape(id)+"/interest",
		map[string]string{"rate": rate, "reason": reason}, &res)
	return res, errors.WithMessagef(err, "interest for %s", id)
}

func (c *Client) RecordPayment(ctx context.Context, id, amount, reference string) (taxops.Result, error) {
	var res taxops.Result
	err := c.do(ctx, http.MethodPost, "/api/assessments/"+url.PathEscape(id)+"/payments",
		map[string]string{"amount": amount, "reference": reference}, &res)
	return res, errors.WithMessagef(err, "payment for %s", id)
}

type Timeline struct {
	AssessmentID string                  `json:"assessmentId"`
	Events       []timeline.DisplayEvent `json:"events"`
}

func (c *Client) GetTimeline(ctx context.Context, assessmentID string) (Timeline, error) {
	var tl Timeline
	path := "/api/timeline"
	if assessmentID != "" {
		path += "?assessmentId=" + url.QueryEscape(assessmentID)
	}
	err := c.do(ctx, http.MethodGet, path, nil, &tl)
	return tl, errors.WithMessage(err, "timeline")
}

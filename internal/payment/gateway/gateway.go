// Package gateway wraps the hosted payment provider's HTTP API behind typed
// results. Network faults surface as errors; gateway-reported declines are
// data in the result, not errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// InitializeRequest asks the gateway to open a hosted checkout session.
type InitializeRequest struct {
	Email         string
	AmountKobo    int64
	Reference     string
	CallbackURL   string
	ApplicationID int64
}

// InitializeResult is the gateway's answer to an initialize call.
type InitializeResult struct {
	// OK mirrors the gateway's own status flag. False means the gateway
	// refused the initialization; Message says why.
	OK               bool
	AuthorizationURL string
	Message          string
	Raw              json.RawMessage
}

// VerifyResult is the gateway's server-side answer for one reference. Only
// this answer is trusted when confirming a payment; client-supplied status
// never is.
type VerifyResult struct {
	Paid    bool
	Message string
	Raw     json.RawMessage
}

// Client is the outbound payment gateway contract.
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// Paystack talks to the Paystack transaction API.
type Paystack struct {
	secretKey     string
	baseURL       string
	initTimeout   time.Duration
	verifyTimeout time.Duration
	httpClient    *http.Client
}

// NewPaystack builds a client for the given API credentials.
func NewPaystack(secretKey, baseURL string, initTimeout, verifyTimeout time.Duration) *Paystack {
	return &Paystack{
		secretKey:     secretKey,
		baseURL:       baseURL,
		initTimeout:   initTimeout,
		verifyTimeout: verifyTimeout,
		httpClient:    &http.Client{},
	}
}

const maxResponseBytes = 1 << 20

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.initTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"email":        req.Email,
		"amount":       req.AmountKobo,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
		"metadata": map[string]any{
			"application_id": req.ApplicationID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal initialize payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build initialize request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	raw, err := p.do(httpReq)
	if err != nil {
		return nil, err
	}

	var body struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}
	return &InitializeResult{
		OK:               body.Status,
		AuthorizationURL: body.Data.AuthorizationURL,
		Message:          body.Message,
		Raw:              raw,
	}, nil
}

func (p *Paystack) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.verifyTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)

	raw, err := p.do(httpReq)
	if err != nil {
		return nil, err
	}

	var body struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	return &VerifyResult{
		Paid:    body.Data.Status == "success",
		Message: body.Message,
		Raw:     raw,
	}, nil
}

func (p *Paystack) do(req *http.Request) (json.RawMessage, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	return raw, nil
}

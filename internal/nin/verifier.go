// Package nin wraps the external National Identification Number verification
// gateway behind a uniform result type. Verification failure is data, not an
// exception: network faults, timeouts and non-200 responses all collapse to
// Verified=false and never reach the caller as an error.
package nin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"lgac/internal/identity"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/circuit"
)

// Result is the uniform verification outcome.
type Result struct {
	Verified bool
	// Raw is the gateway's response body, kept for audit purposes. Nil when
	// verification never reached the gateway.
	Raw json.RawMessage
}

// Verifier checks a NIN against the national registry.
type Verifier interface {
	Verify(ctx context.Context, nin string) (Result, error)
}

// HTTPVerifier calls the VerifyMe-style gateway:
// POST <base>/v1/verifications/nin with a bearer key and {"nin": "..."}.
type HTTPVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
	breaker *circuit.Breaker
}

func NewHTTPVerifier(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		breaker: circuit.New("nin-gateway", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
	}
}

// Verify validates the input format, then asks the gateway. The only error it
// returns is the format violation, raised before any network call.
func (v *HTTPVerifier) Verify(ctx context.Context, nin string) (Result, error) {
	if !identity.ValidNIN(nin) {
		return Result{}, dErrors.New(dErrors.CodeValidation, "NIN must be exactly 11 digits")
	}

	payload, err := json.Marshal(map[string]string{"nin": nin})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode verification request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/v1/verifications/nin", bytes.NewReader(payload))
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "build verification request")
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		v.recordFailure(ctx)
		v.logger.WarnContext(ctx, "nin gateway unreachable", "error", err)
		return Result{Verified: false}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		v.recordFailure(ctx)
		v.logger.WarnContext(ctx, "nin gateway error", "status", resp.StatusCode)
		return Result{Verified: false}, nil
	}
	v.recordSuccess(ctx)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		v.logger.WarnContext(ctx, "nin gateway response unreadable", "error", err)
		return Result{Verified: false}, nil
	}

	if resp.StatusCode != http.StatusOK {
		v.logger.WarnContext(ctx, "nin gateway rejected request", "status", resp.StatusCode)
		return Result{Verified: false, Raw: body}, nil
	}

	var parsed struct {
		Status bool `json:"status"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || !parsed.Status {
		return Result{Verified: false, Raw: body}, nil
	}
	return Result{Verified: true, Raw: body}, nil
}

func (v *HTTPVerifier) recordFailure(ctx context.Context) {
	if _, change := v.breaker.RecordFailure(); change.Opened {
		v.logger.ErrorContext(ctx, "nin gateway circuit opened", "breaker", v.breaker.Name())
	}
}

func (v *HTTPVerifier) recordSuccess(ctx context.Context) {
	if _, change := v.breaker.RecordSuccess(); change.Closed {
		v.logger.InfoContext(ctx, "nin gateway circuit closed", "breaker", v.breaker.Name())
	}
}

// MockVerifier always verifies without touching the network. It is selected
// only by the explicit NIN_VERIFY_MOCK configuration switch for environments
// without gateway credentials, never as a fallback from gateway errors.
type MockVerifier struct{}

func (MockVerifier) Verify(_ context.Context, nin string) (Result, error) {
	if !identity.ValidNIN(nin) {
		return Result{}, dErrors.New(dErrors.CodeValidation, "NIN must be exactly 11 digits")
	}
	return Result{Verified: true, Raw: json.RawMessage(`{"status":true,"source":"mock"}`)}, nil
}

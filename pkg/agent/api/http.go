package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/common"
	"github.com/NeuralTrust/TrustShield/pkg/infra/httpx"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/sirupsen/logrus"
)

var ErrFailedReportCall = errors.New("reporting service call failed")

// HTTPReporter posts events as JSON to the reporting backend.
type HTTPReporter struct {
	baseURL        string
	client         httpx.Client
	circuitBreaker httpx.CircuitBreaker
	logger         *logrus.Logger
}

func NewHTTPReporter(
	baseURL string,
	client httpx.Client,
	circuitBreaker httpx.CircuitBreaker,
	logger *logrus.Logger,
) *HTTPReporter {
	if client == nil {
		client = &http.Client{Timeout: common.DefaultReportTimeout}
	}
	return &HTTPReporter{
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         client,
		circuitBreaker: circuitBreaker,
		logger:         logger,
	}
}

func (r *HTTPReporter) Report(ctx context.Context, token Token, event types.Event) (ReportingResult, error) {
	if token.IsEmpty() {
		return Failed(ErrorInvalidToken), nil
	}

	var result ReportingResult
	call := func() error {
		var err error
		result, err = r.send(ctx, token, event)
		return err
	}

	var err error
	if r.circuitBreaker != nil {
		err = r.circuitBreaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Failed(ErrorTimeout), err
		}
		if !errors.Is(err, context.Canceled) {
			r.logger.WithError(err).WithField("event", event.Type()).Error("failed to report event")
		}
		return Failed(ErrorUnknown), err
	}
	return result, nil
}

func (r *HTTPReporter) send(ctx context.Context, token Token, event types.Event) (ReportingResult, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return Failed(ErrorUnknown), fmt.Errorf("failed to marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+common.EventsPath, bytes.NewReader(body))
	if err != nil {
		return Failed(ErrorUnknown), fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.TokenHeader, token.String())

	resp, err := r.client.Do(req)
	if err != nil {
		return Failed(ErrorUnknown), fmt.Errorf("failed to call reporting service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Succeeded(), nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return Failed(ErrorRateLimited), nil
	case resp.StatusCode == http.StatusUnauthorized:
		return Failed(ErrorInvalidToken), nil
	case resp.StatusCode >= 500:
		return Failed(ErrorUnknown), fmt.Errorf("%w: status %d", ErrFailedReportCall, resp.StatusCode)
	default:
		r.logger.WithField("status_code", resp.StatusCode).Warn("reporting service rejected event")
		return Failed(ErrorUnknown), nil
	}
}

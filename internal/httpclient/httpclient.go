// Package httpclient builds the resty clients used for external collaborators.
package httpclient

import (
	"errors"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/alphabot-ai/storyx/internal/metrics"
)

// ErrNotConfigured is returned by a collaborator whose credentials or URL
// were not supplied.
var ErrNotConfigured = errors.New("not configured")

type missingSetting string

func (m missingSetting) Error() string        { return string(m) + " not set" }
func (m missingSetting) Is(target error) bool { return target == ErrNotConfigured }

// NotConfigured reports that the named setting is empty.
func NotConfigured(setting string) error {
	return missingSetting(setting)
}

// UpstreamError is a non-2xx response from an external service.
type UpstreamError struct {
	Service string
	Status  int
	Detail  string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, e.Detail)
}

// New returns a client rooted at baseURL.
func New(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "storyx")
}

// Check turns a non-2xx response into an *UpstreamError and counts it.
func Check(service string, res *resty.Response) error {
	if res.IsSuccess() {
		return nil
	}
	metrics.ObserveUpstreamError(service)
	return &UpstreamError{
		Service: service,
		Status:  res.StatusCode(),
		Detail:  res.String(),
	}
}

// Failed counts a transport-level failure and wraps it.
func Failed(service string, err error) error {
	metrics.ObserveUpstreamError(service)
	return fmt.Errorf("%s request: %w", service, err)
}

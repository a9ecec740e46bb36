package youtube

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		wantErr error
	}{
		{"missing key", "", ErrMissingAPIKey},
		{"valid key", "test-api-key-12345", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.APIKey = tt.apiKey
			c, err := NewClient(cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewClient() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && c == nil {
				t.Error("NewClient() returned nil client for valid key")
			}
		})
	}
}

func TestNewClientAppliesDefaults(t *testing.T) {
	c, err := NewClient(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	if c.timeout != DefaultConfig().CallTimeout {
		t.Errorf("timeout = %v, want default %v", c.timeout, DefaultConfig().CallTimeout)
	}
	if c.limiter == nil || c.breaker == nil {
		t.Error("limiter and breaker must be constructed")
	}
}

func TestVideoDetailsEmptyBatch(t *testing.T) {
	c, err := NewClient(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	videos, err := c.VideoDetails(context.Background(), nil)
	if err != nil {
		t.Errorf("VideoDetails(nil) error = %v, want nil", err)
	}
	if videos != nil {
		t.Errorf("VideoDetails(nil) = %v, want nil", videos)
	}
}

func TestVideoDetailsRejectsOversizeBatch(t *testing.T) {
	c, err := NewClient(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	ids := make([]string, MaxBatchSize+1)
	for i := range ids {
		ids[i] = "id"
	}

	if _, err := c.VideoDetails(context.Background(), ids); err == nil {
		t.Error("VideoDetails() with oversize batch should fail before any network call")
	}
}

func TestIsRetryableAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"channel not found", ErrChannelNotFound, false},
		{"breaker open", ErrBreakerOpen, false},
		{"canceled", context.Canceled, false},
		{"per-call deadline", context.DeadlineExceeded, true},
		{"quota", errors.New("googleapi: Error 403: quotaExceeded"), true},
		{"rate limit", errors.New("googleapi: Error 403: rateLimitExceeded"), true},
		{"server error", errors.New("googleapi: Error 500: backendError"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableAPIError(tt.err); got != tt.want {
				t.Errorf("isRetryableAPIError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	// Wrapped sentinels classify the same as bare ones.
	wrapped := errors.Join(errors.New("channels.list"), ErrChannelNotFound)
	if isRetryableAPIError(wrapped) {
		t.Error("wrapped ErrChannelNotFound should not be retryable")
	}
	if !strings.Contains(wrapped.Error(), "channel not found") {
		t.Fatalf("test setup: wrapped error lost its message: %v", wrapped)
	}
}

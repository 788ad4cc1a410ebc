package providers

import (
	"errors"
	"fmt"
	"testing"

	"retailqa/internal/util"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota": ErrorQuota,
		"429 rate":           ErrorRate,
		"context too long":   ErrorContext,
		"timeout":            ErrorTransient,
		"connection refused": ErrorTransient,
		"bad request":        ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
}

func TestClassifyErrorSentinels(t *testing.T) {
	if got := ClassifyError(fmt.Errorf("%w: openai 429", util.ErrRateLimited)); got != ErrorRate {
		t.Fatalf("rate sentinel: got %s", got)
	}
	if got := ClassifyError(fmt.Errorf("%w: openai 403", util.ErrQuotaExhausted)); got != ErrorQuota {
		t.Fatalf("quota sentinel: got %s", got)
	}
}

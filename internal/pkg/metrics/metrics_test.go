package metrics_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/metrics"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("wrap: %w", domain.ErrInvalidInput), "invalid_input"},
		{fmt.Errorf("wrap: %w", domain.ErrNumericOverflow), "numeric_overflow"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := metrics.Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

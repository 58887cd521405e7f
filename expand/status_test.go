package expand_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/repository-index-adapter/domain"
	"github.com/openarchive/repository-index-adapter/expand"
)

func TestMapStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		internal domain.TicketStatus
		want     expand.Status
	}{
		{domain.TicketStatusNew, expand.StatusNew},
		{domain.TicketStatusPending, expand.StatusPending},
		{domain.TicketStatusAssigned, expand.StatusPending},
		{domain.TicketStatusCompleted, expand.StatusCompleted},
		{domain.TicketStatusClosed, expand.StatusClosed},
		{domain.TicketStatusNotApplicable, expand.StatusClosed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expand.MapStatus(tt.internal))
	}
}

func TestMapStatusIsTotal(t *testing.T) {
	t.Parallel()

	for _, status := range domain.TicketStatuses {
		status := status
		require.NotPanics(t, func() { expand.MapStatus(status) })
	}
}

func TestMapStatusPanicsOnUnknownStatus(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { expand.MapStatus(domain.TicketStatus("Draft")) })
}

package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/biscenic/commerce-backend/pkg/enums"
)

func TestExpirePendingDropsStaleSnapshot(t *testing.T) {
	session := &Session{
		SessionID: "sess-1",
		Step:      enums.StepSummary,
		PendingPayment: &PendingPayment{
			TxRef:     "BSC-abc",
			CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
		},
	}

	changed := expirePending(session, 24*time.Hour)
	assert.True(t, changed)
	assert.False(t, session.HasPendingPayment())
	assert.Equal(t, enums.StepPayment, session.Step)
}

func TestExpirePendingKeepsFreshSnapshot(t *testing.T) {
	session := &Session{
		SessionID: "sess-1",
		Step:      enums.StepSummary,
		PendingPayment: &PendingPayment{
			TxRef:     "BSC-abc",
			CreatedAt: time.Now().UTC().Add(-time.Hour),
		},
	}

	assert.False(t, expirePending(session, 24*time.Hour))
	assert.True(t, session.HasPendingPayment())
	assert.Equal(t, enums.StepSummary, session.Step)
}

func TestExpirePendingDisabledByZeroTTL(t *testing.T) {
	session := &Session{
		SessionID: "sess-1",
		Step:      enums.StepSummary,
		PendingPayment: &PendingPayment{
			TxRef:     "BSC-abc",
			CreatedAt: time.Now().UTC().Add(-30 * 24 * time.Hour),
		},
	}

	assert.False(t, expirePending(session, 0))
	assert.True(t, session.HasPendingPayment())
}

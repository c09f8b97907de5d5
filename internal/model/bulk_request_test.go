package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(7 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	cases := []struct {
		name     string
		needed   float64
		pledged  float64
		deadline time.Time
		stored   RequestStatus
		want     RequestStatus
	}{
		{"fresh request is open", 100, 0, future, RequestOpen, RequestOpen},
		{"partial pledge", 100, 40, future, RequestOpen, RequestPartiallyFilled},
		{"exact fill", 100, 100, future, RequestPartiallyFilled, RequestFullyFilled},
		{"over-pledge still fully filled", 100, 130, future, RequestPartiallyFilled, RequestFullyFilled},
		{"deadline passed", 100, 0, past, RequestOpen, RequestExpired},
		{"deadline passed with partial pledge", 100, 40, past, RequestPartiallyFilled, RequestExpired},
		{"fully filled survives deadline", 100, 100, past, RequestFullyFilled, RequestFullyFilled},
		{"closed is sticky", 100, 100, future, RequestClosed, RequestClosed},
		{"closed is sticky past deadline", 100, 0, past, RequestClosed, RequestClosed},
		{"all pledges withdrawn reopens", 100, 0, future, RequestPartiallyFilled, RequestOpen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveStatus(tc.needed, tc.pledged, tc.deadline, tc.stored, now)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestQuantityRemaining(t *testing.T) {
	r := BulkRequest{QuantityNeeded: 100}

	r.QuantityPledged = 0
	assert.Equal(t, 100.0, r.QuantityRemaining())

	r.QuantityPledged = 40
	assert.Equal(t, 60.0, r.QuantityRemaining())

	// over-pledged requests report zero remaining, never negative
	r.QuantityPledged = 130
	assert.Equal(t, 0.0, r.QuantityRemaining())
	assert.True(t, r.IsFullyPledged())
}

func TestFullyPledgedMatchesDerivedStatus(t *testing.T) {
	// is_fully_pledged must agree with the derived fully_filled status
	now := time.Now().UTC()
	deadline := now.Add(72 * time.Hour)
	for _, pledged := range []float64{0, 50, 99.9, 100, 150} {
		r := BulkRequest{QuantityNeeded: 100, QuantityPledged: pledged, DeliveryDeadline: deadline, Status: RequestOpen}
		derived := r.CurrentStatus(now)
		assert.Equal(t, r.IsFullyPledged(), derived == RequestFullyFilled, "pledged=%v", pledged)
	}
}

func TestPledgeTransitions(t *testing.T) {
	all := []PledgeStatus{PledgePending, PledgeAccepted, PledgeRejected, PledgeFulfilled, PledgeCancelled}

	allowed := map[PledgeStatus][]PledgeStatus{
		PledgePending:  {PledgeAccepted, PledgeRejected, PledgeCancelled},
		PledgeAccepted: {PledgeFulfilled, PledgeCancelled},
	}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestPledgeCounted(t *testing.T) {
	assert.True(t, PledgeAccepted.Counted())
	assert.True(t, PledgeFulfilled.Counted())
	assert.False(t, PledgePending.Counted())
	assert.False(t, PledgeRejected.Counted())
	assert.False(t, PledgeCancelled.Counted())
}

// Two accepted pledges of 40 and 60 fill a 100 unit request.
func TestPledgeFillScenario(t *testing.T) {
	now := time.Now().UTC()
	r := BulkRequest{
		QuantityNeeded:   100,
		Unit:             "kg",
		DeliveryDeadline: now.Add(7 * 24 * time.Hour),
		Status:           RequestOpen,
	}
	require.Equal(t, RequestOpen, r.CurrentStatus(now))

	r.QuantityPledged += 40
	r.Status = r.CurrentStatus(now)
	assert.Equal(t, RequestPartiallyFilled, r.Status)
	assert.Equal(t, 60.0, r.QuantityRemaining())

	r.QuantityPledged += 60
	r.Status = r.CurrentStatus(now)
	assert.Equal(t, RequestFullyFilled, r.Status)
	assert.Equal(t, 0.0, r.QuantityRemaining())
}

func TestPledgeTotalAmount(t *testing.T) {
	p := BulkRequestPledge{QuantityPledged: 40, PricePerUnit: 2.5}
	assert.Equal(t, 100.0, p.TotalAmount())
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidRole("business"))
	assert.True(t, ValidRole("seller"))
	assert.False(t, ValidRole("admin"))
	assert.True(t, ValidRequestStatus("partially_filled"))
	assert.False(t, ValidRequestStatus("PENDING"))
}

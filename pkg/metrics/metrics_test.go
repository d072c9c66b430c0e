// Copyright 2025 Certen Protocol

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveFallbackSnapshot(t *testing.T) {
	r := New()
	r.ObserveFallbackSnapshot(map[string]uint64{"binding_write_failures": 3})
	require.Equal(t, float64(3), testutil.ToFloat64(r.FallbackTotal.WithLabelValues("binding_write_failures")))
}

func TestRecordSubmit(t *testing.T) {
	r := New()
	r.RecordSubmit(0.05, "accepted")
	require.Equal(t, float64(1), testutil.ToFloat64(r.SubmitOutcomes.WithLabelValues("accepted")))
}

func TestSetJWKSLoaded(t *testing.T) {
	r := New()
	r.SetJWKSLoaded(true)
	require.Equal(t, float64(1), testutil.ToFloat64(r.JWKSLoaded))
	r.SetJWKSLoaded(false)
	require.Equal(t, float64(0), testutil.ToFloat64(r.JWKSLoaded))
}

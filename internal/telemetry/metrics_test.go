package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_AllRegistered(t *testing.T) {
	cases := []struct {
		name string
		c    prometheus.Collector
	}{
		{"http_requests_total", HTTPRequestsTotal},
		{"http_request_duration_seconds", HTTPRequestDuration},
		{"audit_entries_total", AuditEntriesTotal},
		{"welcome_emails_total", WelcomeEmailsTotal},
		{"task_overdue_transitions_total", OverdueTransitionsTotal},
		{"db_acquired_connections", DBAcquiredConnections},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := prometheus.Register(tc.c)
			var already prometheus.AlreadyRegisteredError
			assert.ErrorAs(t, err, &already)
		})
	}
}

func TestStartPoolStatsCollector(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartPoolStatsCollector(ctx, func() int32 { return 7 }, time.Hour)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(DBAcquiredConnections) == 7
	}, time.Second, 10*time.Millisecond)
}

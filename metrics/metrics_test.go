package metrics

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordModelRequest(t *testing.T) {
	before := testutil.ToFloat64(modelRequests.WithLabelValues("test", OutcomeError))
	RecordModelRequest("test", errors.New("boom"), 10*time.Millisecond)
	after := testutil.ToFloat64(modelRequests.WithLabelValues("test", OutcomeError))
	assert.Equal(t, before+1, after)
}

func TestRecordToolInvocation(t *testing.T) {
	before := testutil.ToFloat64(toolInvocations.WithLabelValues("current_time", OutcomeSuccess))
	RecordToolInvocation("current_time", OutcomeSuccess)
	assert.Equal(t, before+1, testutil.ToFloat64(toolInvocations.WithLabelValues("current_time", OutcomeSuccess)))
}

func TestWriteTextOnlyOwnMetrics(t *testing.T) {
	RecordRelayRounds(2)
	RecordModelRequest("openai", nil, time.Second)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "promptlab_relay_rounds")
	assert.Contains(t, out, `promptlab_model_requests_total{outcome="success",provider="openai"}`)
	assert.NotContains(t, out, "go_goroutines")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeError, Outcome(errors.New("x")))
}

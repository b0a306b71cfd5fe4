package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues(OutcomeHTTPError))

	ObserveUpstream(OutcomeHTTPError, 25*time.Millisecond)

	after := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues(OutcomeHTTPError))
	assert.Equal(t, before+1, after)
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/search", "400"))

	ObserveHTTP("/search", 400, time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/search", "400"))
	assert.Equal(t, before+1, after)
}

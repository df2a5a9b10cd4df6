package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestActiveTokensGaugeDeltas(t *testing.T) {
	before := testutil.ToFloat64(ActiveTokensGauge)

	IncreaseActiveTokens()
	IncreaseActiveTokens()
	DecreaseActiveTokens()

	assert.Equal(t, before+1, testutil.ToFloat64(ActiveTokensGauge))
}

func TestRecordAuthError(t *testing.T) {
	counter := AuthErrorCounter.WithLabelValues("rate_limit_exceeded")
	before := testutil.ToFloat64(counter)

	RecordAuthError("rate_limit_exceeded")
	RecordAuthError("rate_limit_exceeded")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRecordCollectionOperation(t *testing.T) {
	counter := CollectionOperationCounter.WithLabelValues("classes", "list")
	before := testutil.ToFloat64(counter)

	RecordCollectionOperation("classes", "list")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

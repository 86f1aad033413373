package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveQueryOutcomes(t *testing.T) {
	before := func(o string) float64 { return testutil.ToFloat64(QueryResults.WithLabelValues(o)) }
	ok, trunc, deg, empty := before("ok"), before("truncated"), before("degraded"), before("empty")

	ObserveQuery(10, false, false)
	ObserveQuery(500, true, false)
	ObserveQuery(0, false, true)
	ObserveQuery(0, false, false)

	assert.Equal(t, ok+1, before("ok"))
	assert.Equal(t, trunc+1, before("truncated"))
	assert.Equal(t, deg+1, before("degraded"))
	assert.Equal(t, empty+1, before("empty"))
}

func TestObserveExport(t *testing.T) {
	bytes := testutil.ToFloat64(ExportBytes.WithLabelValues("csv"))
	errs := testutil.ToFloat64(ExportErrors.WithLabelValues("csv"))

	ObserveExport("csv", 128, 5*time.Millisecond, nil)
	ObserveExport("csv", 0, time.Millisecond, errors.New("backend down"))

	assert.Equal(t, bytes+128, testutil.ToFloat64(ExportBytes.WithLabelValues("csv")))
	assert.Equal(t, errs+1, testutil.ToFloat64(ExportErrors.WithLabelValues("csv")))
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

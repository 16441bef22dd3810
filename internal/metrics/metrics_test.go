package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderscene"
)

func TestObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New(reg)
	require.NoError(t, err)

	o.PayloadRejected("invalid_numeric_data")
	o.PayloadRejected("invalid_numeric_data")
	o.CompileFailed("fragment")
	o.BuildFailed()
	o.FetchFailed()
	o.SessionStarted()
	o.SessionDisposed(nil)
	o.SessionDisposed(&shaderscene.DisposalError{Err: errors.New("detach")})
	o.FrameRendered(2 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(o.rejected.WithLabelValues("invalid_numeric_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.compile.WithLabelValues("fragment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.builds))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.fetches))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.disposals.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.disposals.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.frames))
}

func TestNewTwiceOnSameRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestRegisterLiveObjects(t *testing.T) {
	reg := prometheus.NewRegistry()
	live := 7
	require.NoError(t, RegisterLiveObjects(reg, func() int { return live }))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "shaderscene_gpu_live_objects", families[0].GetName())
	assert.Equal(t, 7.0, families[0].GetMetric()[0].GetGauge().GetValue())
}

package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(CheckoutSteps.WithLabelValues("DELIVERY"))
	CheckoutSteps.WithLabelValues("DELIVERY").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CheckoutSteps.WithLabelValues("DELIVERY")))
}

func TestStartServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := freeAddr(t)
	StartServer(ctx, addr, "/metrics")
	ToastsShown.WithLabelValues("info").Inc()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		body = string(b)
		return true
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, `storefront_toasts_total{severity="info"}`)

	cancel()
	assert.Eventually(t, func() bool {
		_, err := http.Get("http://" + addr + "/metrics")
		return err != nil
	}, 3*time.Second, 20*time.Millisecond)
}

package dispatch

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ellanetworks/nas-decoder/internal/metrics"
	"github.com/ellanetworks/nas-decoder/internal/trace"
	"github.com/ellanetworks/nas-decoder/internal/transport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// 5GSM part of the example SDU; the DL NAS Transport adds "12 01" after it.
const acceptExample = "2e 01 01 c2 11 00 09 01 00 06 31 3f 01 01 ff 01 06 06 13 88 04 7a 12 59 32 29 05 01 ac 1a 64 65 " +
	"22 01 01 79 00 06 01 20 41 01 01 09 7b 00 18 80 80 21 0a 03 00 00 0a 81 06 08 08 08 08 00 0d 04 08 08 08 08 " +
	"00 11 00 25 1c 09 69 6e 74 65 72 6e 65 74 06 6d 6e 63 30 30 31 06 6d 63 63 30 30 31 04 67 70 72 73"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)

	return b
}

func newDispatcher(t *testing.T, opts Options) (*Dispatcher, *metrics.Collector) {
	t.Helper()

	c := metrics.NewCollector(prometheus.NewRegistry())
	opts.Metrics = c

	if opts.QueueSize == 0 {
		opts.QueueSize = 8
	}

	return New(opts), c
}

// runAll queues sdus, closes the dispatcher and runs it to completion.
func runAll(t *testing.T, d *Dispatcher, sdus ...[]byte) {
	t.Helper()

	for _, sdu := range sdus {
		require.NoError(t, d.Submit(context.Background(), sdu))
	}

	d.Close()
	require.NoError(t, d.Run(context.Background()))
}

func TestDispatcher_EstablishesSessions(t *testing.T) {
	d, c := newDispatcher(t, Options{})

	sm := mustHex(t, acceptExample)

	viaNAS, err := transport.Wrap(transport.EnvelopeDLNASTransport, 1, sm)
	require.NoError(t, err)

	// Captured traces carry the DL NAS Transport form.
	assert.Equal(t, append(mustHex(t, "7e 00 68 01 00 65"), append(sm, 0x12, 0x01)...), viaNAS)

	second := append([]byte(nil), sm...)
	second[1] = 2

	viaNGAP, err := transport.Wrap(transport.EnvelopeNGAP, 2, second)
	require.NoError(t, err)

	runAll(t, d, viaNAS, viaNGAP)

	sessions := d.Sessions().List()
	require.Len(t, sessions, 2)
	assert.Equal(t, uint8(1), sessions[0].PDUSessionID)
	assert.Equal(t, "172.26.100.101", sessions[0].UEIP)
	assert.Equal(t, "internet.mnc001.mcc001.gprs", sessions[0].DNN)
	assert.Equal(t, uint8(2), sessions[1].PDUSessionID)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.Decoded.WithLabelValues("PDU Session Establishment Accept")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.Sessions))
}

func TestDispatcher_Failures(t *testing.T) {
	d, c := newDispatcher(t, Options{})

	runAll(t, d,
		mustHex(t, "2e 01"),
		mustHex(t, "7e 02 00 00 00 00 00"),
		[]byte{},
	)

	assert.Zero(t, d.Sessions().Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Failures.WithLabelValues(metrics.ReasonOutOfBounds)))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Failures.WithLabelValues(metrics.ReasonProtected)))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Failures.WithLabelValues(metrics.ReasonUnsupported)))
}

func TestDispatcher_Strict(t *testing.T) {
	// A bare 5GSM SDU that still carries the envelope's trailing IE.
	sdu := append(mustHex(t, acceptExample), 0x12, 0x01)

	lenient, c := newDispatcher(t, Options{})
	runAll(t, lenient, sdu)
	assert.Equal(t, 1, lenient.Sessions().Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Warnings.WithLabelValues(metrics.ReasonOutOfBounds)))

	strict, c := newDispatcher(t, Options{Strict: true})
	runAll(t, strict, sdu)
	assert.Zero(t, strict.Sessions().Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Failures.WithLabelValues(metrics.ReasonOutOfBounds)))
}

func TestDispatcher_IgnoresOtherMessages(t *testing.T) {
	d, c := newDispatcher(t, Options{})

	// Release Command type code over an otherwise empty accept layout.
	runAll(t, d, mustHex(t, "2e 01 01 d3 24 00 00 00"))

	assert.Zero(t, d.Sessions().Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Decoded.WithLabelValues("PDU Session Release Command")))
}

func TestDispatcher_Trace(t *testing.T) {
	var buf bytes.Buffer

	w, err := trace.NewWriter(&buf)
	require.NoError(t, err)

	d, _ := newDispatcher(t, Options{Trace: w})

	sdus := [][]byte{mustHex(t, acceptExample), mustHex(t, "2e 01")}
	runAll(t, d, sdus...)

	r, err := trace.NewReader(&buf)
	require.NoError(t, err)

	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, sdus[0], records[0].SDU)
	assert.Equal(t, sdus[1], records[1].SDU)
}

func TestDispatcher_Cancel(t *testing.T) {
	d, _ := newDispatcher(t, Options{QueueSize: 1})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.NoError(t, d.Submit(ctx, mustHex(t, acceptExample)))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestDispatcher_SubmitAfterRunReturns(t *testing.T) {
	d, _ := newDispatcher(t, Options{QueueSize: 1})

	require.NoError(t, d.Submit(context.Background(), []byte{0x2e}))

	blocked := make(chan error, 1)
	go func() { blocked <- d.Submit(context.Background(), []byte{0x2e}) }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Run(ctx), context.Canceled)

	select {
	case err := <-blocked:
		assert.True(t, err == nil || errors.Is(err, ErrClosed), "unexpected error %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Submit still blocked after Run returned")
	}

	assert.ErrorIs(t, d.Submit(context.Background(), []byte{0x2e}), ErrClosed)

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked after Run returned")
	}
}

func TestDispatcher_SubmitAfterClose(t *testing.T) {
	d, _ := newDispatcher(t, Options{})
	d.Close()
	d.Close()

	assert.ErrorIs(t, d.Submit(context.Background(), []byte{0x2e}), ErrClosed)
	require.NoError(t, d.Run(context.Background()))
}

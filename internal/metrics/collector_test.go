package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellanetworks/nas-decoder/internal/gsm"
	"github.com/ellanetworks/nas-decoder/internal/transport"
)

func TestNewCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetSessions(2)
	c.RecordFailure(gsm.ErrInvalidLength)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}

	assert.Contains(t, names, "nas_decoder_gsm_pdu_sessions")
	assert.Contains(t, names, "nas_decoder_gsm_decode_failures_total")
	assert.Equal(t, float64(2), testutil.ToFloat64(c.Sessions))
}

func TestRecordDecoded(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	msg := &gsm.Message{
		Header:   gsm.Header{MessageType: gsm.MessageTypeEstablishmentAccept},
		Warnings: []error{fmt.Errorf("filter 1: %w", gsm.ErrUnknownComponentType)},
	}

	c.RecordDecoded(msg)
	c.RecordDecoded(msg)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.Decoded.WithLabelValues("PDU Session Establishment Accept")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.Warnings.WithLabelValues(ReasonUnknownComponentType)))
}

func TestReason(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "truncated container wins over out of bounds",
			err:      fmt.Errorf("rule: %w: %w", gsm.ErrTruncatedContainer, gsm.ErrOutOfBounds),
			expected: ReasonTruncatedContainer,
		},
		{name: "out of bounds", err: fmt.Errorf("header: %w", gsm.ErrOutOfBounds), expected: ReasonOutOfBounds},
		{name: "operation code", err: gsm.ErrInvalidOperationCode, expected: ReasonInvalidOperationCode},
		{name: "component type", err: gsm.ErrUnknownComponentType, expected: ReasonUnknownComponentType},
		{name: "utf-8", err: gsm.ErrInvalidUTF8, expected: ReasonInvalidUTF8},
		{name: "length", err: gsm.ErrInvalidLength, expected: ReasonInvalidLength},
		{name: "protected", err: transport.ErrProtected, expected: ReasonProtected},
		{name: "unsupported", err: fmt.Errorf("NAS PDU 0: %w", transport.ErrUnsupported), expected: ReasonUnsupported},
		{name: "other", err: errors.New("boom"), expected: ReasonOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Reason(tt.err))
		})
	}
}

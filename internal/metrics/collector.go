package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ellanetworks/nas-decoder/internal/gsm"
	"github.com/ellanetworks/nas-decoder/internal/transport"
)

const (
	namespace = "nas_decoder"
	subsystem = "gsm"
)

const (
	labelMessageType = "message_type"
	labelReason      = "reason"
)

// Reason label values.
const (
	ReasonOutOfBounds          = "out_of_bounds"
	ReasonInvalidOperationCode = "invalid_operation_code"
	ReasonUnknownComponentType = "unknown_component_type"
	ReasonTruncatedContainer   = "truncated_container"
	ReasonInvalidUTF8          = "invalid_utf8"
	ReasonInvalidLength        = "invalid_length"
	ReasonProtected            = "protected"
	ReasonUnsupported          = "unsupported"
	ReasonOther                = "other"
)

// Collector holds the decoder metrics.
type Collector struct {
	// Decoded counts messages decoded, by message type.
	Decoded *prometheus.CounterVec

	// Failures counts SDUs that failed to decode, by error class.
	Failures *prometheus.CounterVec

	// Warnings counts recoverable decode problems, by error class.
	Warnings *prometheus.CounterVec

	// Sessions is the number of established PDU sessions.
	Sessions prometheus.Gauge
}

// NewCollector creates a Collector registered against reg, or against
// prometheus.DefaultRegisterer when reg is nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Decoded,
		c.Failures,
		c.Warnings,
		c.Sessions,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		Decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_decoded_total",
			Help:      "Total 5GSM messages decoded.",
		}, []string{labelMessageType}),

		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "decode_failures_total",
			Help:      "Total SDUs dropped because they failed to decode.",
		}, []string{labelReason}),

		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "decode_warnings_total",
			Help:      "Total recoverable problems found while decoding.",
		}, []string{labelReason}),

		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pdu_sessions",
			Help:      "Number of established PDU sessions.",
		}),
	}
}

func (c *Collector) RecordDecoded(msg *gsm.Message) {
	c.Decoded.WithLabelValues(msg.Header.MessageType.String()).Inc()

	for _, w := range msg.Warnings {
		c.Warnings.WithLabelValues(Reason(w)).Inc()
	}
}

func (c *Collector) RecordFailure(err error) {
	c.Failures.WithLabelValues(Reason(err)).Inc()
}

func (c *Collector) SetSessions(n int) {
	c.Sessions.Set(float64(n))
}

// Reason classifies a decode error for the reason label. The most specific
// class wins: a truncated container is also out of bounds.
func Reason(err error) string {
	switch {
	case errors.Is(err, gsm.ErrTruncatedContainer):
		return ReasonTruncatedContainer
	case errors.Is(err, gsm.ErrOutOfBounds):
		return ReasonOutOfBounds
	case errors.Is(err, gsm.ErrInvalidOperationCode):
		return ReasonInvalidOperationCode
	case errors.Is(err, gsm.ErrUnknownComponentType):
		return ReasonUnknownComponentType
	case errors.Is(err, gsm.ErrInvalidUTF8):
		return ReasonInvalidUTF8
	case errors.Is(err, gsm.ErrInvalidLength):
		return ReasonInvalidLength
	case errors.Is(err, transport.ErrProtected):
		return ReasonProtected
	case errors.Is(err, transport.ErrUnsupported), errors.Is(err, transport.ErrEmpty):
		return ReasonUnsupported
	default:
		return ReasonOther
	}
}

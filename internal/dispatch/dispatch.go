// Package dispatch moves NAS SDUs through the decoder and hands the
// resulting PDU Session Establishment Accepts to the session manager.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ellanetworks/nas-decoder/internal/gsm"
	"github.com/ellanetworks/nas-decoder/internal/logger"
	"github.com/ellanetworks/nas-decoder/internal/metrics"
	"github.com/ellanetworks/nas-decoder/internal/session"
	"github.com/ellanetworks/nas-decoder/internal/transport"
)

var ErrClosed = errors.New("dispatcher is closed")

// SDUWriter records raw SDUs, typically a *trace.Writer.
type SDUWriter interface {
	WriteSDU(sdu []byte) error
}

type Options struct {
	QueueSize int
	Strict    bool

	// Sessions and Metrics are created when nil. Trace is optional.
	Sessions *session.Manager
	Metrics  *metrics.Collector
	Trace    SDUWriter
}

type accepted struct {
	msg    *gsm.Message
	tunnel *transport.Tunnel
}

type Dispatcher struct {
	in       chan []byte
	accepts  chan accepted
	decoder  gsm.DecodeOptions
	sessions *session.Manager
	metrics  *metrics.Collector
	trace    SDUWriter

	mu     sync.RWMutex
	closed bool

	// done is closed when Run returns.
	done chan struct{}
}

func New(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}

	if opts.Sessions == nil {
		opts.Sessions = session.NewManager()
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector(prometheus.NewRegistry())
	}

	return &Dispatcher{
		in:       make(chan []byte, opts.QueueSize),
		accepts:  make(chan accepted, opts.QueueSize),
		decoder:  gsm.DecodeOptions{Strict: opts.Strict},
		sessions: opts.Sessions,
		metrics:  opts.Metrics,
		trace:    opts.Trace,
		done:     make(chan struct{}),
	}
}

func (d *Dispatcher) Sessions() *session.Manager {
	return d.sessions
}

// Submit queues sdu, blocking until there is room or ctx is done. It
// returns ErrClosed after Close or once Run has returned. The dispatcher
// owns sdu afterwards.
func (d *Dispatcher) Submit(ctx context.Context, sdu []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}

	select {
	case <-d.done:
		return ErrClosed
	default:
	}

	select {
	case d.in <- sdu:
		return nil
	case <-d.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting SDUs. Run returns once the queued ones are handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.closed = true
	close(d.in)
}

// Run starts the decoder and session tasks and waits for both. It returns
// nil after Close has drained the queue, or the context error. Run must be
// called at most once.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(d.accepts)
		return d.decodeLoop(ctx)
	})

	eg.Go(func() error {
		d.sessionLoop()
		return nil
	})

	return eg.Wait()
}

func (d *Dispatcher) decodeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sdu, ok := <-d.in:
			if !ok {
				return nil
			}

			for _, a := range d.handle(sdu) {
				select {
				case d.accepts <- a:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (d *Dispatcher) sessionLoop() {
	for a := range d.accepts {
		s, err := d.sessions.Establish(a.msg)
		if err != nil {
			logger.SessionLogger.Warn("could not establish PDU session", zap.Error(err))
			continue
		}

		if a.tunnel != nil {
			var upf string
			if a.tunnel.UPFAddress.IsValid() {
				upf = a.tunnel.UPFAddress.String()
			}

			if err := d.sessions.SetTunnel(s.PDUSessionID, upf, a.tunnel.ULTEID); err != nil {
				logger.SessionLogger.Warn("could not record tunnel", zap.Error(err))
			}
		}

		d.metrics.SetSessions(d.sessions.Len())
	}
}

// handle decodes one SDU and returns the accepts it carried.
func (d *Dispatcher) handle(sdu []byte) []accepted {
	if d.trace != nil {
		if err := d.trace.WriteSDU(sdu); err != nil {
			logger.DecoderLogger.Warn("could not write trace record", zap.Error(err))
		}
	}

	sms, err := transport.Unwrap(sdu)
	if err != nil {
		d.metrics.RecordFailure(err)
		logger.DecoderLogger.Warn("could not unwrap SDU", zap.Error(err), zap.Int("length", len(sdu)))

		return nil
	}

	var out []accepted

	for _, sm := range sms {
		msg, err := d.decoder.Decode(sm.Payload)
		if err != nil {
			d.metrics.RecordFailure(err)
			logger.DecoderLogger.Warn(
				"could not decode 5GSM message",
				zap.Error(err),
				zap.Stringer("envelope", sm.Envelope),
			)

			continue
		}

		d.metrics.RecordDecoded(msg)

		for _, w := range msg.Warnings {
			logger.DecoderLogger.Warn("5GSM decode warning", zap.Error(w), zap.Uint8("PDU Session ID", msg.Header.PDUSessionID))
		}

		if sm.HasPDUSessionID && sm.PDUSessionID != msg.Header.PDUSessionID {
			logger.DecoderLogger.Warn(
				"PDU session ID differs between envelope and 5GSM header",
				zap.Uint8("envelope", sm.PDUSessionID),
				zap.Uint8("header", msg.Header.PDUSessionID),
			)
		}

		if msg.Header.MessageType != gsm.MessageTypeEstablishmentAccept {
			logger.DecoderLogger.Debug("ignoring 5GSM message", zap.Stringer("type", msg.Header.MessageType))
			continue
		}

		logger.DecoderLogger.Debug("Decoded PDU Session Establishment Accept", zap.Object("message", msg))

		out = append(out, accepted{msg: msg, tunnel: sm.Tunnel})
	}

	return out
}

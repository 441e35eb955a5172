package gsm

import (
	"errors"
	"fmt"

	"github.com/ellanetworks/nas-decoder/internal/cursor"
)

// Message is a decoded PDU Session Establishment Accept.
type Message struct {
	Header      Header
	SessionType PDUSessionType
	SSCMode     SSCMode
	QosRules    QosRules

	// Optional IEs. Presence records every recognised IE seen, including
	// the ones that are skipped.
	Cause               uint8
	PDUAddress          *PDUAddress
	DNN                 DNN
	EPCO                *ExtendedPCO
	QosFlowDescriptions []QosFlowDescription
	Presence            Presence

	// Warnings lists recoverable problems: unknown packet filter
	// components and a skipped trailing IE cut short by end of input.
	Warnings []error `json:"-" yaml:"-"`
}

func (m *Message) Has(ie IE) bool {
	return m.Presence.Has(ie)
}

type DecodeOptions struct {
	// Strict fails the decode when any warning is raised.
	Strict bool
}

type decodeState struct {
	warnings []error
}

func (st *decodeState) warn(err error) {
	st.warnings = append(st.warnings, err)
}

// Decode decodes b with the default options.
func Decode(b []byte) (*Message, error) {
	return DecodeOptions{}.Decode(b)
}

// Decode decodes one PDU Session Establishment Accept, starting at the
// extended protocol discriminator. b is not retained.
func (o DecodeOptions) Decode(b []byte) (*Message, error) {
	var st decodeState

	m, err := decode(b, &st)
	if err != nil {
		return nil, err
	}

	if len(st.warnings) > 0 {
		if o.Strict {
			return nil, fmt.Errorf("strict decode: %w", errors.Join(st.warnings...))
		}

		m.Warnings = st.warnings
	}

	return m, nil
}

func decode(b []byte, st *decodeState) (*Message, error) {
	c := cursor.New(b)
	m := &Message{}

	if err := decodeHeader(c, m); err != nil {
		return nil, err
	}

	rules, err := decodeQosRules(c, st)
	if err != nil {
		return nil, fmt.Errorf("authorized qos rules: %w", err)
	}

	m.QosRules = rules

	// Session-AMBR is skipped by its length.
	ambrLen, err := c.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("session ambr length: %w", err)
	}

	if err := c.Skip(int(ambrLen)); err != nil {
		return nil, fmt.Errorf("session ambr: %w", err)
	}

	for !c.Empty() {
		done, err := decodeOptionalIE(b, c, m, st)
		if err != nil {
			return nil, err
		}

		if done {
			break
		}
	}

	return m, nil
}

func decodeHeader(c *cursor.Cursor, m *Message) error {
	var fields [5]uint8

	for i := range fields {
		v, err := c.ReadUint8()
		if err != nil {
			return fmt.Errorf("header octet %d: %w", i+1, err)
		}

		fields[i] = v
	}

	m.Header = Header{
		ExtendedProtocolDiscriminator: fields[0],
		PDUSessionID:                  fields[1],
		PTI:                           fields[2],
		RawMessageType:                fields[3],
		MessageType:                   MessageTypeFromCode(fields[3]),
	}

	// spare(1) | SSC mode(3) | spare(1) | PDU session type(3)
	m.SSCMode = SSCMode((fields[4] >> 4) & 0x07)
	m.SessionType = pduSessionTypeFromBits(fields[4])

	return nil
}

// decodeOptionalIE consumes one optional IE from c. It returns done when a
// skipped IE runs past the end of b, which ends the IE list with a warning.
func decodeOptionalIE(b []byte, c *cursor.Cursor, m *Message, st *decodeState) (bool, error) {
	start := c.Offset()

	tag, err := c.ReadUint8()
	if err != nil {
		return false, err
	}

	ie, known := ieFromTag(tag)
	if known {
		m.Presence.set(ie)
	}

	var length int

	switch classify(tag) {
	case shapeTV1:
		return false, nil

	case shapeTV2:
		v, err := c.ReadUint8()
		if err != nil {
			return skippedOverrun(tag, start, err, st)
		}

		if tag == iei5GSMCause {
			m.Cause = v
		}

		return false, nil

	case shapeTLVE:
		n, err := c.ReadUint16()
		if err != nil {
			return overrun(tag, start, err, st)
		}

		length = int(n)

	default:
		n, err := c.ReadUint8()
		if err != nil {
			return overrun(tag, start, err, st)
		}

		length = int(n)
	}

	v, err := c.Sub(length)
	if err != nil {
		return overrun(tag, start, err, st)
	}

	switch tag {
	case ieiPDUAddress:
		addr, err := decodePDUAddress(v)
		if err != nil {
			return false, fmt.Errorf("%s at offset %d: %w", IEPDUAddress, start, err)
		}

		m.PDUAddress = &addr

	case ieiDNN:
		m.DNN = DNN(append([]byte(nil), v.Rest()...))

	case ieiExtendedPCO:
		epco, err := DecodeExtendedPCO(b[start:c.Offset()])
		if err != nil {
			return false, fmt.Errorf("%s at offset %d: %w", IEExtendedPCO, start, err)
		}

		m.EPCO = epco

	case ieiQosFlowDescriptions:
		descs, err := decodeQosFlowDescriptions(v)
		if err != nil {
			return false, fmt.Errorf("%s at offset %d: %w", IEQosFlowDescriptions, start, err)
		}

		m.QosFlowDescriptions = descs
	}

	return false, nil
}

// overrun handles an IE whose header or declared span runs past the end of
// the message. IEs the decoder keeps fail the decode; the rest end the IE
// list with a warning.
func overrun(tag uint8, start int, err error, st *decodeState) (bool, error) {
	switch tag {
	case ieiPDUAddress, ieiDNN, ieiExtendedPCO, ieiQosFlowDescriptions:
		ie, _ := ieFromTag(tag)
		return false, fmt.Errorf("%s at offset %d: %w", ie, start, err)
	}

	return skippedOverrun(tag, start, err, st)
}

func skippedOverrun(tag uint8, start int, err error, st *decodeState) (bool, error) {
	st.warn(fmt.Errorf("ie 0x%02x at offset %d skipped: %w", tag, start, err))
	return true, nil
}

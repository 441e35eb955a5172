package gsm

import (
	"encoding/binary"
	"fmt"

	"github.com/ellanetworks/nas-decoder/internal/cursor"
)

// QoS flow description parameter identifiers (TS 24.501 §9.11.4.12).
const (
	FlowParam5QI             uint8 = 0x01
	FlowParamGFBRUplink      uint8 = 0x02
	FlowParamGFBRDownlink    uint8 = 0x03
	FlowParamMFBRUplink      uint8 = 0x04
	FlowParamMFBRDownlink    uint8 = 0x05
	FlowParamAveragingWindow uint8 = 0x06
	FlowParamEPSBearerID     uint8 = 0x07
)

const (
	flowQFIMask    uint8 = 0x3f
	flowOpCodeMask uint8 = 0xe0
	flowEBit       uint8 = 0x40
	flowCountMask  uint8 = 0x3f
)

// Bit rate units used by the GFBR and MFBR parameters.
const (
	rateUnit1Kbps uint8 = 0x01
	rateUnit1Mbps uint8 = 0x06
	rateUnit1Gbps uint8 = 0x0B
)

// QosFlowParameter is one parameter of a QoS flow description. Content is
// always kept; the typed field matching ID is set when Content has the
// expected width.
type QosFlowParameter struct {
	Content []byte
	ID      uint8

	FiveQI       *uint8
	GFBRUplink   *uint64 // kbps
	GFBRDownlink *uint64 // kbps
	MFBRUplink   *uint64 // kbps
	MFBRDownlink *uint64 // kbps
	AveragingMs  *uint16
	EPSBearerID  *uint8
}

type QosFlowDescription struct {
	Parameters    []QosFlowParameter
	QFI           uint8
	OperationCode uint8
	EBit          bool
}

// FiveQI returns the 5QI parameter of the description, if any.
func (d QosFlowDescription) FiveQI() (uint8, bool) {
	for _, p := range d.Parameters {
		if p.FiveQI != nil {
			return *p.FiveQI, true
		}
	}

	return 0, false
}

// decodeQosFlowDescriptions decodes the value of an authorized QoS flow
// descriptions IE. Every read is bounded by the IE length.
func decodeQosFlowDescriptions(v *cursor.Cursor) ([]QosFlowDescription, error) {
	var descs []QosFlowDescription

	for !v.Empty() {
		off := v.Offset()

		d, err := decodeQosFlowDescription(v)
		if err != nil {
			return nil, fmt.Errorf("qos flow description at offset %d: %w", off, err)
		}

		descs = append(descs, d)
	}

	return descs, nil
}

func decodeQosFlowDescription(v *cursor.Cursor) (QosFlowDescription, error) {
	var d QosFlowDescription

	qfi, err := v.ReadUint8()
	if err != nil {
		return d, truncated("qfi", err)
	}

	op, err := v.ReadUint8()
	if err != nil {
		return d, truncated("operation code", err)
	}

	num, err := v.ReadUint8()
	if err != nil {
		return d, truncated("parameter count", err)
	}

	d.QFI = qfi & flowQFIMask
	d.OperationCode = (op & flowOpCodeMask) >> 5
	d.EBit = num&flowEBit != 0

	count := int(num & flowCountMask)
	d.Parameters = make([]QosFlowParameter, 0, count)

	for i := 0; i < count; i++ {
		id, err := v.ReadUint8()
		if err != nil {
			return d, truncated(fmt.Sprintf("parameter %d identifier", i), err)
		}

		n, err := v.ReadUint8()
		if err != nil {
			return d, truncated(fmt.Sprintf("parameter %d length", i), err)
		}

		raw, err := v.ReadBytes(int(n))
		if err != nil {
			return d, truncated(fmt.Sprintf("parameter %d content", i), err)
		}

		d.Parameters = append(d.Parameters, newQosFlowParameter(id, raw))
	}

	return d, nil
}

func newQosFlowParameter(id uint8, raw []byte) QosFlowParameter {
	p := QosFlowParameter{ID: id, Content: raw}

	switch id {
	case FlowParam5QI:
		if len(raw) == 1 {
			v := raw[0]
			p.FiveQI = &v
		}

	case FlowParamGFBRUplink, FlowParamGFBRDownlink, FlowParamMFBRUplink, FlowParamMFBRDownlink:
		// unit, then a 16 bit value
		if len(raw) != 3 {
			break
		}

		kbps, ok := toKbps(raw[0], binary.BigEndian.Uint16(raw[1:3]))
		if !ok {
			break
		}

		switch id {
		case FlowParamGFBRUplink:
			p.GFBRUplink = &kbps
		case FlowParamGFBRDownlink:
			p.GFBRDownlink = &kbps
		case FlowParamMFBRUplink:
			p.MFBRUplink = &kbps
		case FlowParamMFBRDownlink:
			p.MFBRDownlink = &kbps
		}

	case FlowParamAveragingWindow:
		if len(raw) == 2 {
			ms := binary.BigEndian.Uint16(raw)
			p.AveragingMs = &ms
		}

	case FlowParamEPSBearerID:
		if len(raw) == 1 {
			ebi := raw[0]
			p.EPSBearerID = &ebi
		}
	}

	return p
}

func toKbps(unit uint8, v uint16) (uint64, bool) {
	switch unit {
	case rateUnit1Kbps:
		return uint64(v), true
	case rateUnit1Mbps:
		return uint64(v) * 1000, true
	case rateUnit1Gbps:
		return uint64(v) * 1000 * 1000, true
	default:
		return 0, false
	}
}

package gsm

import "strings"

// Optional IE identifiers of the PDU Session Establishment Accept
// (TS 24.501 §8.3.2.1).
const (
	iei5GSMCause                 uint8 = 0x59
	ieiPDUAddress                uint8 = 0x29
	ieiRQTimer                   uint8 = 0x56
	ieiSNSSAI                    uint8 = 0x22
	ieiAlwaysOnPDUSession        uint8 = 0x80 // high nibble only
	ieiMappedEPSBearerContexts   uint8 = 0x75
	ieiEAPMessage                uint8 = 0x78
	ieiQosFlowDescriptions       uint8 = 0x79
	ieiExtendedPCO               uint8 = 0x7B
	ieiDNN                       uint8 = 0x25
	ieiNetworkFeatureSupport     uint8 = 0x17
	ieiServingPLMNRateControl    uint8 = 0x18
	ieiATSSSContainer            uint8 = 0x77
	ieiControlPlaneOnly          uint8 = 0xC0 // high nibble only
	ieiIPHeaderCompression       uint8 = 0x66
	ieiEthernetHeaderCompression uint8 = 0x1F
)

// ieShape is the framing of an optional IE.
type ieShape uint8

const (
	shapeTLV  ieShape = iota // tag, 1 octet length, value
	shapeTLVE                // tag, 2 octet length, value
	shapeTV1                 // tag and value share one octet
	shapeTV2                 // tag, 1 octet value
)

func classify(tag uint8) ieShape {
	switch tag {
	case ieiMappedEPSBearerContexts, ieiEAPMessage, ieiQosFlowDescriptions, ieiATSSSContainer, ieiExtendedPCO:
		return shapeTLVE
	case iei5GSMCause, ieiRQTimer:
		return shapeTV2
	}

	switch tag & 0xF0 {
	case ieiAlwaysOnPDUSession, ieiControlPlaneOnly:
		return shapeTV1
	}

	return shapeTLV
}

// IE names the optional IEs whose presence a Message records.
type IE uint8

const (
	IE5GSMCause IE = iota
	IEPDUAddress
	IERQTimer
	IESNSSAI
	IEAlwaysOnPDUSession
	IEMappedEPSBearerContexts
	IEEAPMessage
	IEQosFlowDescriptions
	IEExtendedPCO
	IEDNN
	IENetworkFeatureSupport
	IEServingPLMNRateControl
	IEATSSSContainer
	IEControlPlaneOnly
	IEIPHeaderCompression
	IEEthernetHeaderCompression
	ieCount
)

var ieNames = [ieCount]string{
	"5GSM cause",
	"PDU address",
	"RQ timer value",
	"S-NSSAI",
	"Always-on PDU session indication",
	"Mapped EPS bearer contexts",
	"EAP message",
	"Authorized QoS flow descriptions",
	"Extended protocol configuration options",
	"DNN",
	"5GSM network feature support",
	"Serving PLMN rate control",
	"ATSSS container",
	"Control plane only indication",
	"IP header compression configuration",
	"Ethernet header compression configuration",
}

func (ie IE) String() string {
	if ie < ieCount {
		return ieNames[ie]
	}

	return "Unknown IE"
}

func ieFromTag(tag uint8) (IE, bool) {
	switch tag {
	case iei5GSMCause:
		return IE5GSMCause, true
	case ieiPDUAddress:
		return IEPDUAddress, true
	case ieiRQTimer:
		return IERQTimer, true
	case ieiSNSSAI:
		return IESNSSAI, true
	case ieiMappedEPSBearerContexts:
		return IEMappedEPSBearerContexts, true
	case ieiEAPMessage:
		return IEEAPMessage, true
	case ieiQosFlowDescriptions:
		return IEQosFlowDescriptions, true
	case ieiExtendedPCO:
		return IEExtendedPCO, true
	case ieiDNN:
		return IEDNN, true
	case ieiNetworkFeatureSupport:
		return IENetworkFeatureSupport, true
	case ieiServingPLMNRateControl:
		return IEServingPLMNRateControl, true
	case ieiATSSSContainer:
		return IEATSSSContainer, true
	case ieiIPHeaderCompression:
		return IEIPHeaderCompression, true
	case ieiEthernetHeaderCompression:
		return IEEthernetHeaderCompression, true
	}

	switch tag & 0xF0 {
	case ieiAlwaysOnPDUSession:
		return IEAlwaysOnPDUSession, true
	case ieiControlPlaneOnly:
		return IEControlPlaneOnly, true
	}

	return 0, false
}

// Presence is a set of IEs.
type Presence uint32

func (p *Presence) set(ie IE) {
	*p |= 1 << ie
}

func (p Presence) Has(ie IE) bool {
	return ie < ieCount && p&(1<<ie) != 0
}

// IEs lists the members of p in IE order.
func (p Presence) IEs() []IE {
	var out []IE

	for ie := IE(0); ie < ieCount; ie++ {
		if p.Has(ie) {
			out = append(out, ie)
		}
	}

	return out
}

func (p Presence) String() string {
	names := make([]string, 0, ieCount)
	for _, ie := range p.IEs() {
		names = append(names, ie.String())
	}

	return "[" + strings.Join(names, ", ") + "]"
}

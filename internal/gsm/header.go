package gsm

import (
	"fmt"

	"github.com/free5gc/nas"
	"github.com/free5gc/nas/nasMessage"
)

// MessageType is the closed set of 5GSM message types a header can carry.
type MessageType uint8

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeEstablishmentRequest
	MessageTypeEstablishmentAccept
	MessageTypeEstablishmentReject
	MessageTypeAuthenticationCommand
	MessageTypeAuthenticationComplete
	MessageTypeAuthenticationResult
	MessageTypeModificationRequest
	MessageTypeModificationReject
	MessageTypeModificationCommand
	MessageTypeModificationComplete
	MessageTypeModificationCommandReject
	MessageTypeReleaseRequest
	MessageTypeReleaseReject
	MessageTypeReleaseCommand
	MessageTypeReleaseComplete
)

var messageTypes = map[uint8]MessageType{
	nas.MsgTypePDUSessionEstablishmentRequest:      MessageTypeEstablishmentRequest,
	nas.MsgTypePDUSessionEstablishmentAccept:       MessageTypeEstablishmentAccept,
	nas.MsgTypePDUSessionEstablishmentReject:       MessageTypeEstablishmentReject,
	nas.MsgTypePDUSessionAuthenticationCommand:     MessageTypeAuthenticationCommand,
	nas.MsgTypePDUSessionAuthenticationComplete:    MessageTypeAuthenticationComplete,
	nas.MsgTypePDUSessionAuthenticationResult:      MessageTypeAuthenticationResult,
	nas.MsgTypePDUSessionModificationRequest:       MessageTypeModificationRequest,
	nas.MsgTypePDUSessionModificationReject:        MessageTypeModificationReject,
	nas.MsgTypePDUSessionModificationCommand:       MessageTypeModificationCommand,
	nas.MsgTypePDUSessionModificationComplete:      MessageTypeModificationComplete,
	nas.MsgTypePDUSessionModificationCommandReject: MessageTypeModificationCommandReject,
	nas.MsgTypePDUSessionReleaseRequest:            MessageTypeReleaseRequest,
	nas.MsgTypePDUSessionReleaseReject:             MessageTypeReleaseReject,
	nas.MsgTypePDUSessionReleaseCommand:            MessageTypeReleaseCommand,
	nas.MsgTypePDUSessionReleaseComplete:           MessageTypeReleaseComplete,
}

// MessageTypeFromCode maps a message type octet onto MessageType. Codes
// outside the table, 5GSM Status included, map to MessageTypeUnknown.
func MessageTypeFromCode(code uint8) MessageType {
	if t, ok := messageTypes[code]; ok {
		return t
	}

	return MessageTypeUnknown
}

func (t MessageType) String() string {
	for code, mt := range messageTypes {
		if mt == t {
			return MessageName(code)
		}
	}

	return "Unknown"
}

// MessageName returns the display name of a 5GSM message type octet.
func MessageName(code uint8) string {
	switch code {
	case nas.MsgTypePDUSessionEstablishmentRequest:
		return "PDU Session Establishment Request"
	case nas.MsgTypePDUSessionEstablishmentAccept:
		return "PDU Session Establishment Accept"
	case nas.MsgTypePDUSessionEstablishmentReject:
		return "PDU Session Establishment Reject"
	case nas.MsgTypePDUSessionAuthenticationCommand:
		return "PDU Session Authentication Command"
	case nas.MsgTypePDUSessionAuthenticationComplete:
		return "PDU Session Authentication Complete"
	case nas.MsgTypePDUSessionAuthenticationResult:
		return "PDU Session Authentication Result"
	case nas.MsgTypePDUSessionModificationRequest:
		return "PDU Session Modification Request"
	case nas.MsgTypePDUSessionModificationReject:
		return "PDU Session Modification Reject"
	case nas.MsgTypePDUSessionModificationCommand:
		return "PDU Session Modification Command"
	case nas.MsgTypePDUSessionModificationComplete:
		return "PDU Session Modification Complete"
	case nas.MsgTypePDUSessionModificationCommandReject:
		return "PDU Session Modification Command Reject"
	case nas.MsgTypePDUSessionReleaseRequest:
		return "PDU Session Release Request"
	case nas.MsgTypePDUSessionReleaseReject:
		return "PDU Session Release Reject"
	case nas.MsgTypePDUSessionReleaseCommand:
		return "PDU Session Release Command"
	case nas.MsgTypePDUSessionReleaseComplete:
		return "PDU Session Release Complete"
	case nas.MsgTypeStatus5GSM:
		return "5GSM Status"
	default:
		return fmt.Sprintf("Unknown Message Type (0x%02x)", code)
	}
}

// Header is the fixed four octet 5GSM header.
type Header struct {
	ExtendedProtocolDiscriminator uint8
	PDUSessionID                  uint8
	PTI                           uint8
	RawMessageType                uint8
	MessageType                   MessageType
}

// SessionManagement reports whether the EPD is the 5GS session management one.
func (h Header) SessionManagement() bool {
	return h.ExtendedProtocolDiscriminator == nasMessage.Epd5GSSessionManagementMessage
}

// SSCMode is the 3-bit selected SSC mode value.
type SSCMode uint8

func (m SSCMode) String() string {
	switch m {
	case 1, 2, 3:
		return fmt.Sprintf("SSC mode %d", uint8(m))
	default:
		return fmt.Sprintf("Reserved (%d)", uint8(m))
	}
}

// Package transport extracts 5GSM messages from the envelopes they travel
// in: a DL NAS Transport N1 SM container, or an NGAP message carrying one.
package transport

import (
	"errors"
	"fmt"

	"github.com/free5gc/nas"
	"github.com/free5gc/nas/nasMessage"
	"github.com/free5gc/ngap"
	"github.com/free5gc/ngap/ngapType"
)

var (
	ErrEmpty       = errors.New("empty SDU")
	ErrProtected   = errors.New("NAS message is security protected")
	ErrUnsupported = errors.New("unsupported message")
)

// Envelope is the framing an SDU arrived in.
type Envelope uint8

const (
	EnvelopeNone Envelope = iota
	EnvelopeDLNASTransport
	EnvelopeNGAP
)

func (e Envelope) String() string {
	switch e {
	case EnvelopeNone:
		return "5GSM"
	case EnvelopeDLNASTransport:
		return "DL NAS Transport"
	case EnvelopeNGAP:
		return "NGAP"
	default:
		return "unknown"
	}
}

// SM is one 5GSM message extracted from an SDU.
type SM struct {
	Payload  []byte
	Envelope Envelope

	// PDUSessionID is taken from the envelope when it carries one.
	PDUSessionID    uint8
	HasPDUSessionID bool

	// Tunnel is set when the NGAP message carried a setup request transfer.
	Tunnel *Tunnel
}

// Unwrap returns the 5GSM messages carried by sdu. A bare 5GSM message is
// returned as is; a plain 5GMM DL NAS Transport yields its N1 SM container;
// anything else is decoded as NGAP.
func Unwrap(sdu []byte) ([]SM, error) {
	if len(sdu) == 0 {
		return nil, ErrEmpty
	}

	switch sdu[0] {
	case nasMessage.Epd5GSSessionManagementMessage:
		return []SM{{Payload: sdu, Envelope: EnvelopeNone}}, nil
	case nasMessage.Epd5GSMobilityManagementMessage:
		sm, err := unwrapDLNASTransport(sdu)
		if err != nil {
			return nil, err
		}

		return []SM{sm}, nil
	default:
		return unwrapNGAP(sdu)
	}
}

func unwrapDLNASTransport(b []byte) (SM, error) {
	if len(b) < 2 {
		return SM{}, fmt.Errorf("5GMM header: %w", ErrUnsupported)
	}

	if nas.GetSecurityHeaderType(b)&0x0f != nas.SecurityHeaderTypePlainNas {
		return SM{}, ErrProtected
	}

	m := new(nas.Message)

	payload := make([]byte, len(b))
	copy(payload, b)

	if err := m.PlainNasDecode(&payload); err != nil {
		return SM{}, fmt.Errorf("could not decode NAS message: %w", err)
	}

	if m.GmmMessage == nil {
		return SM{}, fmt.Errorf("%w: NAS message is not a GMM message", ErrUnsupported)
	}

	if m.GmmMessage.GetMessageType() != nas.MsgTypeDLNASTransport || m.DLNASTransport == nil {
		return SM{}, fmt.Errorf("%w: 5GMM message type %d", ErrUnsupported, m.GmmMessage.GetMessageType())
	}

	if t := m.DLNASTransport.GetPayloadContainerType(); t != nasMessage.PayloadContainerTypeN1SMInfo {
		return SM{}, fmt.Errorf("%w: payload container type %d", ErrUnsupported, t)
	}

	sm := SM{
		Payload:  m.DLNASTransport.GetPayloadContainerContents(),
		Envelope: EnvelopeDLNASTransport,
	}

	if m.DLNASTransport.PduSessionID2Value != nil {
		sm.PDUSessionID = m.DLNASTransport.PduSessionID2Value.GetPduSessionID2Value()
		sm.HasPDUSessionID = true
	}

	return sm, nil
}

func unwrapNGAP(b []byte) ([]SM, error) {
	pdu, err := ngap.Decoder(b)
	if err != nil {
		return nil, fmt.Errorf("could not decode NGAP: %w", err)
	}

	return unwrapNGAPPDU(pdu)
}

func unwrapNGAPPDU(pdu *ngapType.NGAPPDU) ([]SM, error) {
	var err error

	if pdu.InitiatingMessage == nil {
		return nil, fmt.Errorf("%w: NGAP %s", ErrUnsupported, ngapMessageName(pdu))
	}

	var (
		nasPDUs    [][]byte
		sessionIDs []int64
		tunnels    []*Tunnel
	)

	switch pdu.InitiatingMessage.ProcedureCode.Value {
	case ngapType.ProcedureCodeDownlinkNASTransport:
		msg := pdu.InitiatingMessage.Value.DownlinkNASTransport
		if msg == nil {
			return nil, fmt.Errorf("%w: DownlinkNASTransport is nil", ErrUnsupported)
		}

		for _, ie := range msg.ProtocolIEs.List {
			if ie.Id.Value == ngapType.ProtocolIEIDNASPDU && ie.Value.NASPDU != nil {
				nasPDUs = append(nasPDUs, ie.Value.NASPDU.Value)
			}
		}

	case ngapType.ProcedureCodePDUSessionResourceSetup:
		msg := pdu.InitiatingMessage.Value.PDUSessionResourceSetupRequest
		if msg == nil {
			return nil, fmt.Errorf("%w: PDUSessionResourceSetupRequest is nil", ErrUnsupported)
		}

		for _, ie := range msg.ProtocolIEs.List {
			if ie.Id.Value != ngapType.ProtocolIEIDPDUSessionResourceSetupListSUReq || ie.Value.PDUSessionResourceSetupListSUReq == nil {
				continue
			}

			for _, item := range ie.Value.PDUSessionResourceSetupListSUReq.List {
				if item.PDUSessionNASPDU == nil {
					continue
				}

				var tunnel *Tunnel

				if len(item.PDUSessionResourceSetupRequestTransfer) > 0 {
					tunnel, err = decodeSetupRequestTransfer(item.PDUSessionResourceSetupRequestTransfer)
					if err != nil {
						return nil, fmt.Errorf("PDU session %d: %w", item.PDUSessionID.Value, err)
					}
				}

				nasPDUs = append(nasPDUs, item.PDUSessionNASPDU.Value)
				sessionIDs = append(sessionIDs, item.PDUSessionID.Value)
				tunnels = append(tunnels, tunnel)
			}
		}

	default:
		return nil, fmt.Errorf("%w: NGAP %s", ErrUnsupported, ngapMessageName(pdu))
	}

	if len(nasPDUs) == 0 {
		return nil, fmt.Errorf("%w: no NAS PDU in NGAP message", ErrUnsupported)
	}

	out := make([]SM, 0, len(nasPDUs))

	for i, nasPDU := range nasPDUs {
		if len(nasPDU) == 0 || nasPDU[0] != nasMessage.Epd5GSMobilityManagementMessage {
			return nil, fmt.Errorf("%w: NAS PDU %d is not a 5GMM message", ErrUnsupported, i)
		}

		sm, err := unwrapDLNASTransport(nasPDU)
		if err != nil {
			return nil, fmt.Errorf("NAS PDU %d: %w", i, err)
		}

		sm.Envelope = EnvelopeNGAP

		if !sm.HasPDUSessionID && i < len(sessionIDs) {
			sm.PDUSessionID = uint8(sessionIDs[i])
			sm.HasPDUSessionID = true
		}

		if i < len(tunnels) {
			sm.Tunnel = tunnels[i]
		}

		out = append(out, sm)
	}

	return out, nil
}

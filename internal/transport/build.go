package transport

import (
	"bytes"
	"fmt"

	"github.com/free5gc/nas"
	"github.com/free5gc/nas/nasMessage"
	"github.com/free5gc/nas/nasType"
	"github.com/free5gc/ngap"
	"github.com/free5gc/ngap/ngapType"
)

type DLNASTransportOpts struct {
	PDUSessionID     uint8
	PayloadContainer []byte
}

// BuildDLNASTransport wraps a 5GSM message in a plain 5GMM DL NAS Transport
// with an N1 SM information payload container.
func BuildDLNASTransport(opts *DLNASTransportOpts) ([]byte, error) {
	if opts == nil {
		return nil, fmt.Errorf("DLNASTransportOpts is nil")
	}

	if opts.PayloadContainer == nil {
		return nil, fmt.Errorf("PayloadContainer is required to build DLNASTransport")
	}

	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(nas.MsgTypeDLNASTransport)

	dlNasTransport := nasMessage.NewDLNASTransport(0)
	dlNasTransport.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	dlNasTransport.SetMessageType(nas.MsgTypeDLNASTransport)
	dlNasTransport.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)

	if opts.PDUSessionID != 0 {
		dlNasTransport.PduSessionID2Value = new(nasType.PduSessionID2Value)
		dlNasTransport.PduSessionID2Value.SetIei(nasMessage.DLNASTransportPduSessionID2ValueType)
		dlNasTransport.SetPduSessionID2Value(opts.PDUSessionID)
	}

	dlNasTransport.SetPayloadContainerType(nasMessage.PayloadContainerTypeN1SMInfo)
	dlNasTransport.PayloadContainer.SetLen(uint16(len(opts.PayloadContainer)))
	dlNasTransport.SetPayloadContainerContents(opts.PayloadContainer)

	m.DLNASTransport = dlNasTransport

	data := new(bytes.Buffer)

	err := m.GmmMessageEncode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode GMM message: %v", err)
	}

	return data.Bytes(), nil
}

type DownlinkNASTransportOpts struct {
	AMFUeNgapID int64
	RANUeNgapID int64
	NasPDU      []byte
}

// BuildDownlinkNASTransport carries a NAS PDU in an NGAP DownlinkNASTransport.
func BuildDownlinkNASTransport(opts *DownlinkNASTransportOpts) (ngapType.NGAPPDU, error) {
	if opts == nil {
		return ngapType.NGAPPDU{}, fmt.Errorf("DownlinkNASTransportOpts is nil")
	}

	if opts.NasPDU == nil {
		return ngapType.NGAPPDU{}, fmt.Errorf("NAS PDU is required to build DownlinkNASTransport")
	}

	pdu := ngapType.NGAPPDU{}
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	initiatingMessage := pdu.InitiatingMessage
	initiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodeDownlinkNASTransport
	initiatingMessage.Criticality.Value = ngapType.CriticalityPresentIgnore

	initiatingMessage.Value.Present = ngapType.InitiatingMessagePresentDownlinkNASTransport
	initiatingMessage.Value.DownlinkNASTransport = new(ngapType.DownlinkNASTransport)

	downlinkNasTransportIEs := &initiatingMessage.Value.DownlinkNASTransport.ProtocolIEs

	// AMF UE NGAP ID
	ie := ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.DownlinkNASTransportIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: opts.AMFUeNgapID}

	downlinkNasTransportIEs.List = append(downlinkNasTransportIEs.List, ie)

	// RAN UE NGAP ID
	ie = ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.DownlinkNASTransportIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = &ngapType.RANUENGAPID{Value: opts.RANUeNgapID}

	downlinkNasTransportIEs.List = append(downlinkNasTransportIEs.List, ie)

	// NAS-PDU
	ie = ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDNASPDU
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.DownlinkNASTransportIEsPresentNASPDU
	ie.Value.NASPDU = &ngapType.NASPDU{Value: opts.NasPDU}

	downlinkNasTransportIEs.List = append(downlinkNasTransportIEs.List, ie)

	return pdu, nil
}

// Wrap builds the wire form of a 5GSM message inside the given envelope.
func Wrap(envelope Envelope, pduSessionID uint8, sm []byte) ([]byte, error) {
	switch envelope {
	case EnvelopeNone:
		return sm, nil
	case EnvelopeDLNASTransport:
		return BuildDLNASTransport(&DLNASTransportOpts{PDUSessionID: pduSessionID, PayloadContainer: sm})
	case EnvelopeNGAP:
		nasPDU, err := BuildDLNASTransport(&DLNASTransportOpts{PDUSessionID: pduSessionID, PayloadContainer: sm})
		if err != nil {
			return nil, err
		}

		pdu, err := BuildDownlinkNASTransport(&DownlinkNASTransportOpts{
			AMFUeNgapID: 1,
			RANUeNgapID: 1,
			NasPDU:      nasPDU,
		})
		if err != nil {
			return nil, fmt.Errorf("could not build DownlinkNASTransport: %v", err)
		}

		b, err := ngap.Encoder(pdu)
		if err != nil {
			return nil, fmt.Errorf("could not encode NGAP: %v", err)
		}

		return b, nil
	default:
		return nil, fmt.Errorf("%w: envelope %d", ErrUnsupported, envelope)
	}
}

// ParseEnvelope maps a command line name to an Envelope.
func ParseEnvelope(s string) (Envelope, error) {
	switch s {
	case "", "gsm", "5gsm":
		return EnvelopeNone, nil
	case "nas", "dl-nas-transport":
		return EnvelopeDLNASTransport, nil
	case "ngap":
		return EnvelopeNGAP, nil
	default:
		return EnvelopeNone, fmt.Errorf("unknown envelope %q", s)
	}
}

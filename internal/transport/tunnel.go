package transport

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/free5gc/aper"
	"github.com/free5gc/ngap/ngapType"
)

// Tunnel is the user plane setup an NGAP PDU Session Resource Setup
// Request carries next to the NAS PDU.
type Tunnel struct {
	UPFAddress netip.Addr
	ULTEID     uint32
	QFIs       []int64
	FiveQI     int64
}

func decodeSetupRequestTransfer(transfer aper.OctetString) (*Tunnel, error) {
	pdu := &ngapType.PDUSessionResourceSetupRequestTransfer{}

	err := aper.UnmarshalWithParams(transfer, pdu, "valueExt")
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal PDU Session Resource Setup Request Transfer: %w", err)
	}

	tunnel := &Tunnel{}

	for _, ies := range pdu.ProtocolIEs.List {
		switch ies.Id.Value {
		case ngapType.ProtocolIEIDULNGUUPTNLInformation:
			info := ies.Value.ULNGUUPTNLInformation
			if info == nil || info.GTPTunnel == nil {
				continue
			}

			if len(info.GTPTunnel.GTPTEID.Value) == 4 {
				tunnel.ULTEID = binary.BigEndian.Uint32(info.GTPTunnel.GTPTEID.Value)
			}

			// IPv4 and IPv6 addresses may both be present; the first one wins.
			addr := info.GTPTunnel.TransportLayerAddress.Value.Bytes
			switch {
			case len(addr) >= 4 && len(addr) != 16:
				tunnel.UPFAddress = netip.AddrFrom4([4]byte(addr[:4]))
			case len(addr) == 16:
				tunnel.UPFAddress = netip.AddrFrom16([16]byte(addr))
			}

		case ngapType.ProtocolIEIDQosFlowSetupRequestList:
			if ies.Value.QosFlowSetupRequestList == nil {
				continue
			}

			for _, item := range ies.Value.QosFlowSetupRequestList.List {
				tunnel.QFIs = append(tunnel.QFIs, item.QosFlowIdentifier.Value)

				chars := item.QosFlowLevelQosParameters.QosCharacteristics
				if chars.NonDynamic5QI != nil && tunnel.FiveQI == 0 {
					tunnel.FiveQI = chars.NonDynamic5QI.FiveQI.Value
				}
			}
		}
	}

	return tunnel, nil
}

package gsm

import (
	"go.uber.org/zap/zapcore"
)

func (m *Message) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint8("pduSessionId", m.Header.PDUSessionID)
	enc.AddUint8("pti", m.Header.PTI)
	enc.AddString("messageType", m.Header.MessageType.String())
	enc.AddString("pduSessionType", m.SessionType.String())
	enc.AddUint8("sscMode", uint8(m.SSCMode))
	enc.AddString("presence", m.Presence.String())

	if err := enc.AddObject("qosRules", m.QosRules); err != nil {
		return err
	}

	if m.PDUAddress != nil {
		if err := enc.AddObject("pduAddress", m.PDUAddress); err != nil {
			return err
		}
	}

	if len(m.DNN) > 0 {
		enc.AddString("dnn", m.DNN.String())
	}

	if m.EPCO != nil {
		if err := enc.AddObject("epco", m.EPCO); err != nil {
			return err
		}
	}

	if len(m.Warnings) > 0 {
		enc.AddInt("warnings", len(m.Warnings))
	}

	return nil
}

func (r QosRules) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint16("length", r.Length)

	return enc.AddArray("rules", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, rule := range r.Rules {
			if err := ae.AppendObject(rule); err != nil {
				return err
			}
		}

		return nil
	}))
}

func (r QosRule) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint8("id", r.Identifier)
	enc.AddString("operation", r.OperationCode.String())
	enc.AddBool("dqr", r.DQR)
	enc.AddUint8("precedence", r.Precedence)
	enc.AddUint8("qfi", r.QFI)

	switch l := r.PacketFilterList.(type) {
	case UpdateList:
		enc.AddInt("packetFilters", len(l.Filters))

		return enc.AddArray("components", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
			for _, f := range l.Filters {
				for _, comp := range f.Components {
					ae.AppendString(comp.String())
				}
			}

			return nil
		}))
	case DeleteList:
		enc.AddInt("deletedPacketFilters", len(l.FilterIDs))
	}

	return nil
}

func (a *PDUAddress) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", a.Type.String())

	if ip, ok := a.IPv4(); ok {
		enc.AddString("ipv4", ip.String())
	}

	if ip, ok := a.IPv6LinkLocal(); ok {
		enc.AddString("ipv6LinkLocal", ip.String())
	}

	return nil
}

func (e *ExtendedPCO) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("containers", len(e.Containers))

	return enc.AddArray("dns", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, addr := range e.DNSServers() {
			ae.AppendString(addr.String())
		}

		return nil
	}))
}

package gsm

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Accept captured from an SMF: IPv4 session, one match-all QoS rule, 5QI 9,
// DNS 8.8.8.8 and a trailing IE cut short by the capture.
const acceptExample = "2e 01 01 c2 11 00 09 01 00 06 31 3f 01 01 ff 01 06 06 13 88 04 7a 12 59 32 29 05 01 ac 1a 64 65 " +
	"22 01 01 79 00 06 01 20 41 01 01 09 7b 00 18 80 80 21 0a 03 00 00 0a 81 06 08 08 08 08 00 0d 04 08 08 08 08 " +
	"00 11 00 25 1c 09 69 6e 74 65 72 6e 65 74 06 6d 6e 63 30 30 31 06 6d 63 63 30 30 31 04 67 70 72 73 12 01"

// mandatory header, QoS rules and Session-AMBR of a minimal accept
const acceptMandatory = "2e 05 01 c2 11 00 06 01 00 03 c0 ff 01 06 06 13 88 04 7a 12"

func TestDecode_Example(t *testing.T) {
	msg, err := Decode(mustHex(t, acceptExample))
	require.NoError(t, err)

	assert.Equal(t, Header{
		ExtendedProtocolDiscriminator: 0x2e,
		PDUSessionID:                  1,
		PTI:                           1,
		RawMessageType:                0xc2,
		MessageType:                   MessageTypeEstablishmentAccept,
	}, msg.Header)
	assert.True(t, msg.Header.SessionManagement())
	assert.Equal(t, PDUSessionTypeIPv4, msg.SessionType)
	assert.Equal(t, SSCMode(1), msg.SSCMode)
	assert.Equal(t, uint8(0x32), msg.Cause)

	require.Len(t, msg.QosRules.Rules, 1)
	rule := msg.QosRules.Rules[0]
	assert.Equal(t, uint8(1), rule.Identifier)
	assert.Equal(t, uint16(6), rule.Length)
	assert.Equal(t, OpCreateNewQosRule, rule.OperationCode)
	assert.True(t, rule.DQR)
	assert.Equal(t, uint8(0xff), rule.Precedence)
	assert.Equal(t, uint8(1), rule.QFI)
	assert.Equal(t, UpdateList{Filters: []PacketFilter{matchAllFilter(DirectionBidirection, 15)}}, rule.PacketFilterList)

	require.NotNil(t, msg.PDUAddress)
	assert.Equal(t, PDUSessionTypeIPv4, msg.PDUAddress.Type)
	ip, ok := msg.PDUAddress.IPv4()
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("172.26.100.101"), ip)

	name, err := msg.DNN.Name()
	require.NoError(t, err)
	assert.Equal(t, "internet.mnc001.mcc001.gprs", name)

	require.NotNil(t, msg.EPCO)
	require.Len(t, msg.EPCO.Containers, 3)
	dns, ok := msg.EPCO.Container(ContainerDNSIPv4Address)
	require.True(t, ok)
	assert.Equal(t, []byte{0x08, 0x08, 0x08, 0x08}, dns.Content)
	_, ok = msg.EPCO.DNSv6()
	assert.False(t, ok)
	_, ok = msg.EPCO.PCSCFv6()
	assert.False(t, ok)

	require.Len(t, msg.QosFlowDescriptions, 1)
	qfd := msg.QosFlowDescriptions[0]
	assert.Equal(t, uint8(1), qfd.QFI)
	assert.Equal(t, uint8(1), qfd.OperationCode)
	assert.True(t, qfd.EBit)
	fiveQI, ok := qfd.FiveQI()
	require.True(t, ok)
	assert.Equal(t, uint8(9), fiveQI)

	assert.Equal(t, []IE{IE5GSMCause, IEPDUAddress, IESNSSAI, IEQosFlowDescriptions, IEExtendedPCO, IEDNN}, msg.Presence.IEs())
	assert.True(t, msg.Has(IEDNN))
	assert.False(t, msg.Has(IERQTimer))

	require.Len(t, msg.Warnings, 1)
	assert.ErrorIs(t, msg.Warnings[0], ErrOutOfBounds)
}

func TestDecode_StrictRejectsWarnings(t *testing.T) {
	_, err := DecodeOptions{Strict: true}.Decode(mustHex(t, acceptExample))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	msg, err := DecodeOptions{Strict: true}.Decode(mustHex(t, acceptExample)[:101])
	require.NoError(t, err)
	assert.Empty(t, msg.Warnings)
}

func TestDecode_Deterministic(t *testing.T) {
	b := mustHex(t, acceptExample)

	first, err := Decode(b)
	require.NoError(t, err)

	second, err := Decode(b)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDecode_DoesNotAliasInput(t *testing.T) {
	b := mustHex(t, acceptExample)

	msg, err := Decode(b)
	require.NoError(t, err)

	for i := range b {
		b[i] = 0
	}

	name, err := msg.DNN.Name()
	require.NoError(t, err)
	assert.Equal(t, "internet.mnc001.mcc001.gprs", name)

	ip, _ := msg.PDUAddress.IPv4()
	assert.Equal(t, netip.MustParseAddr("172.26.100.101"), ip)
	assert.Equal(t, []byte{0x08, 0x08, 0x08, 0x08}, msg.EPCO.Containers[1].Content)
}

func TestDecode_PrefixTruncation(t *testing.T) {
	b := mustHex(t, acceptExample)

	// IE boundaries after the mandatory part
	boundaries := map[int]bool{23: true, 25: true, 32: true, 35: true, 44: true, 71: true, 101: true}

	// spans of the IEs the decoder keeps
	kept := [][2]int{{25, 32}, {35, 44}, {44, 71}, {71, 101}}

	// prefixes ending inside a skipped IE: 5GSM cause, S-NSSAI and the
	// trailing 12 01
	skipped := map[int]bool{24: true, 33: true, 34: true, 102: true}

	for n := 0; n < len(b); n++ {
		var (
			msg *Message
			err error
		)

		require.NotPanics(t, func() { msg, err = Decode(b[:n]) }, "prefix %d", n)

		switch {
		case n < 23:
			assert.ErrorIs(t, err, ErrOutOfBounds, "prefix %d", n)
		case boundaries[n]:
			require.NoError(t, err, "prefix %d", n)
			assert.Empty(t, msg.Warnings, "prefix %d", n)
		case skipped[n]:
			require.NoError(t, err, "prefix %d", n)
			require.Len(t, msg.Warnings, 1, "prefix %d", n)
			assert.ErrorIs(t, msg.Warnings[0], ErrOutOfBounds, "prefix %d", n)

			_, err = DecodeOptions{Strict: true}.Decode(b[:n])
			assert.ErrorIs(t, err, ErrOutOfBounds, "strict prefix %d", n)
		}

		for _, span := range kept {
			if n > span[0] && n < span[1] {
				assert.ErrorIs(t, err, ErrOutOfBounds, "prefix %d", n)
			}
		}
	}
}

func TestDecode_OptionalIEs(t *testing.T) {
	tests := []struct {
		name     string
		optional string
		check    func(t *testing.T, msg *Message)
		wantErr  error
	}{
		{
			name:     "none",
			optional: "",
			check: func(t *testing.T, msg *Message) {
				assert.Nil(t, msg.PDUAddress)
				assert.Nil(t, msg.EPCO)
				assert.Empty(t, msg.DNN)
				assert.Empty(t, msg.Presence.IEs())
			},
		},
		{
			name:     "always-on indication before dnn",
			optional: "81 25 04 03 69 6d 73",
			check: func(t *testing.T, msg *Message) {
				assert.True(t, msg.Has(IEAlwaysOnPDUSession))
				assert.Equal(t, "ims", msg.DNN.String())
			},
		},
		{
			name:     "rq timer and control plane only",
			optional: "56 21 c1",
			check: func(t *testing.T, msg *Message) {
				assert.True(t, msg.Has(IERQTimer))
				assert.True(t, msg.Has(IEControlPlaneOnly))
				assert.Empty(t, msg.Warnings)
			},
		},
		{
			name:     "unrecognised tlv is skipped",
			optional: "12 02 aa bb 29 05 01 0a 2d 00 02",
			check: func(t *testing.T, msg *Message) {
				ip, ok := msg.PDUAddress.IPv4()
				require.True(t, ok)
				assert.Equal(t, netip.MustParseAddr("10.45.0.2"), ip)
			},
		},
		{
			name:     "ipv4v6 pdu address",
			optional: "29 0d 03 00 00 00 00 00 00 00 01 0a 2d 00 02",
			check: func(t *testing.T, msg *Message) {
				family, err := msg.PDUAddress.Family()
				require.NoError(t, err)
				assert.Equal(t, FamilyIPv4v6, family)
			},
		},
		{
			name:     "pdu address with three address octets",
			optional: "29 04 01 0a 2d 00",
			wantErr:  ErrInvalidLength,
		},
		{
			name:     "epco container overruns ie",
			optional: "7b 00 04 80 00 0d 04",
			wantErr:  ErrTruncatedContainer,
		},
		{
			name:     "qos flow description overruns ie",
			optional: "79 00 04 01 20 41 01",
			wantErr:  ErrTruncatedContainer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode(mustHex(t, acceptMandatory+" "+tt.optional))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, uint8(5), msg.Header.PDUSessionID)
			tt.check(t, msg)
		})
	}
}

func TestDecode_UnknownComponent(t *testing.T) {
	b := mustHex(t, "2e 05 01 c2 11 00 0b 01 00 08 21 31 03 7f aa bb ff 01 00")

	msg, err := Decode(b)
	require.NoError(t, err)
	require.Len(t, msg.Warnings, 1)
	assert.ErrorIs(t, msg.Warnings[0], ErrUnknownComponentType)

	_, err = DecodeOptions{Strict: true}.Decode(b)
	assert.ErrorIs(t, err, ErrUnknownComponentType)
}

func TestDecode_OtherMessageType(t *testing.T) {
	msg, err := Decode(mustHex(t, "2e 05 01 d6 21 00 00 00"))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeUnknown, msg.Header.MessageType)
	assert.Equal(t, uint8(0xd6), msg.Header.RawMessageType)
	assert.Equal(t, SSCMode(2), msg.SSCMode)
	assert.Equal(t, PDUSessionTypeIPv4, msg.SessionType)
	assert.Empty(t, msg.QosRules.Rules)
}

func TestMessageName(t *testing.T) {
	assert.Equal(t, "PDU Session Establishment Accept", MessageName(0xc2))
	assert.Equal(t, "5GSM Status", MessageName(0xd6))
	assert.Equal(t, "Unknown Message Type (0x00)", MessageName(0x00))
	assert.Equal(t, "PDU Session Release Complete", MessageTypeReleaseComplete.String())
	assert.Equal(t, MessageTypeModificationCommandReject, MessageTypeFromCode(0xcd))
}

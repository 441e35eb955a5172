package gsm

import (
	"encoding/hex"
	"net"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellanetworks/nas-decoder/internal/cursor"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)

	return b
}

func TestDecodeComponent(t *testing.T) {
	tests := []struct {
		name     string
		typ      ComponentType
		input    string
		expected ComponentValue
	}{
		{
			name:     "match all",
			typ:      ComponentMatchAll,
			input:    "",
			expected: MatchAll{},
		},
		{
			name: "ipv4 remote address",
			typ:  ComponentIPv4RemoteAddress,
			input: "c0 a8 01 00 ff ff ff 00",
			expected: IPv4Filter{
				Address: netip.MustParseAddr("192.168.1.0"),
				Mask:    netip.MustParseAddr("255.255.255.0"),
			},
		},
		{
			name:  "ipv6 local address and prefix length",
			typ:   ComponentIPv6LocalAddressPrefixLength,
			input: "20 01 0d b8 00 00 00 00 00 00 00 00 00 00 00 00 40",
			expected: IPv6Filter{
				Address:      netip.MustParseAddr("2001:db8::"),
				PrefixLength: 64,
			},
		},
		{
			name:     "protocol identifier",
			typ:      ComponentProtocolIdentifierNextHeader,
			input:    "11",
			expected: ProtocolIdentifier{Value: 17},
		},
		{
			name:     "single remote port",
			typ:      ComponentSingleRemotePort,
			input:    "01 bb",
			expected: Port{Value: 443},
		},
		{
			name:     "local port range",
			typ:      ComponentLocalPortRange,
			input:    "13 88 13 ff",
			expected: PortRange{Low: 5000, High: 5119},
		},
		{
			name:     "security parameter index",
			typ:      ComponentSecurityParameterIndex,
			input:    "de ad be ef",
			expected: SecurityParameterIndex{Value: 0xdeadbeef},
		},
		{
			name:     "type of service",
			typ:      ComponentTypeOfServiceTrafficClass,
			input:    "b8 fc",
			expected: TypeOfServiceTrafficClass{Value: 0xb8, Mask: 0xfc},
		},
		{
			name:     "flow label keeps 20 bits",
			typ:      ComponentFlowLabel,
			input:    "ff 23 45",
			expected: FlowLabel{Value: 0xf2345},
		},
		{
			name:     "destination mac address",
			typ:      ComponentDestinationMACAddress,
			input:    "00 11 22 33 44 55",
			expected: MACAddress{Value: net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}},
		},
		{
			name:     "c-tag vid keeps 12 bits",
			typ:      ComponentVlanCtagVid,
			input:    "f0 64",
			expected: VlanVid{Value: 100},
		},
		{
			name:     "s-tag pcp and dei",
			typ:      ComponentVlanStagPcpDei,
			input:    "0b",
			expected: VlanPcpDei{PCP: 5, DEI: true},
		},
		{
			name:     "ethertype",
			typ:      ComponentEthertype,
			input:    "86 dd",
			expected: Ethertype{Value: 0x86dd},
		},
		{
			name:  "source mac address range",
			typ:   ComponentSourceMACAddressRange,
			input: "00 00 00 00 00 01 00 00 00 00 00 ff",
			expected: MACAddressRange{
				Low:  net.HardwareAddr{0, 0, 0, 0, 0, 0x01},
				High: net.HardwareAddr{0, 0, 0, 0, 0, 0xff},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cursor.New(mustHex(t, tt.input))

			comp, err := decodeComponent(tt.typ, c)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, comp.Type())
			assert.Equal(t, tt.expected, comp.Value())
			assert.True(t, c.Empty())
		})
	}
}

func TestDecodeComponent_Truncated(t *testing.T) {
	c := cursor.New(mustHex(t, "c0 a8 01"))

	_, err := decodeComponent(ComponentIPv4LocalAddress, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncatedContainer)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestDecodeComponent_Unknown(t *testing.T) {
	c := cursor.New(mustHex(t, "aa bb cc"))

	comp, err := decodeComponent(ComponentType(0x7f), c)
	require.ErrorIs(t, err, ErrUnknownComponentType)
	assert.Equal(t, ComponentType(0x7f), comp.Type())
	assert.Equal(t, Reserved{Raw: []byte{0xaa, 0xbb, 0xcc}}, comp.Value())
	assert.True(t, c.Empty())
}

func TestNewComponent(t *testing.T) {
	tests := []struct {
		name    string
		typ     ComponentType
		value   ComponentValue
		wantErr bool
	}{
		{name: "matching port", typ: ComponentSingleLocalPort, value: Port{Value: 80}},
		{name: "reserved on unknown type", typ: ComponentType(0x02), value: Reserved{}},
		{name: "port under range type", typ: ComponentLocalPortRange, value: Port{Value: 80}, wantErr: true},
		{name: "reserved on known type", typ: ComponentEthertype, value: Reserved{}, wantErr: true},
		{name: "nil value", typ: ComponentMatchAll, value: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := NewComponent(tt.typ, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.typ, comp.Type())
			assert.Equal(t, tt.value, comp.Value())
		})
	}
}

func TestComponentType_Known(t *testing.T) {
	known := 0

	for i := 0; i < 256; i++ {
		if ComponentType(i).Known() {
			known++
		}
	}

	assert.Equal(t, 22, known)
	assert.Equal(t, "Reserved (0x02)", ComponentType(0x02).String())
}

package gsm

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/ellanetworks/nas-decoder/internal/cursor"
)

type ComponentType uint8

const (
	ComponentMatchAll                      ComponentType = 0x01
	ComponentIPv4RemoteAddress             ComponentType = 0x09
	ComponentIPv4LocalAddress              ComponentType = 0x0A
	ComponentIPv6RemoteAddressPrefixLength ComponentType = 0x0C
	ComponentIPv6LocalAddressPrefixLength  ComponentType = 0x0F
	ComponentProtocolIdentifierNextHeader  ComponentType = 0x10
	ComponentSingleLocalPort               ComponentType = 0x11
	ComponentLocalPortRange                ComponentType = 0x12
	ComponentSingleRemotePort              ComponentType = 0x13
	ComponentRemotePortRange               ComponentType = 0x14
	ComponentSecurityParameterIndex        ComponentType = 0x18
	ComponentTypeOfServiceTrafficClass     ComponentType = 0x19
	ComponentFlowLabel                     ComponentType = 0x20
	ComponentDestinationMACAddress         ComponentType = 0x21
	ComponentSourceMACAddress              ComponentType = 0x22
	ComponentVlanCtagVid                   ComponentType = 0x23
	ComponentVlanStagVid                   ComponentType = 0x24
	ComponentVlanCtagPcpDei                ComponentType = 0x25
	ComponentVlanStagPcpDei                ComponentType = 0x26
	ComponentEthertype                     ComponentType = 0x27
	ComponentDestinationMACAddressRange    ComponentType = 0x28
	ComponentSourceMACAddressRange         ComponentType = 0x29
)

const (
	flowLabelMask = 0x000FFFFF
	vlanVidMask   = 0x0FFF
)

// componentWidth returns the fixed value width of a component type.
func componentWidth(t ComponentType) (int, bool) {
	switch t {
	case ComponentMatchAll:
		return 0, true
	case ComponentProtocolIdentifierNextHeader, ComponentVlanCtagPcpDei, ComponentVlanStagPcpDei:
		return 1, true
	case ComponentSingleLocalPort, ComponentSingleRemotePort, ComponentTypeOfServiceTrafficClass,
		ComponentVlanCtagVid, ComponentVlanStagVid, ComponentEthertype:
		return 2, true
	case ComponentFlowLabel:
		return 3, true
	case ComponentLocalPortRange, ComponentRemotePortRange, ComponentSecurityParameterIndex:
		return 4, true
	case ComponentDestinationMACAddress, ComponentSourceMACAddress:
		return 6, true
	case ComponentIPv4RemoteAddress, ComponentIPv4LocalAddress:
		return 8, true
	case ComponentDestinationMACAddressRange, ComponentSourceMACAddressRange:
		return 12, true
	case ComponentIPv6RemoteAddressPrefixLength, ComponentIPv6LocalAddressPrefixLength:
		return 17, true
	default:
		return 0, false
	}
}

func (t ComponentType) Known() bool {
	_, ok := componentWidth(t)
	return ok
}

func (t ComponentType) String() string {
	switch t {
	case ComponentMatchAll:
		return "Match-all"
	case ComponentIPv4RemoteAddress:
		return "IPv4 remote address"
	case ComponentIPv4LocalAddress:
		return "IPv4 local address"
	case ComponentIPv6RemoteAddressPrefixLength:
		return "IPv6 remote address/prefix length"
	case ComponentIPv6LocalAddressPrefixLength:
		return "IPv6 local address/prefix length"
	case ComponentProtocolIdentifierNextHeader:
		return "Protocol identifier/Next header"
	case ComponentSingleLocalPort:
		return "Single local port"
	case ComponentLocalPortRange:
		return "Local port range"
	case ComponentSingleRemotePort:
		return "Single remote port"
	case ComponentRemotePortRange:
		return "Remote port range"
	case ComponentSecurityParameterIndex:
		return "Security parameter index"
	case ComponentTypeOfServiceTrafficClass:
		return "Type of service/Traffic class"
	case ComponentFlowLabel:
		return "Flow label"
	case ComponentDestinationMACAddress:
		return "Destination MAC address"
	case ComponentSourceMACAddress:
		return "Source MAC address"
	case ComponentVlanCtagVid:
		return "802.1Q C-TAG VID"
	case ComponentVlanStagVid:
		return "802.1Q S-TAG VID"
	case ComponentVlanCtagPcpDei:
		return "802.1Q C-TAG PCP/DEI"
	case ComponentVlanStagPcpDei:
		return "802.1Q S-TAG PCP/DEI"
	case ComponentEthertype:
		return "Ethertype"
	case ComponentDestinationMACAddressRange:
		return "Destination MAC address range"
	case ComponentSourceMACAddressRange:
		return "Source MAC address range"
	default:
		return fmt.Sprintf("Reserved (0x%02x)", uint8(t))
	}
}

// ComponentValue is implemented by the value types of the packet filter
// component union. Which concrete type is valid depends on the component
// type; see NewComponent.
type ComponentValue interface {
	componentValue()
}

type MatchAll struct{}

type IPv4Filter struct {
	Address netip.Addr
	Mask    netip.Addr
}

type IPv6Filter struct {
	Address      netip.Addr
	PrefixLength uint8
}

func (f IPv6Filter) Prefix() (netip.Prefix, error) {
	return f.Address.Prefix(int(f.PrefixLength))
}

// String renders the filter as a prefix, or as address and raw length when
// the length is over 128.
func (f IPv6Filter) String() string {
	p, err := f.Prefix()
	if err != nil {
		return fmt.Sprintf("%s/%d", f.Address, f.PrefixLength)
	}

	return p.String()
}

type ProtocolIdentifier struct {
	Value uint8
}

type Port struct {
	Value uint16
}

type PortRange struct {
	Low  uint16
	High uint16
}

type SecurityParameterIndex struct {
	Value uint32
}

type TypeOfServiceTrafficClass struct {
	Value uint8
	Mask  uint8
}

// FlowLabel holds the 20-bit IPv6 flow label.
type FlowLabel struct {
	Value uint32
}

type MACAddress struct {
	Value net.HardwareAddr
}

// VlanVid holds a 12-bit 802.1Q VLAN identifier.
type VlanVid struct {
	Value uint16
}

type VlanPcpDei struct {
	PCP uint8
	DEI bool
}

type Ethertype struct {
	Value uint16
}

type MACAddressRange struct {
	Low  net.HardwareAddr
	High net.HardwareAddr
}

// Reserved holds the undecodable remainder of a packet filter that started
// with an unknown component type.
type Reserved struct {
	Raw []byte
}

func (MatchAll) componentValue()                  {}
func (IPv4Filter) componentValue()                {}
func (IPv6Filter) componentValue()                {}
func (ProtocolIdentifier) componentValue()        {}
func (Port) componentValue()                      {}
func (PortRange) componentValue()                 {}
func (SecurityParameterIndex) componentValue()    {}
func (TypeOfServiceTrafficClass) componentValue() {}
func (FlowLabel) componentValue()                 {}
func (MACAddress) componentValue()                {}
func (VlanVid) componentValue()                   {}
func (VlanPcpDei) componentValue()                {}
func (Ethertype) componentValue()                 {}
func (MACAddressRange) componentValue()           {}
func (Reserved) componentValue()                  {}

// Component is one packet filter component. The type tag and the value
// always correspond; the only ways to build one are NewComponent and the
// decoder.
type Component struct {
	typ   ComponentType
	value ComponentValue
}

func (c Component) Type() ComponentType {
	return c.typ
}

func (c Component) Value() ComponentValue {
	return c.value
}

func (c Component) String() string {
	var v string

	switch x := c.value.(type) {
	case MatchAll:
		return c.typ.String()
	case IPv4Filter:
		v = fmt.Sprintf("%s mask %s", x.Address, x.Mask)
	case IPv6Filter:
		v = x.String()
	case ProtocolIdentifier:
		v = fmt.Sprintf("%d", x.Value)
	case Port:
		v = fmt.Sprintf("%d", x.Value)
	case PortRange:
		v = fmt.Sprintf("%d-%d", x.Low, x.High)
	case SecurityParameterIndex:
		v = fmt.Sprintf("0x%08x", x.Value)
	case TypeOfServiceTrafficClass:
		v = fmt.Sprintf("0x%02x mask 0x%02x", x.Value, x.Mask)
	case FlowLabel:
		v = fmt.Sprintf("0x%05x", x.Value)
	case MACAddress:
		v = x.Value.String()
	case VlanVid:
		v = fmt.Sprintf("%d", x.Value)
	case VlanPcpDei:
		v = fmt.Sprintf("pcp %d dei %t", x.PCP, x.DEI)
	case Ethertype:
		v = fmt.Sprintf("0x%04x", x.Value)
	case MACAddressRange:
		v = fmt.Sprintf("%s-%s", x.Low, x.High)
	case Reserved:
		v = fmt.Sprintf("%x", x.Raw)
	default:
		return c.typ.String()
	}

	return c.typ.String() + " " + v
}

func valueMatches(t ComponentType, v ComponentValue) bool {
	switch v.(type) {
	case MatchAll:
		return t == ComponentMatchAll
	case IPv4Filter:
		return t == ComponentIPv4RemoteAddress || t == ComponentIPv4LocalAddress
	case IPv6Filter:
		return t == ComponentIPv6RemoteAddressPrefixLength || t == ComponentIPv6LocalAddressPrefixLength
	case ProtocolIdentifier:
		return t == ComponentProtocolIdentifierNextHeader
	case Port:
		return t == ComponentSingleLocalPort || t == ComponentSingleRemotePort
	case PortRange:
		return t == ComponentLocalPortRange || t == ComponentRemotePortRange
	case SecurityParameterIndex:
		return t == ComponentSecurityParameterIndex
	case TypeOfServiceTrafficClass:
		return t == ComponentTypeOfServiceTrafficClass
	case FlowLabel:
		return t == ComponentFlowLabel
	case MACAddress:
		return t == ComponentDestinationMACAddress || t == ComponentSourceMACAddress
	case VlanVid:
		return t == ComponentVlanCtagVid || t == ComponentVlanStagVid
	case VlanPcpDei:
		return t == ComponentVlanCtagPcpDei || t == ComponentVlanStagPcpDei
	case Ethertype:
		return t == ComponentEthertype
	case MACAddressRange:
		return t == ComponentDestinationMACAddressRange || t == ComponentSourceMACAddressRange
	case Reserved:
		return !t.Known()
	default:
		return false
	}
}

func NewComponent(t ComponentType, v ComponentValue) (Component, error) {
	if v == nil || !valueMatches(t, v) {
		return Component{}, fmt.Errorf("value %T does not match component type %s", v, t)
	}

	return Component{typ: t, value: v}, nil
}

// decodeComponent decodes the value of a component whose type octet has
// already been read. An unknown type consumes the rest of c into a Reserved
// component and reports ErrUnknownComponentType alongside it.
func decodeComponent(t ComponentType, c *cursor.Cursor) (Component, error) {
	width, ok := componentWidth(t)
	if !ok {
		raw := append([]byte(nil), c.Rest()...)
		return Component{typ: t, value: Reserved{Raw: raw}},
			fmt.Errorf("%w: 0x%02x", ErrUnknownComponentType, uint8(t))
	}

	v, err := c.Sub(width)
	if err != nil {
		return Component{}, truncated(fmt.Sprintf("component %s", t), err)
	}

	value, err := decodeComponentValue(t, v)
	if err != nil {
		return Component{}, fmt.Errorf("component %s: %w", t, err)
	}

	return Component{typ: t, value: value}, nil
}

// decodeComponentValue reads exactly componentWidth(t) octets from v.
func decodeComponentValue(t ComponentType, v *cursor.Cursor) (ComponentValue, error) {
	switch t {
	case ComponentMatchAll:
		return MatchAll{}, nil

	case ComponentIPv4RemoteAddress, ComponentIPv4LocalAddress:
		addr, err := v.ReadSlice(4)
		if err != nil {
			return nil, err
		}

		mask, err := v.ReadSlice(4)
		if err != nil {
			return nil, err
		}

		return IPv4Filter{
			Address: netip.AddrFrom4([4]byte(addr)),
			Mask:    netip.AddrFrom4([4]byte(mask)),
		}, nil

	case ComponentIPv6RemoteAddressPrefixLength, ComponentIPv6LocalAddressPrefixLength:
		addr, err := v.ReadSlice(16)
		if err != nil {
			return nil, err
		}

		prefixLen, err := v.ReadUint8()
		if err != nil {
			return nil, err
		}

		return IPv6Filter{Address: netip.AddrFrom16([16]byte(addr)), PrefixLength: prefixLen}, nil

	case ComponentProtocolIdentifierNextHeader:
		p, err := v.ReadUint8()
		if err != nil {
			return nil, err
		}

		return ProtocolIdentifier{Value: p}, nil

	case ComponentSingleLocalPort, ComponentSingleRemotePort:
		p, err := v.ReadUint16()
		if err != nil {
			return nil, err
		}

		return Port{Value: p}, nil

	case ComponentLocalPortRange, ComponentRemotePortRange:
		low, err := v.ReadUint16()
		if err != nil {
			return nil, err
		}

		high, err := v.ReadUint16()
		if err != nil {
			return nil, err
		}

		return PortRange{Low: low, High: high}, nil

	case ComponentSecurityParameterIndex:
		spi, err := v.ReadUint32()
		if err != nil {
			return nil, err
		}

		return SecurityParameterIndex{Value: spi}, nil

	case ComponentTypeOfServiceTrafficClass:
		tos, err := v.ReadUint8()
		if err != nil {
			return nil, err
		}

		mask, err := v.ReadUint8()
		if err != nil {
			return nil, err
		}

		return TypeOfServiceTrafficClass{Value: tos, Mask: mask}, nil

	case ComponentFlowLabel:
		label, err := v.ReadUint24()
		if err != nil {
			return nil, err
		}

		return FlowLabel{Value: label & flowLabelMask}, nil

	case ComponentDestinationMACAddress, ComponentSourceMACAddress:
		mac, err := v.ReadBytes(6)
		if err != nil {
			return nil, err
		}

		return MACAddress{Value: net.HardwareAddr(mac)}, nil

	case ComponentVlanCtagVid, ComponentVlanStagVid:
		vid, err := v.ReadUint16()
		if err != nil {
			return nil, err
		}

		return VlanVid{Value: vid & vlanVidMask}, nil

	case ComponentVlanCtagPcpDei, ComponentVlanStagPcpDei:
		b, err := v.ReadUint8()
		if err != nil {
			return nil, err
		}

		// bits 4-2 PCP, bit 1 DEI
		return VlanPcpDei{PCP: (b >> 1) & 0x07, DEI: b&0x01 != 0}, nil

	case ComponentEthertype:
		et, err := v.ReadUint16()
		if err != nil {
			return nil, err
		}

		return Ethertype{Value: et}, nil

	case ComponentDestinationMACAddressRange, ComponentSourceMACAddressRange:
		low, err := v.ReadBytes(6)
		if err != nil {
			return nil, err
		}

		high, err := v.ReadBytes(6)
		if err != nil {
			return nil, err
		}

		return MACAddressRange{Low: net.HardwareAddr(low), High: net.HardwareAddr(high)}, nil
	}

	return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownComponentType, uint8(t))
}

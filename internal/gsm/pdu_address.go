package gsm

import (
	"fmt"
	"net/netip"

	"github.com/ellanetworks/nas-decoder/internal/cursor"
)

// PDUSessionType is the 3-bit PDU session type value shared by the selected
// PDU session type field and the PDU address IE.
type PDUSessionType uint8

const (
	PDUSessionTypeUnknown PDUSessionType = 0
	PDUSessionTypeIPv4    PDUSessionType = 0b001
	PDUSessionTypeIPv6    PDUSessionType = 0b010
	PDUSessionTypeIPv4v6  PDUSessionType = 0b011
)

func pduSessionTypeFromBits(b uint8) PDUSessionType {
	switch t := PDUSessionType(b & 0x07); t {
	case PDUSessionTypeIPv4, PDUSessionTypeIPv6, PDUSessionTypeIPv4v6:
		return t
	default:
		return PDUSessionTypeUnknown
	}
}

func (t PDUSessionType) String() string {
	switch t {
	case PDUSessionTypeIPv4:
		return "IPv4"
	case PDUSessionTypeIPv6:
		return "IPv6"
	case PDUSessionTypeIPv4v6:
		return "IPv4v6"
	default:
		return "Unknown"
	}
}

// AddressFamily is what a PDU address payload carries, derived from its length.
type AddressFamily uint8

const (
	FamilyIPv4   AddressFamily = iota + 1 // 4 octets: IPv4 address
	FamilyIPv6                            // 8 octets: IPv6 interface identifier
	FamilyIPv4v6                          // 12 octets: interface identifier then IPv4 address
)

func (f AddressFamily) String() string {
	switch f {
	case FamilyIPv4:
		return "IPv4"
	case FamilyIPv6:
		return "IPv6"
	case FamilyIPv4v6:
		return "IPv4v6"
	default:
		return "Unknown"
	}
}

const (
	ipv4AddressLen   = 4
	interfaceIDLen   = 8
	ipv4v6AddressLen = interfaceIDLen + ipv4AddressLen
)

type PDUAddress struct {
	Information []byte
	Type        PDUSessionType
}

// decodePDUAddress decodes the value part of a PDU address IE.
func decodePDUAddress(v *cursor.Cursor) (PDUAddress, error) {
	var a PDUAddress

	b, err := v.ReadUint8()
	if err != nil {
		return a, fmt.Errorf("pdu address type: %w", err)
	}

	a.Type = pduSessionTypeFromBits(b)
	a.Information = append([]byte(nil), v.Rest()...)

	if _, err := a.Family(); err != nil {
		return a, err
	}

	return a, nil
}

// Family reports what the address payload carries. The payload length,
// not the type field, decides.
func (a PDUAddress) Family() (AddressFamily, error) {
	switch len(a.Information) {
	case ipv4AddressLen:
		return FamilyIPv4, nil
	case interfaceIDLen:
		return FamilyIPv6, nil
	case ipv4v6AddressLen:
		return FamilyIPv4v6, nil
	default:
		return 0, fmt.Errorf("%w: pdu address information is %d octets, want 4, 8 or 12", ErrInvalidLength, len(a.Information))
	}
}

func (a PDUAddress) IPv4() (netip.Addr, bool) {
	switch len(a.Information) {
	case ipv4AddressLen:
		return netip.AddrFrom4([4]byte(a.Information)), true
	case ipv4v6AddressLen:
		return netip.AddrFrom4([4]byte(a.Information[interfaceIDLen:])), true
	default:
		return netip.Addr{}, false
	}
}

// InterfaceID returns the IPv6 interface identifier assigned to the UE.
func (a PDUAddress) InterfaceID() ([8]byte, bool) {
	switch len(a.Information) {
	case interfaceIDLen, ipv4v6AddressLen:
		return [8]byte(a.Information[:interfaceIDLen]), true
	default:
		return [8]byte{}, false
	}
}

// IPv6LinkLocal builds the fe80::/64 address from the interface identifier.
func (a PDUAddress) IPv6LinkLocal() (netip.Addr, bool) {
	iid, ok := a.InterfaceID()
	if !ok {
		return netip.Addr{}, false
	}

	var b [16]byte
	b[0], b[1] = 0xfe, 0x80
	copy(b[8:], iid[:])

	return netip.AddrFrom16(b), true
}

package gsm

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/ellanetworks/nas-decoder/internal/cursor"
)

// Protocol configuration container identifiers (TS 24.008 §10.5.6.3).
const (
	ContainerPCSCFIPv6Address uint16 = 0x0001
	ContainerDNSIPv6Address   uint16 = 0x0003
	ContainerPCSCFIPv4Address uint16 = 0x000C
	ContainerDNSIPv4Address   uint16 = 0x000D
	ContainerIPv4LinkMTU      uint16 = 0x0010
	ContainerIPCP             uint16 = 0x8021
)

type Container struct {
	Content []byte
	ID      uint16
	Length  uint8
}

// ExtendedPCO is the decoded Extended Protocol Configuration Options IE.
type ExtendedPCO struct {
	Containers            []Container
	Length                uint16
	ConfigurationProtocol uint8
}

// DecodeExtendedPCO decodes a complete ePCO IE, including its one octet
// type and two octet length. The first content octet carries the extension
// bit and configuration protocol; containers follow until the declared
// length is exhausted.
func DecodeExtendedPCO(ie []byte) (*ExtendedPCO, error) {
	c := cursor.New(ie)

	if err := c.Skip(1); err != nil {
		return nil, fmt.Errorf("epco type: %w", err)
	}

	length, err := c.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("epco length: %w", err)
	}

	content, err := c.Sub(int(length))
	if err != nil {
		return nil, fmt.Errorf("epco: %w", err)
	}

	epco := &ExtendedPCO{Length: length}

	if content.Empty() {
		return epco, nil
	}

	epco.ConfigurationProtocol, err = content.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("epco configuration protocol: %w", err)
	}

	for !content.Empty() {
		off := content.Offset()

		id, err := content.ReadUint16()
		if err != nil {
			return nil, truncated(fmt.Sprintf("epco container at offset %d", off), err)
		}

		n, err := content.ReadUint8()
		if err != nil {
			return nil, truncated(fmt.Sprintf("epco container 0x%04x length", id), err)
		}

		b, err := content.ReadBytes(int(n))
		if err != nil {
			return nil, truncated(fmt.Sprintf("epco container 0x%04x", id), err)
		}

		epco.Containers = append(epco.Containers, Container{ID: id, Length: n, Content: b})
	}

	return epco, nil
}

// Container returns the first container with the given identifier.
func (e *ExtendedPCO) Container(id uint16) (Container, bool) {
	if e == nil {
		return Container{}, false
	}

	for _, c := range e.Containers {
		if c.ID == id {
			return c, true
		}
	}

	return Container{}, false
}

// addr scans for a container with the given identifier carrying exactly
// size octets. Any other content length is treated as absent.
func (e *ExtendedPCO) addr(id uint16, size int) (netip.Addr, bool) {
	if e == nil {
		return netip.Addr{}, false
	}

	for _, c := range e.Containers {
		if c.ID != id || len(c.Content) != size {
			continue
		}

		addr, ok := netip.AddrFromSlice(c.Content)
		if ok {
			return addr, true
		}
	}

	return netip.Addr{}, false
}

func (e *ExtendedPCO) PCSCFv6() (netip.Addr, bool) {
	return e.addr(ContainerPCSCFIPv6Address, 16)
}

func (e *ExtendedPCO) DNSv6() (netip.Addr, bool) {
	return e.addr(ContainerDNSIPv6Address, 16)
}

func (e *ExtendedPCO) PCSCFv4() (netip.Addr, bool) {
	return e.addr(ContainerPCSCFIPv4Address, 4)
}

func (e *ExtendedPCO) DNSv4() (netip.Addr, bool) {
	return e.addr(ContainerDNSIPv4Address, 4)
}

// DNSServers returns every well-formed DNS server address, in container order.
func (e *ExtendedPCO) DNSServers() []netip.Addr {
	if e == nil {
		return nil
	}

	var out []netip.Addr

	for _, c := range e.Containers {
		switch {
		case c.ID == ContainerDNSIPv4Address && len(c.Content) == 4,
			c.ID == ContainerDNSIPv6Address && len(c.Content) == 16:
			addr, _ := netip.AddrFromSlice(c.Content)
			out = append(out, addr)
		}
	}

	return out
}

func (e *ExtendedPCO) IPv4LinkMTU() (uint16, bool) {
	c, ok := e.Container(ContainerIPv4LinkMTU)
	if !ok || len(c.Content) != 2 {
		return 0, false
	}

	return binary.BigEndian.Uint16(c.Content), true
}

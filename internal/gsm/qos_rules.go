package gsm

import (
	"errors"
	"fmt"

	"github.com/ellanetworks/nas-decoder/internal/cursor"
)

// RuleOperationCode is bits 8 to 6 of the third octet of a QoS rule
// (TS 24.501 §9.11.4.13).
type RuleOperationCode uint8

const (
	OpCreateNewQosRule                    RuleOperationCode = 0b001
	OpDeleteExistingQosRule               RuleOperationCode = 0b010
	OpModifyAndAddPacketFilters           RuleOperationCode = 0b011
	OpModifyAndReplacePacketFilters       RuleOperationCode = 0b100
	OpModifyAndDeletePacketFilters        RuleOperationCode = 0b101
	OpModifyWithoutModifyingPacketFilters RuleOperationCode = 0b110
)

func (op RuleOperationCode) String() string {
	switch op {
	case OpCreateNewQosRule:
		return "Create new QoS rule"
	case OpDeleteExistingQosRule:
		return "Delete existing QoS rule"
	case OpModifyAndAddPacketFilters:
		return "Modify existing QoS rule and add packet filters"
	case OpModifyAndReplacePacketFilters:
		return "Modify existing QoS rule and replace all packet filters"
	case OpModifyAndDeletePacketFilters:
		return "Modify existing QoS rule and delete packet filters"
	case OpModifyWithoutModifyingPacketFilters:
		return "Modify existing QoS rule without modifying packet filters"
	default:
		return fmt.Sprintf("Reserved (%03b)", uint8(op))
	}
}

type PacketFilterDirection uint8

const (
	DirectionPreRel7     PacketFilterDirection = 0b00
	DirectionDownlink    PacketFilterDirection = 0b01
	DirectionUplink      PacketFilterDirection = 0b10
	DirectionBidirection PacketFilterDirection = 0b11
)

func (d PacketFilterDirection) String() string {
	switch d {
	case DirectionPreRel7:
		return "pre Rel-7 TFT filter"
	case DirectionDownlink:
		return "downlink only"
	case DirectionUplink:
		return "uplink only"
	default:
		return "bidirectional"
	}
}

// PacketFilterList is the packet filter list of a QoS rule. The concrete
// type is fixed by the rule operation code: DeleteList, UpdateList or
// NoFilters.
type PacketFilterList interface {
	packetFilterList()
}

// DeleteList carries the identifiers of the packet filters to delete.
type DeleteList struct {
	FilterIDs []uint8
}

// UpdateList carries the packet filters to create, add or replace.
type UpdateList struct {
	Filters []PacketFilter
}

type NoFilters struct{}

func (DeleteList) packetFilterList() {}
func (UpdateList) packetFilterList() {}
func (NoFilters) packetFilterList()  {}

type PacketFilter struct {
	Components    []Component
	Direction     PacketFilterDirection
	Identifier    uint8
	ContentLength uint8
}

type QosRule struct {
	PacketFilterList PacketFilterList
	Identifier       uint8
	Length           uint16
	FilterCount      uint8
	DQR              bool
	OperationCode    RuleOperationCode
	Precedence       uint8
	QFI              uint8
	Segregation      bool
}

type QosRules struct {
	Rules  []QosRule
	Length uint16
}

// decodeQosRules reads the LV-E QoS rules IE: a two octet length followed
// by that many octets of rule records.
func decodeQosRules(c *cursor.Cursor, st *decodeState) (QosRules, error) {
	var out QosRules

	length, err := c.ReadUint16()
	if err != nil {
		return out, fmt.Errorf("qos rules length: %w", err)
	}

	out.Length = length

	rc, err := c.Sub(int(length))
	if err != nil {
		return out, fmt.Errorf("qos rules: %w", err)
	}

	for !rc.Empty() {
		off := rc.Offset()

		rule, err := decodeQosRule(rc, st)
		if err != nil {
			return out, fmt.Errorf("qos rule at offset %d: %w", off, err)
		}

		out.Rules = append(out.Rules, rule)
	}

	return out, nil
}

func decodeQosRule(rc *cursor.Cursor, st *decodeState) (QosRule, error) {
	var r QosRule

	id, err := rc.ReadUint8()
	if err != nil {
		return r, truncated("identifier", err)
	}

	r.Identifier = id

	length, err := rc.ReadUint16()
	if err != nil {
		return r, truncated("length", err)
	}

	r.Length = length

	body, err := rc.Sub(int(length))
	if err != nil {
		return r, truncated("content", err)
	}

	// Op(3) | DQR(1) | numPF(4)
	hdr, err := body.ReadUint8()
	if err != nil {
		return r, truncated("header", err)
	}

	r.OperationCode = RuleOperationCode((hdr >> 5) & 0x07)
	r.DQR = (hdr>>4)&0x01 == 1
	r.FilterCount = hdr & 0x0F

	switch r.OperationCode {
	case OpDeleteExistingQosRule:
		if length != 1 {
			return r, fmt.Errorf("%w: delete rule length %d, want 1", ErrInvalidLength, length)
		}

		r.PacketFilterList = NoFilters{}

		return r, nil

	case OpModifyAndDeletePacketFilters:
		ids := make([]uint8, 0, r.FilterCount)

		for i := 0; i < int(r.FilterCount); i++ {
			b, err := body.ReadUint8()
			if err != nil {
				return r, truncated(fmt.Sprintf("packet filter identifier %d", i), err)
			}

			ids = append(ids, b&0x0F)
		}

		r.PacketFilterList = DeleteList{FilterIDs: ids}

	case OpCreateNewQosRule, OpModifyAndAddPacketFilters, OpModifyAndReplacePacketFilters:
		filters := make([]PacketFilter, 0, r.FilterCount)

		for i := 0; i < int(r.FilterCount); i++ {
			pf, err := decodePacketFilter(body, st)
			if err != nil {
				return r, fmt.Errorf("packet filter %d: %w", i, err)
			}

			filters = append(filters, pf)
		}

		r.PacketFilterList = UpdateList{Filters: filters}

	case OpModifyWithoutModifyingPacketFilters:
		r.PacketFilterList = NoFilters{}

	default:
		return r, fmt.Errorf("%w: %03b", ErrInvalidOperationCode, uint8(r.OperationCode))
	}

	precedence, err := body.ReadUint8()
	if err != nil {
		return r, truncated("precedence", err)
	}

	r.Precedence = precedence

	segQFI, err := body.ReadUint8()
	if err != nil {
		return r, truncated("qos flow identifier", err)
	}

	r.Segregation = (segQFI>>6)&0x01 == 1
	r.QFI = segQFI & 0x3F

	if !body.Empty() {
		return r, fmt.Errorf("%w: rule length %d, %d octets left over", ErrInvalidLength, length, body.Len())
	}

	return r, nil
}

// decodePacketFilter reads one entry of an update packet filter list. The
// component loop is driven by the content length octet, not by a count.
func decodePacketFilter(body *cursor.Cursor, st *decodeState) (PacketFilter, error) {
	var pf PacketFilter

	// spare(2) | direction(2) | identifier(4)
	h, err := body.ReadUint8()
	if err != nil {
		return pf, truncated("header", err)
	}

	pf.Direction = PacketFilterDirection((h >> 4) & 0x03)
	pf.Identifier = h & 0x0F

	clen, err := body.ReadUint8()
	if err != nil {
		return pf, truncated("content length", err)
	}

	pf.ContentLength = clen

	content, err := body.Sub(int(clen))
	if err != nil {
		return pf, truncated("contents", err)
	}

	for !content.Empty() {
		t, err := content.ReadUint8()
		if err != nil {
			return pf, truncated("component type", err)
		}

		comp, err := decodeComponent(ComponentType(t), content)
		if err != nil {
			if !errors.Is(err, ErrUnknownComponentType) {
				return pf, err
			}

			st.warn(fmt.Errorf("packet filter %d: %w", pf.Identifier, err))
		}

		pf.Components = append(pf.Components, comp)
	}

	return pf, nil
}

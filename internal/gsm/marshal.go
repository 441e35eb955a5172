package gsm

import (
	"encoding/hex"
	"encoding/json"
)

// JSON and YAML forms of a decoded message. Enumerations render as their
// names and octet strings as hex. YAML gets plain strings from MarshalYAML
// since go-yaml parses MarshalText output as a document.

func (t MessageType) MarshalText() ([]byte, error)      { return []byte(t.String()), nil }
func (t MessageType) MarshalYAML() (interface{}, error) { return t.String(), nil }

func (t PDUSessionType) MarshalText() ([]byte, error)      { return []byte(t.String()), nil }
func (t PDUSessionType) MarshalYAML() (interface{}, error) { return t.String(), nil }

func (m SSCMode) MarshalText() ([]byte, error)      { return []byte(m.String()), nil }
func (m SSCMode) MarshalYAML() (interface{}, error) { return m.String(), nil }

func (op RuleOperationCode) MarshalText() ([]byte, error)      { return []byte(op.String()), nil }
func (op RuleOperationCode) MarshalYAML() (interface{}, error) { return op.String(), nil }

func (d PacketFilterDirection) MarshalText() ([]byte, error)      { return []byte(d.String()), nil }
func (d PacketFilterDirection) MarshalYAML() (interface{}, error) { return d.String(), nil }

func (t ComponentType) MarshalText() ([]byte, error)      { return []byte(t.String()), nil }
func (t ComponentType) MarshalYAML() (interface{}, error) { return t.String(), nil }

func (ie IE) MarshalText() ([]byte, error)      { return []byte(ie.String()), nil }
func (ie IE) MarshalYAML() (interface{}, error) { return ie.String(), nil }

func (d DNN) MarshalText() ([]byte, error)      { return []byte(d.String()), nil }
func (d DNN) MarshalYAML() (interface{}, error) { return d.String(), nil }

func (f IPv6Filter) MarshalText() ([]byte, error)      { return []byte(f.String()), nil }
func (f IPv6Filter) MarshalYAML() (interface{}, error) { return f.String(), nil }

func (m MACAddress) MarshalText() ([]byte, error)      { return []byte(m.Value.String()), nil }
func (m MACAddress) MarshalYAML() (interface{}, error) { return m.Value.String(), nil }

func (r Reserved) MarshalText() ([]byte, error)      { return []byte(hex.EncodeToString(r.Raw)), nil }
func (r Reserved) MarshalYAML() (interface{}, error) { return hex.EncodeToString(r.Raw), nil }

func (p Presence) MarshalJSON() ([]byte, error) { return json.Marshal(p.IEs()) }

func (p Presence) MarshalYAML() (interface{}, error) { return p.IEs(), nil }

type componentView struct {
	Type  ComponentType  `json:"type" yaml:"type"`
	Value ComponentValue `json:"value" yaml:"value"`
}

func (c Component) MarshalJSON() ([]byte, error) {
	return json.Marshal(componentView{Type: c.typ, Value: c.value})
}

func (c Component) MarshalYAML() (interface{}, error) {
	return componentView{Type: c.typ, Value: c.value}, nil
}

type macAddressRangeView struct {
	Low  string `json:"low" yaml:"low"`
	High string `json:"high" yaml:"high"`
}

func (r MACAddressRange) view() macAddressRangeView {
	return macAddressRangeView{Low: r.Low.String(), High: r.High.String()}
}

func (r MACAddressRange) MarshalJSON() ([]byte, error) { return json.Marshal(r.view()) }

func (r MACAddressRange) MarshalYAML() (interface{}, error) { return r.view(), nil }

type deleteListView struct {
	FilterIDs []int `json:"filterIds" yaml:"filterIds"`
}

func (l DeleteList) view() deleteListView {
	ids := make([]int, len(l.FilterIDs))
	for i, id := range l.FilterIDs {
		ids[i] = int(id)
	}

	return deleteListView{FilterIDs: ids}
}

func (l DeleteList) MarshalJSON() ([]byte, error) { return json.Marshal(l.view()) }

func (l DeleteList) MarshalYAML() (interface{}, error) { return l.view(), nil }

type pduAddressView struct {
	Type          PDUSessionType `json:"type" yaml:"type"`
	IPv4          string         `json:"ipv4,omitempty" yaml:"ipv4,omitempty"`
	IPv6LinkLocal string         `json:"ipv6LinkLocal,omitempty" yaml:"ipv6LinkLocal,omitempty"`
	Information   string         `json:"information" yaml:"information"`
}

func (a *PDUAddress) view() pduAddressView {
	v := pduAddressView{Type: a.Type, Information: hex.EncodeToString(a.Information)}

	if ip, ok := a.IPv4(); ok {
		v.IPv4 = ip.String()
	}

	if ip, ok := a.IPv6LinkLocal(); ok {
		v.IPv6LinkLocal = ip.String()
	}

	return v
}

func (a *PDUAddress) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}

	return json.Marshal(a.view())
}

func (a *PDUAddress) MarshalYAML() (interface{}, error) {
	if a == nil {
		return nil, nil
	}

	return a.view(), nil
}

type containerView struct {
	ID      uint16 `json:"id" yaml:"id"`
	Length  uint8  `json:"length" yaml:"length"`
	Content string `json:"content" yaml:"content"`
}

func (c Container) view() containerView {
	return containerView{ID: c.ID, Length: c.Length, Content: hex.EncodeToString(c.Content)}
}

func (c Container) MarshalJSON() ([]byte, error) { return json.Marshal(c.view()) }

func (c Container) MarshalYAML() (interface{}, error) { return c.view(), nil }

type qosFlowParameterView struct {
	ID           uint8   `json:"id" yaml:"id"`
	Content      string  `json:"content" yaml:"content"`
	FiveQI       *uint8  `json:"fiveQi,omitempty" yaml:"fiveQi,omitempty"`
	GFBRUplink   *uint64 `json:"gfbrUplinkKbps,omitempty" yaml:"gfbrUplinkKbps,omitempty"`
	GFBRDownlink *uint64 `json:"gfbrDownlinkKbps,omitempty" yaml:"gfbrDownlinkKbps,omitempty"`
	MFBRUplink   *uint64 `json:"mfbrUplinkKbps,omitempty" yaml:"mfbrUplinkKbps,omitempty"`
	MFBRDownlink *uint64 `json:"mfbrDownlinkKbps,omitempty" yaml:"mfbrDownlinkKbps,omitempty"`
	AveragingMs  *uint16 `json:"averagingWindowMs,omitempty" yaml:"averagingWindowMs,omitempty"`
	EPSBearerID  *uint8  `json:"epsBearerId,omitempty" yaml:"epsBearerId,omitempty"`
}

func (p QosFlowParameter) view() qosFlowParameterView {
	return qosFlowParameterView{
		ID:           p.ID,
		Content:      hex.EncodeToString(p.Content),
		FiveQI:       p.FiveQI,
		GFBRUplink:   p.GFBRUplink,
		GFBRDownlink: p.GFBRDownlink,
		MFBRUplink:   p.MFBRUplink,
		MFBRDownlink: p.MFBRDownlink,
		AveragingMs:  p.AveragingMs,
		EPSBearerID:  p.EPSBearerID,
	}
}

func (p QosFlowParameter) MarshalJSON() ([]byte, error) { return json.Marshal(p.view()) }

func (p QosFlowParameter) MarshalYAML() (interface{}, error) { return p.view(), nil }

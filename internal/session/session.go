// Package session keeps the PDU sessions established by decoded
// PDU Session Establishment Accept messages.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mohae/deepcopy"
	"go.uber.org/zap"

	"github.com/ellanetworks/nas-decoder/internal/gsm"
	"github.com/ellanetworks/nas-decoder/internal/logger"
)

var (
	ErrNotEstablishmentAccept = errors.New("not a PDU Session Establishment Accept")
	ErrNotFound               = errors.New("PDU session not found")
)

// Session is the UE side view of an established PDU session. Addresses are
// kept in text form.
type Session struct {
	PDUSessionID  uint8
	PTI           uint8
	Type          string
	SSCMode       uint8
	UEIP          string
	UEIPv6        string
	DNN           string
	QFIs          []uint8
	FiveQI        uint8
	DNSServers    []string
	PCSCF         []string
	MTU           uint16
	UPFAddress    string
	ULTEID        uint32
	EstablishedAt time.Time
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[uint8]*Session
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[uint8]*Session),
		now:      time.Now,
	}
}

// Establish creates the session described by msg, replacing any session
// with the same PDU session ID. It returns a copy of the stored session.
func (m *Manager) Establish(msg *gsm.Message) (*Session, error) {
	if msg == nil {
		return nil, fmt.Errorf("message is nil")
	}

	if msg.Header.MessageType != gsm.MessageTypeEstablishmentAccept {
		return nil, fmt.Errorf("%w: %s", ErrNotEstablishmentAccept, msg.Header.MessageType)
	}

	s := fromAccept(msg)

	m.mu.Lock()
	s.EstablishedAt = m.now()
	_, replaced := m.sessions[s.PDUSessionID]
	m.sessions[s.PDUSessionID] = s
	out := copySession(s)
	m.mu.Unlock()

	logger.SessionLogger.Info(
		"Established PDU session",
		zap.Uint8("PDU Session ID", s.PDUSessionID),
		zap.String("Type", s.Type),
		zap.String("UE IP", s.UEIP),
		zap.String("DNN", s.DNN),
		zap.Uint16("MTU", s.MTU),
		zap.Uint8s("QFIs", s.QFIs),
		zap.Bool("replaced", replaced),
	)

	return out, nil
}

func fromAccept(msg *gsm.Message) *Session {
	s := &Session{
		PDUSessionID: msg.Header.PDUSessionID,
		PTI:          msg.Header.PTI,
		Type:         msg.SessionType.String(),
		SSCMode:      uint8(msg.SSCMode),
	}

	if msg.PDUAddress != nil {
		if ip, ok := msg.PDUAddress.IPv4(); ok {
			s.UEIP = ip.String()
		}

		if ip, ok := msg.PDUAddress.IPv6LinkLocal(); ok {
			s.UEIPv6 = ip.String()
		}
	}

	if len(msg.DNN) > 0 {
		name, err := msg.DNN.Name()
		if err != nil {
			logger.SessionLogger.Warn("could not decode DNN", zap.Error(err))
			name = msg.DNN.String()
		}

		s.DNN = name
	}

	for _, rule := range msg.QosRules.Rules {
		if rule.QFI != 0 && !slices.Contains(s.QFIs, rule.QFI) {
			s.QFIs = append(s.QFIs, rule.QFI)
		}
	}

	for _, desc := range msg.QosFlowDescriptions {
		if fiveQI, ok := desc.FiveQI(); ok && s.FiveQI == 0 {
			s.FiveQI = fiveQI
		}
	}

	if msg.EPCO != nil {
		for _, dns := range msg.EPCO.DNSServers() {
			s.DNSServers = append(s.DNSServers, dns.String())
		}

		if ip, ok := msg.EPCO.PCSCFv6(); ok {
			s.PCSCF = append(s.PCSCF, ip.String())
		}

		if ip, ok := msg.EPCO.PCSCFv4(); ok {
			s.PCSCF = append(s.PCSCF, ip.String())
		}

		if mtu, ok := msg.EPCO.IPv4LinkMTU(); ok {
			s.MTU = mtu
		}
	}

	return s
}

// SetTunnel records the uplink user plane tunnel of an established session.
func (m *Manager) SetTunnel(id uint8, upfAddress string, ulTEID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	s.UPFAddress = upfAddress
	s.ULTEID = ulTEID

	return nil
}

func (m *Manager) Get(id uint8) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}

	return copySession(s), true
}

func (m *Manager) Release(id uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	delete(m.sessions, id)

	logger.SessionLogger.Info("Released PDU session", zap.Uint8("PDU Session ID", id))

	return nil
}

// List returns copies of all sessions ordered by PDU session ID.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, copySession(s))
	}

	slices.SortFunc(out, func(a, b *Session) int {
		return int(a.PDUSessionID) - int(b.PDUSessionID)
	})

	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

func copySession(s *Session) *Session {
	return deepcopy.Copy(s).(*Session)
}

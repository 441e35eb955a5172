// Package trace records NAS SDUs to pcap files that Wireshark dissects as
// 5GS NAS, and reads them back.
package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

// LinkTypeUpperPDU is the Wireshark exported-PDU link type.
const LinkTypeUpperPDU layers.LinkType = 252

const snapLen = 65535

var ErrNotNASTrace = errors.New("not a 5GS NAS trace")

// exportedPDUHeader is the dissector-name tag ("nas-5gs") followed by the
// end-of-options tag.
var exportedPDUHeader = []byte{
	0x00, 0x0c, 0x00, 0x07,
	'n', 'a', 's', '-', '5', 'g', 's',
	0x00, 0x00, 0x00, 0x00,
}

// Writer appends SDUs to a pcap stream. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	w   *pcapgo.Writer
	now func() time.Time
}

// NewWriter writes the pcap file header to w.
func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(w)

	if err := pw.WriteFileHeader(snapLen, LinkTypeUpperPDU); err != nil {
		return nil, fmt.Errorf("could not write pcap header: %w", err)
	}

	return &Writer{w: pw, now: time.Now}, nil
}

func (w *Writer) WriteSDU(sdu []byte) error {
	data := make([]byte, 0, len(exportedPDUHeader)+len(sdu))
	data = append(data, exportedPDUHeader...)
	data = append(data, sdu...)

	w.mu.Lock()
	defer w.mu.Unlock()

	ci := gopacket.CaptureInfo{
		Timestamp:     w.now(),
		CaptureLength: len(data),
		Length:        len(data),
	}

	if err := w.w.WritePacket(ci, data); err != nil {
		return fmt.Errorf("could not write pcap record: %w", err)
	}

	return nil
}

// Record is one SDU read back from a trace.
type Record struct {
	Timestamp time.Time
	SDU       []byte
}

type Reader struct {
	r *pcapgo.Reader
}

// NewReader reads the pcap file header from r and checks the link type.
func NewReader(r io.Reader) (*Reader, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not read pcap header: %w", err)
	}

	if pr.LinkType() != LinkTypeUpperPDU {
		return nil, fmt.Errorf("%w: link type %d", ErrNotNASTrace, pr.LinkType())
	}

	return &Reader{r: pr}, nil
}

// Next returns the next record, or io.EOF at the end of the trace.
func (r *Reader) Next() (Record, error) {
	data, ci, err := r.r.ReadPacketData()
	if err != nil {
		return Record{}, err
	}

	if !bytes.HasPrefix(data, exportedPDUHeader) {
		return Record{}, fmt.Errorf("%w: record is not tagged nas-5gs", ErrNotNASTrace)
	}

	return Record{
		Timestamp: ci.Timestamp,
		SDU:       data[len(exportedPDUHeader):],
	}, nil
}

// ReadAll returns every record left in the trace.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return records, err
		}

		records = append(records, rec)
	}
}

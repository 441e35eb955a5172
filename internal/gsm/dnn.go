package gsm

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ellanetworks/nas-decoder/internal/cursor"
)

// DNN holds the value octets of a DNN IE verbatim: an APN made of
// length-prefixed labels.
type DNN []byte

// Name returns the dot-joined labels. When the label-length prefixes do not
// tile the value exactly, octets below 0x20 are taken as label separators
// instead, which recovers names written with a miscounted first prefix.
func (d DNN) Name() (string, error) {
	if len(d) == 0 {
		return "", nil
	}

	labels, ok := d.labels()
	if !ok {
		labels = d.looseLabels()
	}

	name := strings.Join(labels, ".")
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("dnn: %w", ErrInvalidUTF8)
	}

	return name, nil
}

func (d DNN) String() string {
	name, err := d.Name()
	if err != nil {
		return fmt.Sprintf("%x", []byte(d))
	}

	return name
}

func (d DNN) labels() ([]string, bool) {
	c := cursor.New(d)

	var labels []string

	for !c.Empty() {
		n, err := c.ReadUint8()
		if err != nil || n == 0 {
			return nil, false
		}

		label, err := c.ReadSlice(int(n))
		if err != nil || bytes.ContainsFunc(label, isSeparator) {
			return nil, false
		}

		labels = append(labels, string(label))
	}

	return labels, true
}

func (d DNN) looseLabels() []string {
	var labels []string

	for _, f := range bytes.FieldsFunc(d, isSeparator) {
		labels = append(labels, string(f))
	}

	return labels
}

func isSeparator(r rune) bool {
	return r < 0x20
}

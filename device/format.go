package device

import (
	"fmt"
	"strings"
)

// PacketHeader returns the column header matching Packet.String,
// followed by a rule line.
func PacketHeader() string {
	h := fmt.Sprintf("| %16s | %16s | %16s | %16s | %16s | %16s | %16s | %6s | %6s | %6s |",
		"Flags", "startTime", "endTime", "startFrequency", "stepFrequency",
		"spanFrequency", "rbwFrequency", "num", "total", "stride")
	return h + "\n" + strings.Repeat("=", len(h))
}

// String formats the packet header fields as one table row.
func (p *Packet) String() string {
	return fmt.Sprintf("| %16x | %16.5f | %16.5f | %16.5f | %16.5f | %16.5f | %16.5f | %6d | %6d | %6d |",
		p.Flags, p.StartTime, p.EndTime, p.StartFrequency, p.StepFrequency,
		p.SpanFrequency, p.RBWFrequency, p.Num, p.Total, p.Stride)
}

// Row returns sample i as a slice of Size values.
func (p *Packet) Row(i int) []float32 {
	off := int64(i) * p.Stride
	if p.Stride == 0 {
		off = int64(i) * p.Size
	}
	if i < 0 || off+p.Size > int64(len(p.Samples)) {
		return nil
	}
	return p.Samples[off : off+p.Size]
}

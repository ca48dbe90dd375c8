package device

import (
	"context"
	"runtime"

	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/errors"
	"github.com/sergev/spectran/result"
	"github.com/sergev/spectran/retry"
	"go.uber.org/zap"
)

// Packet is a block of samples copied out of the driver's ring buffer.
type Packet struct {
	StreamID       uint64
	Flags          uint64
	StartTime      float64
	EndTime        float64
	StartFrequency float64
	StepFrequency  float64
	SpanFrequency  float64
	RBWFrequency   float64
	Num            int64
	Total          int64
	Size           int64
	Stride         int64
	Interleave     int64

	// Samples holds Num*Size values.
	Samples []float32
}

func copyPacket(p *driver.Packet) *Packet {
	return &Packet{
		StreamID:       p.StreamID,
		Flags:          p.Flags,
		StartTime:      p.StartTime,
		EndTime:        p.EndTime,
		StartFrequency: p.StartFrequency,
		StepFrequency:  p.StepFrequency,
		SpanFrequency:  p.SpanFrequency,
		RBWFrequency:   p.RBWFrequency,
		Num:            p.Num,
		Total:          p.Total,
		Size:           p.Size,
		Stride:         p.Stride,
		Interleave:     p.Interleave,
		Samples:        append([]float32(nil), p.Samples()...),
	}
}

// View is a packet still owned by the driver. Its samples are
// valid only until the packet is consumed.
type View struct {
	Channel int32
	Raw     driver.Packet
}

// Samples returns the driver's samples without copying them.
func (v *View) Samples() []float32 {
	return v.Raw.Samples()
}

// Copy returns a copy that stays valid after the packet is consumed.
func (v *View) Copy() *Packet {
	return copyPacket(&v.Raw)
}

// AvailablePackets returns the number of packets queued on a channel.
func (s *Session) AvailablePackets(channel int32) (int32, error) {
	if !s.isOpen {
		return 0, s.notOpen("available packets")
	}
	var num int32
	if code := s.drv.AvailPackets(&s.dev, channel, &num); code != result.OK {
		return 0, errors.New(errors.KindPacketQuery, "available packets").
			Channel(int(channel)).Code(code).Build()
	}
	return num, nil
}

// Peek waits for the oldest packet of a channel and returns it
// without consuming it. While the channel answers EMPTY the packet
// policy decides how long to wait.
func (s *Session) Peek(ctx context.Context, channel int32) (*View, error) {
	if !s.isOpen {
		return nil, s.notOpen("get packet")
	}
	v := &View{Channel: channel, Raw: *driver.NewPacket()}
	for attempt := 1; ; attempt++ {
		code := s.drv.GetPacket(&s.dev, channel, 0, &v.Raw)
		switch result.Classify(code).Band {
		case result.BandOK:
			return v, nil
		case result.BandEmpty:
		default:
			return nil, errors.New(errors.KindPacketFetch, "get packet").
				Channel(int(channel)).Code(code).Build()
		}

		if err := s.opts.Packet.Wait(ctx, attempt); err != nil {
			b := errors.New(errors.KindPacketFetch, "get packet").Channel(int(channel))
			if err == retry.ErrExhausted {
				b.Code(result.Empty).Detail("no packet after %d attempts", attempt)
			} else {
				b.Cause(err)
			}
			return nil, b.Build()
		}
	}
}

// Consume releases the n oldest packets of a channel.
func (s *Session) Consume(channel int32, n int32) error {
	if !s.isOpen {
		return s.notOpen("consume packets")
	}
	if code := s.drv.ConsumePackets(&s.dev, channel, n); code != result.OK {
		return errors.New(errors.KindPacketConsume, "consume packets").
			Channel(int(channel)).Code(code).Value(n).Build()
	}
	return nil
}

// GetPacket waits for the oldest packet of a channel, copies it
// and consumes it.
func (s *Session) GetPacket(ctx context.Context, channel int32) (*Packet, error) {
	v, err := s.Peek(ctx, channel)
	if err != nil {
		return nil, err
	}
	p := v.Copy()
	if err := s.Consume(channel, 1); err != nil {
		return nil, err
	}
	return p, nil
}

// Flush consumes every packet queued on a channel and returns how
// many there were.
func (s *Session) Flush(channel int32) (int32, error) {
	n, err := s.AvailablePackets(channel)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.Consume(channel, n); err != nil {
		return 0, err
	}
	s.log.Debug("channel flushed", zap.Int32("channel", channel), zap.Int32("packets", n))
	return n, nil
}

// SendPacket queues a packet for transmission on a channel.
// The device must be started in a transmitter mode.
func (s *Session) SendPacket(channel int32, p *Packet) error {
	if !s.isOpen {
		return s.notOpen("send packet")
	}
	raw := driver.NewPacket()
	raw.StreamID = p.StreamID
	raw.Flags = p.Flags
	raw.StartTime = p.StartTime
	raw.EndTime = p.EndTime
	raw.StartFrequency = p.StartFrequency
	raw.StepFrequency = p.StepFrequency
	raw.SpanFrequency = p.SpanFrequency
	raw.RBWFrequency = p.RBWFrequency
	raw.Num = p.Num
	raw.Total = p.Total
	raw.Size = p.Size
	raw.Stride = p.Stride
	raw.Interleave = p.Interleave
	if int64(len(p.Samples)) < p.Num*p.Size {
		return errors.New(errors.KindPacketSend, "send packet").Channel(int(channel)).
			Detail("%d samples, header needs %d", len(p.Samples), p.Num*p.Size).Build()
	}

	var pin runtime.Pinner
	defer pin.Unpin()
	if len(p.Samples) > 0 {
		pin.Pin(&p.Samples[0])
		raw.FP32 = &p.Samples[0]
	}
	if code := s.drv.SendPacket(&s.dev, channel, raw); code != result.OK {
		return errors.New(errors.KindPacketSend, "send packet").
			Channel(int(channel)).Code(code).Build()
	}
	return nil
}

// MasterStreamTime returns the device's current stream time in seconds.
func (s *Session) MasterStreamTime() (float64, error) {
	if !s.isOpen {
		return 0, s.notOpen("master stream time")
	}
	var t float64
	if code := s.drv.GetMasterStreamTime(&s.dev, &t); code != result.OK {
		return 0, errors.FromCode(errors.KindStateQuery, "master stream time", code)
	}
	return t, nil
}

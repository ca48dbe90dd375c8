package sim

import (
	"math"

	"github.com/sergev/spectran/driver"
)

// IQGenerator returns a Generator of interleaved IQ packets holding a
// single tone, num samples each, at the given sample rate.
func IQGenerator(rate float64, num int) Generator {
	return func(channel int32, seq uint64) (driver.Packet, []float32) {
		samples := make([]float32, 2*num)
		start := float64(seq) * float64(num)
		for i := 0; i < num; i++ {
			phase := 2 * math.Pi * (start + float64(i)) / 16
			samples[2*i] = float32(math.Cos(phase))
			samples[2*i+1] = float32(math.Sin(phase))
		}
		p := driver.Packet{
			StreamID:       uint64(channel),
			StartTime:      start / rate,
			EndTime:        (start + float64(num)) / rate,
			StartFrequency: 2.44e9 - rate/2,
			StepFrequency:  rate,
			SpanFrequency:  rate,
			RBWFrequency:   rate / float64(num),
			Num:            int64(num),
			Total:          int64(num),
			Size:           2,
			Stride:         2,
			Interleave:     1,
		}
		return p, samples
	}
}

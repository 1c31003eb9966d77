package obj

import (
	"math"

	"github.com/binzume/mmobj/geom"
)

// DefaultQuantizeDigits is coarser than the 6 digits used for output so that
// attributes differing only by transform noise collapse into one entry.
const DefaultQuantizeDigits = 4

// AttributeKey is a quantized attribute value. Unused components are zero.
type AttributeKey [3]int64

// Quantizer builds dedup keys. It never changes emitted values.
type Quantizer struct {
	Digits int
}

func NewQuantizer(digits int) Quantizer {
	return Quantizer{Digits: digits}
}

// Quantize rounds x to q.Digits decimal places, half to even.
func (q Quantizer) Quantize(x float32) int64 {
	return int64(math.RoundToEven(float64(x) * math.Pow10(q.Digits)))
}

func (q Quantizer) Key2(v *geom.Vector2) AttributeKey {
	return AttributeKey{q.Quantize(v.X), q.Quantize(v.Y), 0}
}

func (q Quantizer) Key3(v *geom.Vector3) AttributeKey {
	return AttributeKey{q.Quantize(v.X), q.Quantize(v.Y), q.Quantize(v.Z)}
}

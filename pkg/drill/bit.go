package drill

import (
	"github.com/chazu/gimlet/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Bit defaults.
const (
	DefaultBitWidth  = 0.05
	DefaultBitLength = 0.1
)

// Bit is the cutting part of a drill. Base and Tip are owned by the host,
// which moves them every step; the bit points along Base's forward axis.
type Bit struct {
	Width  float64
	Length float64
	Base   *geom.Pose
	Tip    *geom.Pose
}

// NewBit returns a bit at the origin pointing along +Z.
func NewBit(width, length float64) *Bit {
	b := &Bit{Width: width, Length: length, Base: &geom.Pose{}, Tip: &geom.Pose{}}
	b.Place(geom.NewPose(v3.Vec{}))
	return b
}

// Place moves the bit so its base sits at base and its tip lies Length
// further along the base's forward axis.
func (b *Bit) Place(base geom.Pose) {
	*b.Base = base
	*b.Tip = geom.Pose{
		Position: base.TransformPoint(v3.Vec{Z: b.Length}),
		Rotation: base.Rotation,
	}
}

// Forward is the direction the bit points.
func (b *Bit) Forward() v3.Vec {
	return geom.Unit(b.Base.Forward())
}

// TipPosition returns the world position of the tip.
func (b *Bit) TipPosition() v3.Vec {
	return b.Tip.Position
}

package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a rigid transform: a rotation followed by a translation.
// The zero Pose is the identity.
type Pose struct {
	Position v3.Vec
	Rotation mgl64.Quat
}

// NewPose returns an unrotated pose at pos.
func NewPose(pos v3.Vec) Pose {
	return Pose{Position: pos, Rotation: mgl64.QuatIdent()}
}

// PoseFromEuler builds a pose from Euler angles in degrees, applied
// X first, then Y, then Z (matching kernel.Rotate).
func PoseFromEuler(pos, degrees v3.Vec) Pose {
	qx := mgl64.QuatRotate(mgl64.DegToRad(degrees.X), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(mgl64.DegToRad(degrees.Y), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(mgl64.DegToRad(degrees.Z), mgl64.Vec3{0, 0, 1})
	return Pose{Position: pos, Rotation: qz.Mul(qy).Mul(qx).Normalize()}
}

// LookRotation returns the rotation whose local +Z maps to forward and whose
// local +Y lies in the plane of forward and up. When up is parallel to
// forward another reference axis is picked.
func LookRotation(forward, up v3.Vec) mgl64.Quat {
	z := Unit(forward)
	if IsZero(z) {
		return mgl64.QuatIdent()
	}
	x := Unit(up.Cross(z))
	if IsZero(x) {
		alt := AxisY
		if math.Abs(z.Dot(AxisY)) > 0.9 {
			alt = AxisZ
		}
		x = Unit(alt.Cross(z))
	}
	y := z.Cross(x)
	m := mgl64.Mat4FromCols(
		mgl64.Vec4{x.X, x.Y, x.Z, 0},
		mgl64.Vec4{y.X, y.Y, y.Z, 0},
		mgl64.Vec4{z.X, z.Y, z.Z, 0},
		mgl64.Vec4{0, 0, 0, 1},
	)
	return mgl64.Mat4ToQuat(m).Normalize()
}

// PoseLookAt places a pose at pos looking along forward.
func PoseLookAt(pos, forward, up v3.Vec) Pose {
	return Pose{Position: pos, Rotation: LookRotation(forward, up)}
}

func (p Pose) rotation() mgl64.Quat {
	if p.Rotation.W == 0 && p.Rotation.V == (mgl64.Vec3{}) {
		return mgl64.QuatIdent()
	}
	return p.Rotation
}

// TransformPoint maps a point from local to world space.
func (p Pose) TransformPoint(local v3.Vec) v3.Vec {
	return p.TransformDirection(local).Add(p.Position)
}

// InverseTransformPoint maps a world point into local space.
func (p Pose) InverseTransformPoint(world v3.Vec) v3.Vec {
	return p.InverseTransformDirection(world.Sub(p.Position))
}

// TransformDirection rotates a local direction into world space.
func (p Pose) TransformDirection(local v3.Vec) v3.Vec {
	return fromMgl(p.rotation().Rotate(toMgl(local)))
}

// InverseTransformDirection rotates a world direction into local space.
func (p Pose) InverseTransformDirection(world v3.Vec) v3.Vec {
	return fromMgl(p.rotation().Conjugate().Rotate(toMgl(world)))
}

// Forward is the pose's local +Z axis in world space.
func (p Pose) Forward() v3.Vec { return p.TransformDirection(AxisZ) }

// Up is the pose's local +Y axis in world space.
func (p Pose) Up() v3.Vec { return p.TransformDirection(AxisY) }

// Down is the pose's local -Y axis in world space.
func (p Pose) Down() v3.Vec { return p.Up().MulScalar(-1) }

// Right is the pose's local +X axis in world space.
func (p Pose) Right() v3.Vec { return p.TransformDirection(AxisX) }

// Translate returns the pose moved by d in world space.
func (p Pose) Translate(d v3.Vec) Pose {
	p.Position = p.Position.Add(d)
	return p
}

// Roll returns the pose rotated by degrees about its own forward axis.
func (p Pose) Roll(degrees float64) Pose {
	q := mgl64.QuatRotate(mgl64.DegToRad(degrees), toMgl(p.Forward()))
	p.Rotation = q.Mul(p.rotation()).Normalize()
	return p
}

func toMgl(v v3.Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) v3.Vec {
	return v3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// Package geom holds the small amount of 3D math the tracking sessions
// share: axis deviation, plane projection, signed angles and rigid poses.
//
// Vectors are sdfx v3.Vec values so that solids built by the kernel and
// points tracked by the sessions live in the same type. Orientation is
// an mgl64 quaternion.
package geom

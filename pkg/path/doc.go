// Package path scores a tracked tool tip against a reference curve.
//
// A Reference is a Catmull-Rom spline through authored knots, placed in the
// world by a pose and parameterized by normalized arc length. A Session
// follows one attached tip along a Reference: each Tick finds the nearest
// point on the curve, builds the local frame there (tangent, binormal,
// normal) and checks the tip's offsets and orientation against the
// configured bounds. Progress only moves forward unless a deviation resets
// it; completion latches the first time progress reaches 1.
//
// In ModeCut the checks only run while the tip is below the curve, which
// models a blade that must be pressed into the material.
package path

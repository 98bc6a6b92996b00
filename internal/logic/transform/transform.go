package transform

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mkrigman/scnav/internal/config"
	"github.com/mkrigman/scnav/internal/debug"
	"github.com/mkrigman/scnav/internal/hw/spacectl"
	"github.com/mkrigman/scnav/internal/viewport"
)

// Apply converts one device sample into an incremental camera move on
// view, using the given motion settings.
//
// Translation: the inverted, sensitivity-scaled tx/ty/tz form a vector in
// view (camera) space — right, up, forward — which is rotated into world
// space by the current view rotation and added to the orbit pivot. Moving
// the pivot in world space is what pans/dollies the camera.
//
// Rotation (when enabled): rx/ry/rz scaled by the rotate sensitivity are
// pitch/yaw/roll in radians. The resulting intrinsic XYZ Euler quaternion
// is right-multiplied onto the view rotation, so the delta acts in the
// view's local frame, composed after the current orientation.
func Apply(view *viewport.ViewState, s spacectl.Sample, m config.MotionConfig) {
	sx, sy, sz := 1.0, 1.0, 1.0
	if m.InvertX {
		sx = -1.0
	}
	if m.InvertY {
		sy = -1.0
	}
	if m.InvertZ {
		sz = -1.0
	}

	cam := r3.Vec{
		X: float64(s.TX) * m.MoveSensitivity * sx, // right / left
		Y: float64(s.TY) * m.MoveSensitivity * sy, // up / down
		Z: float64(s.TZ) * m.MoveSensitivity * sz, // forward / backward
	}

	world := Rotate(view.Rotation, cam)
	view.Location = r3.Add(view.Location, world)

	if m.EnableRotation {
		pitch := float64(s.RX) * m.RotateSensitivity // look up / down
		yaw := float64(s.RY) * m.RotateSensitivity   // turn left / right
		roll := float64(s.RZ) * m.RotateSensitivity  // tilt head

		delta := EulerXYZ(pitch, yaw, roll)
		view.Rotation = quat.Mul(view.Rotation, delta)
	}

	debug.Trace("applied sample t=(%d,%d,%d) r=(%d,%d,%d)", s.TX, s.TY, s.TZ, s.RX, s.RY, s.RZ)
}

// Rotate applies the unit quaternion q as a rotation operator to v:
// q v q*, the standard quaternion-vector rotation (not a raw multiply).
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// EulerXYZ builds the unit quaternion for an intrinsic XYZ Euler
// rotation: pitch about X, then yaw about the rotated Y, then roll about
// the rotated Z. Angles are radians.
func EulerXYZ(pitch, yaw, roll float64) quat.Number {
	qx := quat.Number{Real: math.Cos(pitch / 2), Imag: math.Sin(pitch / 2)}
	qy := quat.Number{Real: math.Cos(yaw / 2), Jmag: math.Sin(yaw / 2)}
	qz := quat.Number{Real: math.Cos(roll / 2), Kmag: math.Sin(roll / 2)}
	return quat.Mul(qx, quat.Mul(qy, qz))
}

package rig

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the zero rotation.
var Identity = quat.Number{Real: 1}

// RotationOrder names the axis order in which an Euler triple is composed.
type RotationOrder string

const (
	OrderXYZ RotationOrder = "XYZ"
	OrderXZY RotationOrder = "XZY"
	OrderYXZ RotationOrder = "YXZ"
	OrderYZX RotationOrder = "YZX"
	OrderZXY RotationOrder = "ZXY"
	OrderZYX RotationOrder = "ZYX"
)

// Valid reports whether o is one of the six Tait-Bryan orders.
func (o RotationOrder) Valid() bool {
	switch o {
	case OrderXYZ, OrderXZY, OrderYXZ, OrderYZX, OrderZXY, OrderZYX:
		return true
	}
	return false
}

// Euler is a rotation in radians about X, Y and Z, composed in Order.
// An empty Order means XYZ.
type Euler struct {
	X     float64       `json:"x"`
	Y     float64       `json:"y"`
	Z     float64       `json:"z"`
	Order RotationOrder `json:"rotationOrder,omitempty"`
}

// Scale multiplies every angle by f and keeps the order.
func (e Euler) Scale(f float64) Euler {
	return Euler{X: e.X * f, Y: e.Y * f, Z: e.Z * f, Order: e.Order}
}

func (e Euler) angle(axis rune) float64 {
	switch axis {
	case 'X':
		return e.X
	case 'Y':
		return e.Y
	}
	return e.Z
}

// Quaternion converts e to a unit quaternion. The result for order ABC
// is qA*qB*qC, i.e. intrinsic rotations applied A first.
func (e Euler) Quaternion() quat.Number {
	order := e.Order
	if !order.Valid() {
		order = OrderXYZ
	}
	q := Identity
	for _, axis := range order {
		q = quat.Mul(q, axisAngle(axis, e.angle(axis)))
	}
	return q
}

func axisAngle(axis rune, angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)
	switch axis {
	case 'X':
		return quat.Number{Real: c, Imag: s}
	case 'Y':
		return quat.Number{Real: c, Jmag: s}
	}
	return quat.Number{Real: c, Kmag: s}
}

// Normalize scales q to unit length. A degenerate q becomes Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < 1e-12 {
		return Identity
	}
	return quat.Scale(1/n, q)
}

func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Slerp interpolates from a toward b along the shorter arc.
// t is clamped to [0, 1]; t == 1 returns b exactly.
func Slerp(a, b quat.Number, t float64) quat.Number {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}

	cos := dot(a, b)
	if cos < 0 {
		b = quat.Scale(-1, b)
		cos = -cos
	}

	// Nearly parallel: fall back to a normalized lerp.
	if cos > 0.9995 {
		return Normalize(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}

	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return quat.Add(quat.Scale(wa, a), quat.Scale(wb, b))
}

// Angle returns the rotation angle in radians that takes a onto b.
func Angle(a, b quat.Number) float64 {
	d := math.Abs(dot(Normalize(a), Normalize(b)))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// LerpVec moves a toward b by fraction t.
func LerpVec(a, b r3.Vec, t float64) r3.Vec {
	if t >= 1 {
		return b
	}
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

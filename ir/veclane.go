package ir

// VecLane identifies the lane shape a vector instruction interprets its
// 128-bit operands as. It is carried as an immediate on the instruction,
// not as part of the operand Values' Type, since this IR has a single
// opaque vector Type (see type.go).
type VecLane byte

const (
	VecLaneInvalid VecLane = iota
	VecLaneI8x16
	VecLaneI16x8
	VecLaneI32x4
	VecLaneI64x2
	VecLaneF32x4
	VecLaneF64x2
)

// String implements fmt.Stringer.
func (v VecLane) String() string {
	switch v {
	case VecLaneI8x16:
		return "i8x16"
	case VecLaneI16x8:
		return "i16x8"
	case VecLaneI32x4:
		return "i32x4"
	case VecLaneI64x2:
		return "i64x2"
	case VecLaneF32x4:
		return "f32x4"
	case VecLaneF64x2:
		return "f64x2"
	default:
		return "invalid_lane"
	}
}

// Lanes returns the number of lanes for this shape.
func (v VecLane) Lanes() byte {
	switch v {
	case VecLaneI8x16:
		return 16
	case VecLaneI16x8:
		return 8
	case VecLaneI32x4, VecLaneF32x4:
		return 4
	case VecLaneI64x2, VecLaneF64x2:
		return 2
	default:
		return 0
	}
}

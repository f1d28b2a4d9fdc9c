package runtime

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// ElemKind is the element type of a typed array.
type ElemKind int

const (
	ElemInt8 ElemKind = iota
	ElemUint8
	ElemUint8Clamped
	ElemInt16
	ElemUint16
	ElemInt32
	ElemUint32
	ElemFloat32
	ElemFloat64
	ElemBigInt64
	ElemBigUint64
)

// Size returns the element width in bytes.
func (k ElemKind) Size() int {
	switch k {
	case ElemInt8, ElemUint8, ElemUint8Clamped:
		return 1
	case ElemInt16, ElemUint16:
		return 2
	case ElemInt32, ElemUint32, ElemFloat32:
		return 4
	default:
		return 8
	}
}

// IsBig reports whether elements are BigInt-valued.
func (k ElemKind) IsBig() bool {
	return k == ElemBigInt64 || k == ElemBigUint64
}

func (k ElemKind) String() string {
	switch k {
	case ElemInt8:
		return "Int8Array"
	case ElemUint8:
		return "Uint8Array"
	case ElemUint8Clamped:
		return "Uint8ClampedArray"
	case ElemInt16:
		return "Int16Array"
	case ElemUint16:
		return "Uint16Array"
	case ElemInt32:
		return "Int32Array"
	case ElemUint32:
		return "Uint32Array"
	case ElemFloat32:
		return "Float32Array"
	case ElemFloat64:
		return "Float64Array"
	case ElemBigInt64:
		return "BigInt64Array"
	default:
		return "BigUint64Array"
	}
}

// ArrayBufferValue is a shared byte buffer. Detach poisons every view.
type ArrayBufferValue struct {
	Data     []byte
	Detached bool
}

// NewArrayBuffer allocates a zeroed buffer Value.
func NewArrayBuffer(n int) *Value {
	return &Value{Kind: KindArrayBuffer, Buf: &ArrayBufferValue{Data: make([]byte, n)}}
}

// TypedArrayValue is a typed view over an ArrayBufferValue.
type TypedArrayValue struct {
	Elem   ElemKind
	Buf    *ArrayBufferValue
	Offset int // bytes
	Len    int // elements
}

// NewTypedArray allocates a typed array over a fresh buffer.
func NewTypedArray(kind ElemKind, length int) *Value {
	buf := &ArrayBufferValue{Data: make([]byte, length*kind.Size())}
	return &Value{Kind: KindTypedArray, TA: &TypedArrayValue{Elem: kind, Buf: buf, Len: length}}
}

// NewTypedArrayView builds a typed view over an existing buffer.
func NewTypedArrayView(kind ElemKind, buf *ArrayBufferValue, offset, length int) (*Value, error) {
	if buf.Detached {
		return nil, fmt.Errorf("TypeError: cannot view a detached ArrayBuffer")
	}
	if offset%kind.Size() != 0 {
		return nil, fmt.Errorf("RangeError: start offset of %s must be a multiple of %d", kind, kind.Size())
	}
	if length < 0 {
		length = (len(buf.Data) - offset) / kind.Size()
	}
	if offset+length*kind.Size() > len(buf.Data) {
		return nil, fmt.Errorf("RangeError: invalid typed array length")
	}
	return &Value{Kind: KindTypedArray, TA: &TypedArrayValue{Elem: kind, Buf: buf, Offset: offset, Len: length}}, nil
}

func (ta *TypedArrayValue) check(i int) error {
	if ta.Buf.Detached {
		return fmt.Errorf("TypeError: cannot access a detached ArrayBuffer")
	}
	if i < 0 || i >= ta.Len {
		return fmt.Errorf("RangeError: index %d out of bounds for %s of length %d", i, ta.Elem, ta.Len)
	}
	return nil
}

// Get reads element i as a Value.
func (ta *TypedArrayValue) Get(i int) (*Value, error) {
	if err := ta.check(i); err != nil {
		return nil, err
	}
	b := ta.Buf.Data[ta.Offset+i*ta.Elem.Size():]
	switch ta.Elem {
	case ElemInt8:
		return NewInt(int64(int8(b[0]))), nil
	case ElemUint8, ElemUint8Clamped:
		return NewInt(int64(b[0])), nil
	case ElemInt16:
		return NewInt(int64(int16(binary.LittleEndian.Uint16(b)))), nil
	case ElemUint16:
		return NewInt(int64(binary.LittleEndian.Uint16(b))), nil
	case ElemInt32:
		return NewInt(int64(int32(binary.LittleEndian.Uint32(b)))), nil
	case ElemUint32:
		return NewInt(int64(binary.LittleEndian.Uint32(b))), nil
	case ElemFloat32:
		f := math.Float32frombits(binary.LittleEndian.Uint32(b))
		return NewFloatOrInt(float64(f)), nil
	case ElemFloat64:
		return NewFloatOrInt(math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
	case ElemBigInt64:
		return NewBigInt(big.NewInt(int64(binary.LittleEndian.Uint64(b)))), nil
	default: // ElemBigUint64
		return NewBigInt(new(big.Int).SetUint64(binary.LittleEndian.Uint64(b))), nil
	}
}

// Set writes v into element i, applying the element conversion. BigInt
// element kinds require BigInt values and vice versa.
func (ta *TypedArrayValue) Set(i int, v *Value) error {
	if err := ta.check(i); err != nil {
		return err
	}
	b := ta.Buf.Data[ta.Offset+i*ta.Elem.Size():]
	if ta.Elem.IsBig() {
		if v.Kind != KindBigInt {
			return fmt.Errorf("TypeError: cannot convert %s to a BigInt", v.TypeOf())
		}
		binary.LittleEndian.PutUint64(b, v.Big.Uint64())
		return nil
	}
	if v.Kind == KindBigInt {
		return fmt.Errorf("TypeError: cannot convert a BigInt to a number")
	}
	f := v.ToFloat()
	switch ta.Elem {
	case ElemInt8, ElemUint8, ElemInt16, ElemUint16, ElemInt32, ElemUint32:
		n := toInt64Wrap(f)
		switch ta.Elem {
		case ElemInt8, ElemUint8:
			b[0] = byte(n)
		case ElemInt16, ElemUint16:
			binary.LittleEndian.PutUint16(b, uint16(n))
		default:
			binary.LittleEndian.PutUint32(b, uint32(n))
		}
	case ElemUint8Clamped:
		b[0] = clampByte(f)
	case ElemFloat32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f)))
	case ElemFloat64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(f))
	}
	return nil
}

func toInt64Wrap(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Trunc(f))
}

func clampByte(f float64) byte {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return byte(math.Round(f))
}

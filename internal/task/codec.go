package task

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedRecord is returned when a payload cannot be decoded.
var ErrMalformedRecord = errors.New("malformed record payload")

// EncodeRecord serializes r. The layout is a uvarint parameter count followed
// by, for each parameter, a length-prefixed name, a kind byte and the kind's
// payload.
func EncodeRecord(r Record) []byte {
	buf := make([]byte, 0, 16*len(r)+binary.MaxVarintLen64)
	buf = binary.AppendUvarint(buf, uint64(len(r)))
	for _, p := range r {
		buf = binary.AppendUvarint(buf, uint64(len(p.Name)))
		buf = append(buf, p.Name...)
		buf = append(buf, byte(p.Value.kind))
		switch p.Value.kind {
		case KindString:
			buf = binary.AppendUvarint(buf, uint64(len(p.Value.str)))
			buf = append(buf, p.Value.str...)
		case KindInt:
			buf = binary.AppendVarint(buf, p.Value.num)
		case KindFloat:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.Value.flt))
		case KindBool:
			buf = append(buf, byte(p.Value.num))
		}
	}
	return buf
}

// DecodeRecord parses a payload produced by EncodeRecord. Trailing bytes are
// an error.
func DecodeRecord(data []byte) (Record, error) {
	d := decoder{data: data}
	n := d.uvarint()
	if d.err != nil {
		return nil, d.err
	}
	if n > uint64(len(data)) {
		return nil, fmt.Errorf("%w: parameter count %d exceeds payload", ErrMalformedRecord, n)
	}
	r := make(Record, 0, n)
	for i := uint64(0); i < n; i++ {
		name := d.bytes()
		kind := Kind(d.byte())
		var v Value
		switch kind {
		case KindAbsent:
		case KindString:
			v = String(string(d.bytes()))
		case KindInt:
			v = Int(d.varint())
		case KindFloat:
			v = Float(math.Float64frombits(d.uint64()))
		case KindBool:
			b := d.byte()
			if d.err == nil && b > 1 {
				d.fail("bool payload %d", b)
			}
			v = Bool(b == 1)
		default:
			d.fail("unknown kind %d", kind)
		}
		if d.err != nil {
			return nil, d.err
		}
		r = append(r, Param{Name: string(name), Value: v})
	}
	if d.off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedRecord, len(data)-d.off)
	}
	return r, nil
}

// decoder reads from data and records the first error; later reads return
// zero values.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s at offset %d", ErrMalformedRecord, fmt.Sprintf(format, args...), d.off)
	}
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.data[d.off:])
	if n <= 0 {
		d.fail("bad uvarint")
		return 0
	}
	d.off += n
	return v
}

func (d *decoder) varint() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.data[d.off:])
	if n <= 0 {
		d.fail("bad varint")
		return 0
	}
	d.off += n
	return v
}

func (d *decoder) byte() byte {
	if d.err != nil {
		return 0
	}
	if d.off >= len(d.data) {
		d.fail("unexpected end")
		return 0
	}
	b := d.data[d.off]
	d.off++
	return b
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	if len(d.data)-d.off < 8 {
		d.fail("unexpected end")
		return 0
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v
}

func (d *decoder) bytes() []byte {
	n := d.uvarint()
	if d.err != nil {
		return nil
	}
	if n > uint64(len(d.data)-d.off) {
		d.fail("length %d exceeds payload", n)
		return nil
	}
	b := d.data[d.off : d.off+int(n)]
	d.off += int(n)
	return b
}

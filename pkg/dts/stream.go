package dts

import (
	"encoding/binary"
	"io"
	gomath "math"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// stream buffers values by width the way the runtime loads them: 32-bit
// values, 16-bit values and bytes go to three separate buffers that are
// written one after another on flush. Check points are written to all
// three buffers so a reader can detect misalignment.
type stream struct {
	buf32  []uint32
	buf16  []uint16
	buf8   []byte
	checks int32
}

func (s *stream) writeInt(v int32)     { s.buf32 = append(s.buf32, uint32(v)) }
func (s *stream) writeUint(v uint32)   { s.buf32 = append(s.buf32, v) }
func (s *stream) writeFloat(v float32) { s.buf32 = append(s.buf32, gomath.Float32bits(v)) }
func (s *stream) writeShort(v int16)   { s.buf16 = append(s.buf16, uint16(v)) }
func (s *stream) writeByte(v byte)     { s.buf8 = append(s.buf8, v) }

func (s *stream) writePoint(p math.Vec3) {
	s.writeFloat(p.X)
	s.writeFloat(p.Y)
	s.writeFloat(p.Z)
}

func (s *stream) writePoint2(p math.Vec2) {
	s.writeFloat(p.X)
	s.writeFloat(p.Y)
}

func (s *stream) writeBox(b Box) {
	s.writePoint(b.Min)
	s.writePoint(b.Max)
}

// writeQuat stores each component as a signed 16-bit fixed point value.
func (s *stream) writeQuat(q math.Quat) {
	s.writeShort(int16(q.X * 32767))
	s.writeShort(int16(q.Y * 32767))
	s.writeShort(int16(q.Z * 32767))
	s.writeShort(int16(q.W * 32767))
}

// writeString stores a zero-terminated string in the byte buffer.
func (s *stream) writeString(b []byte) {
	s.buf8 = append(s.buf8, b...)
	s.buf8 = append(s.buf8, 0)
}

// storeCheck writes the next check point value to all buffers.
func (s *stream) storeCheck() {
	s.writeInt(s.checks)
	s.writeShort(int16(s.checks))
	s.writeByte(byte(s.checks))
	s.checks++
}

// flush pads the 16 and 8-bit buffers to whole dwords and writes the
// header (version, total size and buffer offsets, all in dwords)
// followed by the three buffers.
func (s *stream) flush(w io.Writer, version int32) error {
	if len(s.buf16)&1 != 0 {
		s.buf16 = append(s.buf16, 0)
	}
	for len(s.buf8)&3 != 0 {
		s.buf8 = append(s.buf8, 0)
	}

	offset16 := int32(len(s.buf32))
	offset8 := offset16 + int32(len(s.buf16)/2)
	total := offset8 + int32(len(s.buf8)/4)

	header := [4]int32{version, total, offset16, offset8}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, s.buf32); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, s.buf16); err != nil {
		return err
	}
	_, err := w.Write(s.buf8)
	return err
}

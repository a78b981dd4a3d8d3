package meshing

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	blobMagic   = "PLOD"
	blobVersion = 1
	// magic + version + segments + vertex count + origin
	blobHeaderSize = 4 + 2 + 4 + 4 + 3*8
	// position 3 + normal 3 + uv 2 + elevation 1 + weights 3
	floatsPerVertex = 12
)

// ErrCorruptBlob is returned when a cached blob cannot be decoded.
var ErrCorruptBlob = errors.New("meshing: corrupt mesh blob")

// EncodeMesh serializes the vertex buffers of m. Indices, key and textures are
// not stored; they are derived from the request.
func EncodeMesh(m *Mesh) []byte {
	n := m.VertexCount()
	var buf bytes.Buffer
	buf.Grow(blobHeaderSize + n*floatsPerVertex*4)

	buf.WriteString(blobMagic)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blobVersion))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(m.Segments))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(n))
	_ = binary.Write(&buf, binary.LittleEndian, m.Origin)
	for _, s := range [][]float32{m.Positions, m.Normals, m.UVs, m.Elevation, m.Weights} {
		_ = binary.Write(&buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

// DecodeMesh parses a blob written by EncodeMesh.
func DecodeMesh(blob []byte) (*Mesh, error) {
	if len(blob) < blobHeaderSize || string(blob[:4]) != blobMagic {
		return nil, fmt.Errorf("%w: bad header", ErrCorruptBlob)
	}
	if v := binary.LittleEndian.Uint16(blob[4:6]); v != blobVersion {
		return nil, fmt.Errorf("%w: version %d", ErrCorruptBlob, v)
	}
	segments := int(binary.LittleEndian.Uint32(blob[6:10]))
	n := int(binary.LittleEndian.Uint32(blob[10:14]))
	if n != segments*segments {
		return nil, fmt.Errorf("%w: %d vertices for %d segments", ErrCorruptBlob, n, segments)
	}
	if want := blobHeaderSize + n*floatsPerVertex*4; len(blob) != want {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrCorruptBlob, len(blob), want)
	}

	m := &Mesh{
		Segments:  segments,
		Positions: make([]float32, 3*n),
		Normals:   make([]float32, 3*n),
		UVs:       make([]float32, 2*n),
		Elevation: make([]float32, n),
		Weights:   make([]float32, 3*n),
	}
	r := bytes.NewReader(blob[14:])
	if err := binary.Read(r, binary.LittleEndian, &m.Origin); err != nil {
		return nil, fmt.Errorf("%w: origin: %v", ErrCorruptBlob, err)
	}
	for _, s := range [][]float32{m.Positions, m.Normals, m.UVs, m.Elevation, m.Weights} {
		if err := binary.Read(r, binary.LittleEndian, s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
		}
	}
	return m, nil
}

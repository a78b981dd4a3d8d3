package stream

import (
	"encoding/json"

	"planet-lod/internal/lod"
	"planet-lod/internal/meshing"
	"planet-lod/internal/terrain"
)

// Message types
const (
	MsgTypeAdd    = "add"
	MsgTypeRemove = "remove"
	MsgTypeError  = "error"
)

// ServerMessage is one event sent to a renderer.
type ServerMessage struct {
	Type  string       `json:"type"`
	Key   string       `json:"key,omitempty"`
	Mesh  *MeshPayload `json:"mesh,omitempty"`
	Error string       `json:"error,omitempty"`
}

// ClientMessage carries the renderer's camera.
type ClientMessage struct {
	Camera *[3]float64 `json:"camera"`
}

// MeshPayload is the wire form of a chunk mesh.
type MeshPayload struct {
	Face      string             `json:"face"`
	Depth     int                `json:"depth"`
	Center    [2]float64         `json:"center"`
	Size      float64            `json:"size"`
	Origin    [3]float64         `json:"origin"`
	Segments  int                `json:"segments"`
	Positions []float32          `json:"positions"`
	Normals   []float32          `json:"normals"`
	UVs       []float32          `json:"uvs"`
	Elevation []float32          `json:"elevation"`
	Weights   []float32          `json:"weights"`
	Indices   []uint32           `json:"indices"`
	Textures  terrain.TextureSet `json:"textures"`
}

func newMeshPayload(m *meshing.Mesh) *MeshPayload {
	return &MeshPayload{
		Face:      m.Key.Face.String(),
		Depth:     m.Key.Depth,
		Center:    [2]float64{m.Key.CenterX, m.Key.CenterY},
		Size:      m.Key.Size,
		Origin:    m.Origin,
		Segments:  m.Segments,
		Positions: m.Positions,
		Normals:   m.Normals,
		UVs:       m.UVs,
		Elevation: m.Elevation,
		Weights:   m.Weights,
		Indices:   m.Indices,
		Textures:  m.Textures,
	}
}

// encodeEvent renders one loop event as a websocket frame.
func encodeEvent(ev lod.Event) ([]byte, error) {
	msg := ServerMessage{Type: MsgTypeRemove, Key: ev.Key.String()}
	if ev.Kind == lod.Added {
		msg.Type = MsgTypeAdd
		msg.Mesh = newMeshPayload(ev.Mesh)
	}
	return json.Marshal(&msg)
}

func encodeAdd(m *meshing.Mesh) ([]byte, error) {
	return encodeEvent(lod.Event{Kind: lod.Added, Key: m.Key, Mesh: m})
}

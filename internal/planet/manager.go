package planet

import (
	"log"

	"planet-lod/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

// Manager owns the six faces and decides which of them are updated.
type Manager struct {
	faces      [NumFaces]*Face
	activation string
	rangeLimit float64
	maxHeight  float64
}

// NewManager builds six faces whose roots tile a cube of cfg.Planet.Size.
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		activation: cfg.Faces.Activation,
		rangeLimit: cfg.ActivationRange(),
		maxHeight:  cfg.Terrain.MaxHeight,
	}
	for id := range FaceID(NumFaces) {
		m.faces[id] = newFace(id, cfg.Planet.Size, cfg.PlanetRadius())
	}
	for _, name := range cfg.Faces.Active {
		if id, ok := ParseFace(name); ok {
			m.faces[id].Active = true
		}
	}
	return m
}

// Faces returns all six faces in id order.
func (m *Manager) Faces() []*Face {
	return m.faces[:]
}

// Face returns the face with the given id.
func (m *Manager) Face(id FaceID) *Face {
	return m.faces[id]
}

// Active returns the faces currently being updated.
func (m *Manager) Active() []*Face {
	out := make([]*Face, 0, NumFaces)
	for _, f := range m.faces {
		if f.Active {
			out = append(out, f)
		}
	}
	return out
}

// CameraDriven reports whether activation follows the camera.
func (m *Manager) CameraDriven() bool {
	return m.activation == config.ActivationCamera
}

// UpdateActivation re-evaluates camera-relative activation. A face is active
// when the camera is within range of its bounding sphere; the face the camera
// hovers over is always active. Deactivated faces have their trees collapsed.
// Static activation never changes.
func (m *Manager) UpdateActivation(cam mgl64.Vec3) (activated, deactivated []FaceID) {
	if !m.CameraDriven() {
		return nil, nil
	}

	over := FaceID(-1)
	if cam.Len() > 0 {
		dir := cam.Normalize()
		best := -2.0
		for _, f := range m.faces {
			if d := dir.Dot(f.Normal()); d > best {
				best = d
				over = f.ID
			}
		}
	}

	for _, f := range m.faces {
		center, radius := f.BoundingSphere(m.maxHeight)
		want := f.ID == over || cam.Sub(center).Len()-radius <= m.rangeLimit
		switch {
		case want && !f.Active:
			f.Active = true
			activated = append(activated, f.ID)
		case !want && f.Active:
			f.Active = false
			f.Reset()
			deactivated = append(deactivated, f.ID)
		}
	}
	if len(activated) > 0 || len(deactivated) > 0 {
		log.Printf("planet faces: activated %v, deactivated %v", activated, deactivated)
	}
	return activated, deactivated
}

package puzzle

import (
	"fmt"

	"github.com/chazu/twisty/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/image/math/f64"
)

// Description is the serialized puzzle: the final fragments with their
// rendering attributes, the generators with their derived planes, the
// bandages flag and any policy annotations. It is the only contract with
// rendering and serving components.
type Description struct {
	Name        string            `json:"name"`
	Fragments   []FragmentRecord  `json:"mesh_list"`
	Generators  []GeneratorRecord `json:"generator_mesh_list"`
	Bandages    bool              `json:"bandages"`
	Annotations map[string]any    `json:"annotations,omitempty"`
}

// FragmentRecord is the wire form of a Fragment.
type FragmentRecord struct {
	Mesh          MeshData     `json:"mesh"`
	Color         Color        `json:"color"`
	Alpha         float64      `json:"alpha"`
	Center        Vec3         `json:"center"`
	UVs           [][2]float64 `json:"uv_list"`
	Normals       []Vec3       `json:"normal_list"`
	TextureNumber int          `json:"texture_number"`
	Border        []int        `json:"border_list"`
}

// PlaneRecord is the wire form of a generator plane.
type PlaneRecord struct {
	Center     Vec3 `json:"center"`
	UnitNormal Vec3 `json:"unit_normal"`
}

// GeneratorRecord is the wire form of a Generator.
type GeneratorRecord struct {
	Mesh            MeshData      `json:"mesh"`
	Center          Vec3          `json:"center"`
	Axis            Vec3          `json:"axis"`
	Angle           float64       `json:"angle"`
	Planes          []PlaneRecord `json:"plane_list"`
	PickPoint       *Vec3         `json:"pick_point,omitempty"`
	CaptureTree     *CaptureNode  `json:"capture_tree_root,omitempty"`
	MinCaptureCount int           `json:"min_capture_count,omitempty"`
	MaxCaptureCount int           `json:"max_capture_count,omitempty"`
}

// Describe builds the serialized record for a finished puzzle.
func Describe(name string, frags []*Fragment, gens []*Generator, bandages bool, annotations map[string]any) *Description {
	d := &Description{
		Name:        name,
		Fragments:   make([]FragmentRecord, len(frags)),
		Generators:  make([]GeneratorRecord, len(gens)),
		Bandages:    bandages,
		Annotations: annotations,
	}
	for i, f := range frags {
		d.Fragments[i] = fragmentRecord(f)
	}
	for i, g := range gens {
		d.Generators[i] = generatorRecord(g)
	}
	return d
}

func fragmentRecord(f *Fragment) FragmentRecord {
	r := FragmentRecord{
		Mesh:          NewMeshData(f.Mesh),
		Color:         f.Color,
		Alpha:         f.Alpha,
		Center:        ToVec3(f.Center),
		TextureNumber: f.TextureNumber,
		Border:        f.Border,
	}
	if f.UVs != nil {
		r.UVs = make([][2]float64, len(f.UVs))
		for i, uv := range f.UVs {
			r.UVs[i] = [2]float64(uv)
		}
	}
	if f.Normals != nil {
		r.Normals = make([]Vec3, len(f.Normals))
		for i, n := range f.Normals {
			r.Normals[i] = ToVec3(n)
		}
	}
	return r
}

func generatorRecord(g *Generator) GeneratorRecord {
	r := GeneratorRecord{
		Mesh:            NewMeshData(g.Mesh),
		Center:          ToVec3(g.Center),
		Axis:            ToVec3(g.Axis),
		Angle:           g.Angle,
		CaptureTree:     g.CaptureTree,
		MinCaptureCount: g.MinCaptureCount,
		MaxCaptureCount: g.MaxCaptureCount,
	}
	for _, p := range g.Planes() {
		r.Planes = append(r.Planes, PlaneRecord{Center: ToVec3(p.Center), UnitNormal: ToVec3(p.Normal)})
	}
	if g.PickPoint != nil {
		pp := ToVec3(*g.PickPoint)
		r.PickPoint = &pp
	}
	return r
}

// Fragment rebuilds the fragment.
func (r FragmentRecord) Fragment() (*Fragment, error) {
	m, err := r.Mesh.Mesh()
	if err != nil {
		return nil, err
	}
	f := &Fragment{
		Mesh:          m,
		Color:         r.Color,
		Alpha:         r.Alpha,
		Center:        r.Center.Vec(),
		TextureNumber: r.TextureNumber,
		Border:        r.Border,
	}
	if r.UVs != nil {
		f.UVs = make([]f64.Vec2, len(r.UVs))
		for i, uv := range r.UVs {
			f.UVs[i] = f64.Vec2(uv)
		}
	}
	if r.Normals != nil {
		f.Normals = make([]v3.Vec, len(r.Normals))
		for i, n := range r.Normals {
			f.Normals[i] = n.Vec()
		}
	}
	return f, nil
}

// Generator rebuilds the generator. The plane list is derived from the mesh
// again rather than trusted from the record.
func (r GeneratorRecord) Generator() (*Generator, error) {
	m, err := r.Mesh.Mesh()
	if err != nil {
		return nil, err
	}
	g := NewGenerator(m, r.Center.Vec(), r.Axis.Vec(), r.Angle)
	g.CaptureTree = r.CaptureTree
	g.MinCaptureCount = r.MinCaptureCount
	g.MaxCaptureCount = r.MaxCaptureCount
	if r.PickPoint != nil {
		pp := r.PickPoint.Vec()
		g.PickPoint = &pp
	}
	return g, nil
}

// FragmentList rebuilds every fragment.
func (d *Description) FragmentList() ([]*Fragment, error) {
	out := make([]*Fragment, len(d.Fragments))
	for i, r := range d.Fragments {
		f, err := r.Fragment()
		if err != nil {
			return nil, fmt.Errorf("puzzle: fragment %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// GeneratorList rebuilds every generator.
func (d *Description) GeneratorList() ([]*Generator, error) {
	out := make([]*Generator, len(d.Generators))
	for i, r := range d.Generators {
		g, err := r.Generator()
		if err != nil {
			return nil, fmt.Errorf("puzzle: generator %d: %w", i, err)
		}
		out[i] = g
	}
	return out, nil
}

// Plane converts the record back to a mesh plane.
func (p PlaneRecord) Plane() mesh.Plane {
	return mesh.Plane{Center: p.Center.Vec(), Normal: p.UnitNormal.Vec()}
}

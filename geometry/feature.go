package geometry

// LayerNamer is the optional metadata capability that picks a feature's layer.
type LayerNamer interface {
	LayerName() (string, bool)
}

// LayerMetadata metadata naming a layer
type LayerMetadata struct {
	Name string
}

// LayerName implements LayerNamer; an empty name defers to the caller.
func (m LayerMetadata) LayerName() (string, bool) {
	return m.Name, m.Name != ""
}

// VectorFeature a geometry bound to a face with its properties.
type VectorFeature struct {
	ID         interface{}
	Face       uint8
	Geometry   VectorGeometry
	Properties Properties
	Metadata   interface{}
}

// LayerName resolves the metadata layer name, if any.
func (f *VectorFeature) LayerName() (string, bool) {
	if ln, ok := f.Metadata.(LayerNamer); ok {
		return ln.LayerName()
	}
	return "", false
}

// WithGeometry shallow copy of f carrying g.
func (f *VectorFeature) WithGeometry(g VectorGeometry) *VectorFeature {
	c := *f
	c.Geometry = g
	return &c
}

package tile

import (
	"github.com/paulmach/orb/geojson"

	"github.com/RoninZc/tiler/geometry"
)

// FeatureCollections renders each layer as a GeoJSON collection in tile
// coordinates. Z, m-values and importance are dropped.
func (t *Tile) FeatureCollections() map[string]*geojson.FeatureCollection {
	out := make(map[string]*geojson.FeatureCollection, len(t.Layers))
	for name, l := range t.Layers {
		fc := geojson.NewFeatureCollection()
		for _, f := range l.Features {
			g := geometry.ToOrb(f.Geometry)
			if g == nil {
				continue
			}
			gf := geojson.NewFeature(g)
			gf.ID = f.ID
			for k, v := range f.Properties {
				gf.Properties[k] = v
			}
			fc.Append(gf)
		}
		out[name] = fc
	}
	return out
}

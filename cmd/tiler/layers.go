package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"github.com/RoninZc/tiler/config"
)

// loadLayers reads every configured source. A layer without a name is
// named after its file; sources sharing a name are merged.
func loadLayers(ls []config.Layer) (map[string]*geojson.FeatureCollection, error) {
	out := make(map[string]*geojson.FeatureCollection, len(ls))
	for _, l := range ls {
		fc, err := loadCollection(l.Geojson)
		if err != nil {
			return nil, err
		}
		name := l.Name
		if name == "" {
			base := filepath.Base(l.Geojson)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if prev, ok := out[name]; ok {
			prev.Features = append(prev.Features, fc.Features...)
			continue
		}
		out[name] = fc
		log.Infof("layer %s: %d features from %s", name, len(fc.Features), l.Geojson)
	}
	return out, nil
}

func loadCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read file")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to unmarshal %s", path)
	}
	return fc, nil
}

// collection gathers the geometries of every layer
func collection(layers map[string]*geojson.FeatureCollection) orb.Collection {
	var c orb.Collection
	for _, fc := range layers {
		for _, f := range fc.Features {
			if f.Geometry != nil {
				c = append(c, f.Geometry)
			}
		}
	}
	return c
}

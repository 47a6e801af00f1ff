// Package config loads the tiler TOML configuration.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/tile"
)

// output formats
const (
	FormatFiles  = "files"
	FormatSqlite = "sqlite"
)

// Conf tiler configuration
type Conf struct {
	App        App        `mapstructure:"app"`
	Output     Output     `mapstructure:"output"`
	Task       Task       `mapstructure:"task"`
	BreakPoint BreakPoint `mapstructure:"breakPoint"`
	Tiler      Tiler      `mapstructure:"tiler"`
	Layers     []Layer    `mapstructure:"layers"`
}

type App struct {
	Version string `mapstructure:"version"`
	Title   string `mapstructure:"title"`
}

type Output struct {
	Directory      string `mapstructure:"directory"`
	LogDir         string `mapstructure:"logDir"`
	LogLevel       string `mapstructure:"logLevel"`
	OutputTerminal bool   `mapstructure:"outputTerminal"`
	// Format files or sqlite
	Format string `mapstructure:"format"`
	Sqlite string `mapstructure:"sqlite"`
	// PathTemplate file layout with {face}, {z}, {x}, {y}; empty picks one
	// per projection
	PathTemplate string `mapstructure:"pathTemplate"`
	// Gzip compresses tile payloads before they are stored
	Gzip bool `mapstructure:"gzip"`
}

type Task struct {
	Workers int `mapstructure:"workers"`
	BufSize int `mapstructure:"bufSize"`
}

type BreakPoint struct {
	SaveFilePath string `mapstructure:"saveFilePath"`
}

// Tiler store options as written in the file
type Tiler struct {
	Name         string  `mapstructure:"name"`
	Projection   string  `mapstructure:"projection"`
	MinZoom      int     `mapstructure:"minzoom"`
	MaxZoom      int     `mapstructure:"maxzoom"`
	IndexMaxZoom int     `mapstructure:"indexMaxzoom"`
	Tolerance    float64 `mapstructure:"tolerance"`
	Buffer       float64 `mapstructure:"buffer"`
	Extent       float64 `mapstructure:"extent"`
}

// Layer one named GeoJSON source
type Layer struct {
	Name    string `mapstructure:"name"`
	Geojson string `mapstructure:"geojson"`
}

func setDefaults(v *viper.Viper) {
	d := tile.DefaultOptions()
	v.SetDefault("app.version", "v0.2.0")
	v.SetDefault("app.title", "Vector Tiler")
	v.SetDefault("output.directory", "output")
	v.SetDefault("output.logLevel", "info")
	v.SetDefault("output.outputTerminal", true)
	v.SetDefault("output.format", FormatFiles)
	v.SetDefault("output.sqlite", "tiles.mbtiles")
	v.SetDefault("output.pathTemplate", "")
	v.SetDefault("output.gzip", false)
	v.SetDefault("task.workers", 4)
	v.SetDefault("task.bufSize", 64)
	v.SetDefault("breakPoint.saveFilePath", "breakpoint")
	v.SetDefault("tiler.name", "tiles")
	v.SetDefault("tiler.projection", d.Projection.String())
	v.SetDefault("tiler.minzoom", d.MinZoom)
	v.SetDefault("tiler.maxzoom", d.MaxZoom)
	v.SetDefault("tiler.indexMaxzoom", d.IndexMaxZoom)
	v.SetDefault("tiler.tolerance", d.Tolerance)
	v.SetDefault("tiler.buffer", d.Buffer)
	v.SetDefault("tiler.extent", d.Extent)
}

// Load reads the TOML file at path. Environment variables such as
// TILER_MAXZOOM override file values; a "level" flag in flags overrides
// output.logLevel. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Conf, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "config file(%s) not exist", path)
	}
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if flags != nil {
		if f := flags.Lookup("level"); f != nil {
			if err := v.BindPFlag("output.logLevel", f); err != nil {
				return nil, errors.Wrap(err, "bind level flag")
			}
		}
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file(%s)", v.ConfigFileUsed())
	}

	conf := new(Conf)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the values the store and the task rely on.
func (c *Conf) Validate() error {
	t := c.Tiler
	if _, err := cell.ParseProjection(t.Projection); err != nil {
		return errors.Wrap(err, "tiler.projection")
	}
	if t.MinZoom < 0 || t.MinZoom > t.MaxZoom {
		return errors.Errorf("tiler.minzoom %d must be within 0 and maxzoom %d", t.MinZoom, t.MaxZoom)
	}
	if t.MaxZoom > tile.MaxZoom {
		return errors.Errorf("tiler.maxzoom %d exceeds %d", t.MaxZoom, tile.MaxZoom)
	}
	if t.IndexMaxZoom < 0 {
		return errors.Errorf("tiler.indexMaxzoom %d is negative", t.IndexMaxZoom)
	}
	if len(c.Layers) == 0 {
		return errors.New("no layers configured")
	}
	for i, l := range c.Layers {
		if l.Geojson == "" {
			return errors.Errorf("layers[%d] has no geojson path", i)
		}
	}
	if c.Task.Workers < 1 {
		return errors.Errorf("task.workers %d must be positive", c.Task.Workers)
	}
	if c.Task.BufSize < 0 {
		return errors.Errorf("task.bufSize %d is negative", c.Task.BufSize)
	}
	switch c.Output.Format {
	case FormatFiles, FormatSqlite:
	default:
		return errors.Errorf("unsupported output.format %q", c.Output.Format)
	}
	return nil
}

// TilerOptions maps the tiler section onto store options.
func (c *Conf) TilerOptions(log logrus.FieldLogger) (tile.Options, error) {
	proj, err := cell.ParseProjection(c.Tiler.Projection)
	if err != nil {
		return tile.Options{}, err
	}
	return tile.Options{
		Projection:   proj,
		MinZoom:      c.Tiler.MinZoom,
		MaxZoom:      c.Tiler.MaxZoom,
		IndexMaxZoom: c.Tiler.IndexMaxZoom,
		Tolerance:    c.Tiler.Tolerance,
		Buffer:       c.Tiler.Buffer,
		Extent:       c.Tiler.Extent,
		Logger:       log,
	}, nil
}

// Package config loads the voxelization pipeline settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/voxcsg/pkg/lattice"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Lattice holds the strut lattice settings.
type Lattice struct {
	SphereRadius   float64    `yaml:"sphere_radius"`
	CylinderRadius float64    `yaml:"cylinder_radius"`
	VolumeDiagonal [3]float64 `yaml:"volume_diagonal"`
	CubeLength     float64    `yaml:"cube_length"`
	Twist          float64    `yaml:"twist"` // radians per unit of y
}

// Config is the full pipeline configuration.
type Config struct {
	VoxelLength   float64    `yaml:"voxel_length"`
	SceneDiagonal [3]float64 `yaml:"scene_diagonal"`
	AccelSpheres  int        `yaml:"accel_spheres"`
	Workers       int        `yaml:"workers"` // 0 means GOMAXPROCS
	FitSize       float64    `yaml:"fit_size"`
	Seed          int64      `yaml:"seed"`
	Lattice       Lattice    `yaml:"lattice"`
}

// Default returns the stock settings.
func Default() Config {
	lp := lattice.DefaultParams()
	return Config{
		VoxelLength:   0.1,
		SceneDiagonal: [3]float64{20, 20, 20},
		AccelSpheres:  20,
		FitSize:       30,
		Seed:          1,
		Lattice: Lattice{
			SphereRadius:   lp.SphereRadius,
			CylinderRadius: lp.CylinderRadius,
			VolumeDiagonal: [3]float64{lp.VolumeDiag.X, lp.VolumeDiag.Y, lp.VolumeDiag.Z},
			CubeLength:     lp.CubeLength,
		},
	}
}

// Load reads path and overlays it on Default. Keys absent from the file keep
// their defaults. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects non-positive lengths and counts.
func (c Config) Validate() error {
	if c.VoxelLength <= 0 {
		return fmt.Errorf("%w: voxel_length %g must be positive", ErrInvalid, c.VoxelLength)
	}
	if !positive(c.SceneDiagonal) {
		return fmt.Errorf("%w: scene_diagonal %v must be positive", ErrInvalid, c.SceneDiagonal)
	}
	if c.AccelSpheres <= 0 {
		return fmt.Errorf("%w: accel_spheres %d must be positive", ErrInvalid, c.AccelSpheres)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalid, c.Workers)
	}
	if c.FitSize <= 0 {
		return fmt.Errorf("%w: fit_size %g must be positive", ErrInvalid, c.FitSize)
	}
	l := c.Lattice
	if l.SphereRadius <= 0 || l.CylinderRadius <= 0 || l.CubeLength <= 0 {
		return fmt.Errorf("%w: lattice radii and cube_length must be positive", ErrInvalid)
	}
	if !positive(l.VolumeDiagonal) {
		return fmt.Errorf("%w: lattice.volume_diagonal %v must be positive", ErrInvalid, l.VolumeDiagonal)
	}
	return nil
}

func positive(v [3]float64) bool {
	return v[0] > 0 && v[1] > 0 && v[2] > 0
}

// Diagonal returns the scene diagonal as a vector.
func (c Config) Diagonal() v3.Vec {
	return Vec(c.SceneDiagonal)
}

// LatticeParams converts the lattice settings.
func (c Config) LatticeParams() lattice.Params {
	return lattice.Params{
		SphereRadius:   c.Lattice.SphereRadius,
		CylinderRadius: c.Lattice.CylinderRadius,
		VolumeDiag:     Vec(c.Lattice.VolumeDiagonal),
		CubeLength:     c.Lattice.CubeLength,
	}
}

// Vec converts a YAML triple.
func Vec(a [3]float64) v3.Vec {
	return v3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

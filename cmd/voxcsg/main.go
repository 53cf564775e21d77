// voxcsg - voxel CSG to surface mesh
//
// Builds a solid from a built-in scene, a Lisp scene file, an STL mesh or
// an occupancy grid, voxelizes it, extracts a surface and writes it out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chazu/voxcsg/pkg/config"
	"github.com/chazu/voxcsg/pkg/engine"
	"github.com/chazu/voxcsg/pkg/export"
	"github.com/chazu/voxcsg/pkg/lattice"
	"github.com/chazu/voxcsg/pkg/scene"
	"github.com/chazu/voxcsg/pkg/voxel"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	sceneName  = flag.String("scene", "sample", "sample, intersect, lattice, lattice-mesh, stl, sphere or a .lisp file")
	stlPath    = flag.String("stl", "", "input STL for the stl, sphere and lattice-mesh scenes")
	gridPath   = flag.String("grid", "", "occupancy grid file; skips voxelization")
	gridSize   = flag.Int("grid-size", 0, "edge length of the occupancy grid")
	voxelLen   = flag.Float64("voxel", 0, "voxel edge length (overrides config)")
	mode       = flag.String("mode", "march", "surface extraction: march or cubes")
	twist      = flag.Float64("twist", 0, "twist the surface about y, radians per unit")
	outPath    = flag.String("o", "out.stl", "output file (.stl, .glb, .3mf or .dxf)")
	latticeOut = flag.String("lattice-dxf", "", "also write lattice struts to this DXF file")
	gridOut    = flag.String("grid-out", "", "also write the voxel occupancy grid to this file")
	voxelsOut  = flag.String("voxels-glb", "", "also write the raw voxels as cubes to this .glb file")
	validate   = flag.Bool("validate", false, "run the mesh validators and fail on defects")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "voxcsg - voxel CSG to surface mesh\n\n")
		fmt.Fprintf(os.Stderr, "Usage: voxcsg [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *voxelLen > 0 {
		cfg.VoxelLength = *voxelLen
	}

	s := scene.New(cfg)
	if err := setup(s, cfg); err != nil {
		return err
	}

	if s.Rep() == scene.RepTree {
		if err := s.Voxelise(ctx, cfg.VoxelLength, progressLogger()); err != nil {
			return err
		}
	}
	log.Printf("voxcsg: %d occupied voxels", s.Volume().Count())

	if *gridOut != "" {
		if err := voxel.WriteGridFile(*gridOut, s.Volume()); err != nil {
			return err
		}
		log.Printf("voxcsg: wrote %s", *gridOut)
	}
	if *voxelsOut != "" {
		if err := export.WriteVoxelsGLB(*voxelsOut, s.Volume()); err != nil {
			return err
		}
		log.Printf("voxcsg: wrote %s", *voxelsOut)
	}

	var opts []export.Option
	switch *mode {
	case "march":
		if err := s.Extract(); err != nil {
			return err
		}
	case "cubes":
		if err := s.CubeSurface(); err != nil {
			return err
		}
		opts = append(opts, export.WithFaceted())
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}

	if *twist != 0 {
		if err := s.Deform(lattice.Twist(*twist)); err != nil {
			return err
		}
	}

	if *validate {
		r := s.Mesh().Report()
		log.Printf("voxcsg: validity %v", r)
		if !r.OK() {
			return fmt.Errorf("surface failed validation: %v", r)
		}
	}

	if *latticeOut != "" {
		if s.Lattice() == nil {
			return fmt.Errorf("-lattice-dxf needs a lattice scene")
		}
		if err := export.WriteLatticeDXF(*latticeOut, s.Lattice()); err != nil {
			return err
		}
	}

	if err := export.WriteMesh(*outPath, s.Mesh(), opts...); err != nil {
		return err
	}
	log.Printf("voxcsg: wrote %s", *outPath)
	return nil
}

func setup(s *scene.Scene, cfg config.Config) error {
	if *gridPath != "" {
		if *gridSize <= 0 {
			return fmt.Errorf("-grid needs a positive -grid-size")
		}
		return s.GridScene(*gridPath, *gridSize)
	}

	switch name := *sceneName; {
	case name == "sample":
		return s.SampleScene()
	case name == "intersect":
		return s.IntersectScene()
	case name == "lattice":
		return s.LatticeScene()
	case name == "lattice-mesh":
		return s.LatticeMeshScene(*stlPath)
	case name == "stl":
		return s.LoadSTLScene(*stlPath, 0)
	case name == "sphere":
		return s.SphereScene(*stlPath)
	case strings.EqualFold(filepath.Ext(name), ".lisp"):
		src, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		eng := engine.NewEngine(
			engine.WithFileAccess(),
			engine.WithMeshSettings(cfg.FitSize, cfg.AccelSpheres, cfg.Seed),
		)
		tree, evalErrs, err := eng.Evaluate(string(src))
		if err != nil {
			return err
		}
		if len(evalErrs) > 0 {
			for _, e := range evalErrs {
				log.Printf("%s: %v", name, e)
			}
			return fmt.Errorf("%s: %d evaluation errors", name, len(evalErrs))
		}
		return s.SetTree(tree)
	default:
		return fmt.Errorf("unknown scene %q", name)
	}
}

// progressLogger logs voxelization progress at every 10%.
func progressLogger() func(done, total int) {
	last := -1
	return func(done, total int) {
		if total <= 0 {
			return
		}
		pct := done * 100 / total
		if step := pct / 10; step != last {
			last = step
			log.Printf("voxcsg: voxelizing %d%%", step*10)
		}
	}
}

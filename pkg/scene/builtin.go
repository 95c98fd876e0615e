package scene

import (
	"fmt"
	"sort"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/loaders"
	"github.com/KholdStare/qndraytracer/pkg/material"
	"github.com/KholdStare/qndraytracer/pkg/renderer"
)

// Options parameterizes the built-in scenes
type Options struct {
	MeshPath string // mesh file for the "mesh" scene; empty for generated meshes
	Smooth   bool   // interpolate vertex normals of the loaded mesh

	// FloorTexture is an image tiled over the floor of the "default" scene
	// instead of the checkerboard.
	FloorTexture string
}

// Builder constructs a scene and the camera that frames it
type Builder func(opts Options) (*Scene, renderer.CameraConfig, error)

var builders = map[string]Builder{
	"default": buildDefaultScene,
	"cornell": func(Options) (*Scene, renderer.CameraConfig, error) {
		s, config := NewCornellScene()
		return s, config, nil
	},
	"mesh": buildMeshScene,
}

func buildDefaultScene(opts Options) (*Scene, renderer.CameraConfig, error) {
	var floor material.Texture[core.Vec3]
	if opts.FloorTexture != "" {
		texture, err := loaders.LoadTexture(opts.FloorTexture)
		if err != nil {
			return nil, renderer.CameraConfig{}, err
		}
		floor = texture
	}
	s, config := NewDefaultScene(floor)
	return s, config, nil
}

func buildMeshScene(opts Options) (*Scene, renderer.CameraConfig, error) {
	var data *loaders.MeshData
	if opts.MeshPath != "" {
		var err error
		if data, err = loaders.LoadMesh(opts.MeshPath, opts.Smooth); err != nil {
			return nil, renderer.CameraConfig{}, err
		}
	}
	s, config := NewTriangleMeshScene(data)
	return s, config, nil
}

// Names returns the registered scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs the named scene and preprocesses it
func Build(name string, opts Options) (*Scene, renderer.CameraConfig, error) {
	build, ok := builders[name]
	if !ok {
		return nil, renderer.CameraConfig{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownScene, name, Names())
	}
	s, config, err := build(opts)
	if err != nil {
		return nil, renderer.CameraConfig{}, fmt.Errorf("build scene %s: %w", name, err)
	}
	s.Preprocess()
	return s, config, nil
}

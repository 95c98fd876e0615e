package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/spf13/cobra"

	"github.com/KholdStare/qndraytracer/pkg/config"
	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/integrator"
	"github.com/KholdStare/qndraytracer/pkg/kdtree"
	"github.com/KholdStare/qndraytracer/pkg/loaders"
	"github.com/KholdStare/qndraytracer/pkg/output"
	"github.com/KholdStare/qndraytracer/pkg/renderer"
	"github.com/KholdStare/qndraytracer/pkg/scene"
)

func main() {
	envFile := os.Getenv(config.EnvPrefix + "ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(&cfg, core.NewDefaultLogger()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, logger core.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "qndraytracer",
		Short:        "Offline raytracer with kd-tree meshes and light-volume sampling",
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd(cfg, logger), newKDStatsCmd(), newSysInfoCmd())
	return root
}

func newRenderCmd(cfg *config.Config, logger core.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a built-in scene to an image",
		Long: fmt.Sprintf("Render a built-in scene (%v). Settings default to %s* environment "+
			"variables and the .env file; flags override both.", scene.Names(), config.EnvPrefix),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.Context(), *cfg, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Scene, "scene", cfg.Scene, "built-in scene name")
	f.StringVar(&cfg.MeshPath, "mesh", cfg.MeshPath, "mesh file for the mesh scene (obj, stl, ply, 3ds, gltf, glb)")
	f.BoolVar(&cfg.Smooth, "smooth", cfg.Smooth, "interpolate vertex normals of the loaded mesh")
	f.StringVar(&cfg.FloorTexture, "floor-texture", cfg.FloorTexture, "image tiled over the default scene's floor")
	f.IntVar(&cfg.Width, "width", cfg.Width, "image width in pixels (0 keeps the scene's)")
	f.Float64Var(&cfg.AspectRatio, "aspect", cfg.AspectRatio, "width / height (0 keeps the scene's)")
	f.IntVar(&cfg.AntialiasSamples, "aa", cfg.AntialiasSamples, "antialias samples per pixel (0 keeps the scene's)")
	f.IntVar(&cfg.Integrator.MaxDiffuse, "max-diffuse", cfg.Integrator.MaxDiffuse, "diffuse bounce budget")
	f.IntVar(&cfg.Integrator.MaxSpecular, "max-specular", cfg.Integrator.MaxSpecular, "specular bounce budget")
	f.IntVar(&cfg.Integrator.LightSamples, "light-samples", cfg.Integrator.LightSamples, "samples per light volume")
	f.IntVar(&cfg.Integrator.DiffuseSamples, "diffuse-samples", cfg.Integrator.DiffuseSamples, "hemisphere samples per diffuse hit")
	f.Float64Var(&cfg.Gamma, "gamma", cfg.Gamma, "output gamma")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel render workers")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "base random seed")
	f.StringVarP(&cfg.Output, "output", "o", cfg.Output, "output image path (format from extension)")
	f.IntVar(&cfg.ThumbnailSize, "thumbnail", cfg.ThumbnailSize, "also write a preview fitting in NxN pixels")
	f.StringVar(&cfg.SensorIn, "sensor-in", cfg.SensorIn, "merge samples from an earlier sensor file")
	f.StringVar(&cfg.SensorOut, "sensor-out", cfg.SensorOut, "write the raw sensor for later merging")
	f.BoolVar(&cfg.UploadEnabled, "upload", cfg.UploadEnabled, "upload the results to S3")
	f.BoolVar(&cfg.ProgressReport, "progress", cfg.ProgressReport, "log progress while rendering")
	return cmd
}

// createOutputPath returns the timestamped default image path for a scene
func createOutputPath(sceneName string, now time.Time) string {
	return filepath.Join("output", sceneName, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

func runRender(ctx context.Context, cfg config.Config, logger core.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc, cameraConfig, err := scene.Build(cfg.Scene, scene.Options{
		MeshPath:     cfg.MeshPath,
		Smooth:       cfg.Smooth,
		FloorTexture: cfg.FloorTexture,
	})
	if err != nil {
		return err
	}
	logger.Printf("scene %s: %s\n", cfg.Scene, sc.Stats())

	cameraConfig = renderer.MergeCameraConfig(cameraConfig, renderer.CameraConfig{
		Width:            cfg.Width,
		AspectRatio:      cfg.AspectRatio,
		AntialiasSamples: cfg.AntialiasSamples,
	})
	camera := renderer.NewCamera(cameraConfig)
	sensor := renderer.NewSensor(camera.Width(), camera.Height())
	raytracer := integrator.NewRaytracer(sc, cfg.Integrator)

	progress := core.NopLogger
	if cfg.ProgressReport {
		progress = logger
	}
	logger.Printf("rendering %dx%d, %d samples/pixel, %d workers\n",
		camera.Width(), camera.Height(), camera.SamplesPerPixel(), cfg.Workers)

	stats, err := renderer.Render(ctx, camera, sensor, raytracer.Radiance, renderer.RenderOptions{
		NumWorkers: cfg.Workers,
		Seed:       cfg.Seed,
		Logger:     progress,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	logger.Printf("render finished: %s\n", stats)

	if cfg.SensorIn != "" {
		if err := mergeSensor(sensor, cfg.SensorIn); err != nil {
			return err
		}
		logger.Printf("merged %s, %d samples total\n", cfg.SensorIn, sensor.TotalSamples())
	}
	if cfg.SensorOut != "" {
		if err := saveSensor(sensor, cfg.SensorOut); err != nil {
			return err
		}
		logger.Printf("sensor saved as %s\n", cfg.SensorOut)
	}

	path := cfg.Output
	if path == "" {
		path = createOutputPath(cfg.Scene, time.Now())
	}
	img := sensor.Image(cfg.Gamma)
	if err := output.Save(img, path); err != nil {
		return err
	}
	logger.Printf("render saved as %s (average luminance %.3f)\n", path, renderer.CalculateAverageLuminance(img))
	files := []string{path}

	if cfg.ThumbnailSize > 0 {
		thumbPath := output.ThumbnailPath(path)
		if err := output.Save(output.Thumbnail(img, cfg.ThumbnailSize, cfg.ThumbnailSize), thumbPath); err != nil {
			return err
		}
		logger.Printf("thumbnail saved as %s\n", thumbPath)
		files = append(files, thumbPath)
	}

	if cfg.UploadEnabled {
		uploader, err := output.NewS3Uploader(cfg.S3)
		if err != nil {
			return err
		}
		for _, file := range files {
			key, err := uploader.Upload(ctx, filepath.Base(file), file)
			if err != nil {
				return err
			}
			logger.Printf("uploaded %s to s3://%s/%s\n", file, cfg.S3.Bucket, key)
		}
	}
	return nil
}

func mergeSensor(sensor *renderer.Sensor, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("merge sensor: %w", err)
	}
	defer f.Close()

	previous, err := renderer.LoadSensor(f)
	if err != nil {
		return fmt.Errorf("merge sensor %s: %w", path, err)
	}
	if err := sensor.Merge(previous); err != nil {
		return fmt.Errorf("merge sensor %s: %w", path, err)
	}
	return nil
}

func saveSensor(sensor *renderer.Sensor, path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save sensor: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save sensor: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("save sensor %s: %w", path, cerr)
		}
	}()
	if err := sensor.Save(f); err != nil {
		return fmt.Errorf("save sensor %s: %w", path, err)
	}
	return nil
}

func newKDStatsCmd() *cobra.Command {
	var smooth bool
	cmd := &cobra.Command{
		Use:   "kdstats <mesh>",
		Short: "Load a mesh, build its kd-tree and print the tree statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKDStats(cmd.OutOrStdout(), args[0], smooth)
		},
	}
	cmd.Flags().BoolVar(&smooth, "smooth", false, "compute smoothed vertex normals while loading")
	return cmd
}

func runKDStats(w io.Writer, path string, smooth bool) error {
	start := time.Now()
	data, err := loaders.LoadMesh(path, smooth)
	if err != nil {
		return err
	}
	loaded := time.Since(start)

	start = time.Now()
	tree := kdtree.Build(data.Faces, data.Bound)
	built := time.Since(start)

	st := tree.Stats()
	fmt.Fprintf(w, "mesh:        %s\n", path)
	fmt.Fprintf(w, "bound:       %v - %v\n", data.Bound.Min, data.Bound.Max)
	fmt.Fprintf(w, "faces:       %d\n", st.Faces)
	fmt.Fprintf(w, "nodes:       %d (%d leaves)\n", st.Nodes, st.Leaves)
	fmt.Fprintf(w, "depth:       %d (average leaf depth %.2f)\n", st.Depth, st.AvgLeafDepth)
	fmt.Fprintf(w, "max leaf:    %d faces\n", st.MaxLeafFaces)
	fmt.Fprintf(w, "load time:   %v\n", loaded.Round(time.Microsecond))
	fmt.Fprintf(w, "build time:  %v\n", built.Round(time.Microsecond))
	return nil
}

func newSysInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sysinfo",
		Short: "Print the host CPU and memory used to size the worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSysInfo(cmd.OutOrStdout())
		},
	}
}

func runSysInfo(w io.Writer) error {
	logical, err := cpu.Counts(true)
	if err != nil {
		return fmt.Errorf("cpu counts: %w", err)
	}
	physical, _ := cpu.Counts(false)

	model := "unknown"
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		model = infos[0].ModelName
	}

	fmt.Fprintf(w, "cpu:      %s\n", model)
	fmt.Fprintf(w, "cores:    %d physical, %d logical\n", physical, logical)
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(w, "memory:   %.1f GiB total, %.1f GiB available\n", gib(vm.Total), gib(vm.Available))
	}
	fmt.Fprintf(w, "workers:  %d (set %sWORKERS to override)\n", config.DefaultWorkers(), config.EnvPrefix)
	return nil
}

func gib(bytes uint64) float64 {
	return float64(bytes) / (1 << 30)
}

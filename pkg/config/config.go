// Package config gathers render settings from defaults, an optional .env
// file and QND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/cpu"

	"github.com/KholdStare/qndraytracer/pkg/integrator"
	"github.com/KholdStare/qndraytracer/pkg/output"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "QND_"

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid config")

// Config holds everything a render run needs besides the scene itself
type Config struct {
	Scene        string
	MeshPath     string
	Smooth       bool
	FloorTexture string

	// Zero keeps the scene's own camera setting
	Width            int
	AspectRatio      float64
	AntialiasSamples int

	Integrator integrator.Config
	Gamma      float64
	Workers    int
	Seed       int64

	Output         string // empty for output/<scene>/render_<timestamp>.png
	ThumbnailSize  int    // 0 disables the preview
	SensorIn       string
	SensorOut      string
	S3             output.S3Config
	UploadEnabled  bool
	ProgressReport bool
}

// Default returns the settings used when nothing overrides them
func Default() Config {
	return Config{
		Scene:          "default",
		Integrator:     integrator.DefaultConfig(),
		Gamma:          2.2,
		Workers:        DefaultWorkers(),
		Seed:           1,
		ProgressReport: true,
	}
}

// DefaultWorkers is the number of logical CPUs, falling back to the runtime's
// count if the host cannot be queried
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Load reads envFile (if it exists) into the environment and applies every
// QND_* variable on top of Default(). An empty envFile skips the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	c := Default()
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return c, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.String("SCENE", &c.Scene)
	e.String("MESH", &c.MeshPath)
	e.Bool("SMOOTH", &c.Smooth)
	e.String("FLOOR_TEXTURE", &c.FloorTexture)
	e.Int("WIDTH", &c.Width)
	e.Float("ASPECT_RATIO", &c.AspectRatio)
	e.Int("AA_SAMPLES", &c.AntialiasSamples)
	e.Int("MAX_DIFFUSE", &c.Integrator.MaxDiffuse)
	e.Int("MAX_SPECULAR", &c.Integrator.MaxSpecular)
	e.Int("LIGHT_SAMPLES", &c.Integrator.LightSamples)
	e.Int("DIFFUSE_SAMPLES", &c.Integrator.DiffuseSamples)
	e.Float("GAMMA", &c.Gamma)
	e.Int("WORKERS", &c.Workers)
	e.Int64("SEED", &c.Seed)
	e.String("OUTPUT", &c.Output)
	e.Int("THUMBNAIL", &c.ThumbnailSize)
	e.String("SENSOR_IN", &c.SensorIn)
	e.String("SENSOR_OUT", &c.SensorOut)
	e.Bool("PROGRESS", &c.ProgressReport)

	e.String("S3_BUCKET", &c.S3.Bucket)
	e.String("S3_ENDPOINT", &c.S3.Endpoint)
	e.String("S3_REGION", &c.S3.Region)
	e.String("S3_ACCESS_KEY", &c.S3.AccessKey)
	e.String("S3_SECRET_KEY", &c.S3.SecretKey)
	e.String("S3_PREFIX", &c.S3.Prefix)
	e.Bool("UPLOAD", &c.UploadEnabled)

	return e.err
}

// Validate reports the first setting that cannot produce a render
func (c Config) Validate() error {
	switch {
	case c.Scene == "":
		return fmt.Errorf("%w: empty scene name", ErrInvalid)
	case c.Width < 0:
		return fmt.Errorf("%w: width %d", ErrInvalid, c.Width)
	case c.AspectRatio < 0:
		return fmt.Errorf("%w: aspect ratio %g", ErrInvalid, c.AspectRatio)
	case c.AntialiasSamples < 0:
		return fmt.Errorf("%w: antialias samples %d", ErrInvalid, c.AntialiasSamples)
	case c.Integrator.MaxDiffuse < 0 || c.Integrator.MaxSpecular < 0:
		return fmt.Errorf("%w: negative bounce budget (diffuse %d, specular %d)",
			ErrInvalid, c.Integrator.MaxDiffuse, c.Integrator.MaxSpecular)
	case c.Integrator.LightSamples <= 0:
		return fmt.Errorf("%w: light samples %d", ErrInvalid, c.Integrator.LightSamples)
	case c.Integrator.DiffuseSamples <= 0:
		return fmt.Errorf("%w: diffuse samples %d", ErrInvalid, c.Integrator.DiffuseSamples)
	case c.Gamma <= 0:
		return fmt.Errorf("%w: gamma %g", ErrInvalid, c.Gamma)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	case c.ThumbnailSize < 0:
		return fmt.Errorf("%w: thumbnail size %d", ErrInvalid, c.ThumbnailSize)
	case c.UploadEnabled && c.S3.Bucket == "":
		return fmt.Errorf("%w: upload enabled without %sS3_BUCKET", ErrInvalid, EnvPrefix)
	}
	return nil
}

// envReader parses prefixed variables, keeping the first error
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(EnvPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(key, value string, err error) {
	e.err = fmt.Errorf("%w: %s%s=%q: %v", ErrInvalid, EnvPrefix, key, value, err)
}

func (e *envReader) String(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) Int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) Int64(key string, dst *int64) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) Float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) Bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}

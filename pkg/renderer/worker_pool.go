package renderer

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// rowsPerTask is the number of sensor rows a worker claims at a time
const rowsPerTask = 8

// RenderOptions controls how a frame is distributed over workers
type RenderOptions struct {
	NumWorkers int   // Number of parallel workers (0 = use CPU count)
	Seed       int64 // Worker i draws from a generator seeded with Seed+i
	Logger     core.Logger
}

// Render computes every pixel of the camera into sensor using a fixed pool
// of workers. Rows are claimed dynamically in small chunks; each worker owns
// its random generator. The context is checked between chunks, so a
// cancelled render stops early with ctx.Err() and a partially filled sensor.
func Render(ctx context.Context, camera *Camera, sensor *Sensor, radiance RadianceFunc, options RenderOptions) (RenderStats, error) {
	numWorkers := options.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	logger := options.Logger
	if logger == nil {
		logger = core.NopLogger
	}

	width, height := camera.Width(), camera.Height()
	if sensor.Width() != width || sensor.Height() != height {
		return RenderStats{}, ErrSensorMismatch
	}

	start := time.Now()
	var nextRow atomic.Int64
	var rowsDone atomic.Int64
	var samples atomic.Int64
	reportEvery := int64(max(1, height/10))

	g, ctx := errgroup.WithContext(ctx)
	for id := 0; id < numWorkers; id++ {
		g.Go(func() error {
			sampler := core.NewSeededSampler(options.Seed + int64(id))
			taken := 0
			defer func() { samples.Add(int64(taken)) }()
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				first := int(nextRow.Add(rowsPerTask)) - rowsPerTask
				if first >= height {
					break
				}
				last := min(first+rowsPerTask, height)

				for row := first; row < last; row++ {
					for col := 0; col < width; col++ {
						sum, count := camera.SamplePixel(row, col, radiance, sampler)
						sensor.Add(row, col, sum, count)
						taken += count
					}
					done := rowsDone.Add(1)
					if done%reportEvery == 0 {
						logger.Printf("rendered %d/%d rows (%.0f%%)\n", done, height, 100*float64(done)/float64(height))
					}
				}
			}
			return nil
		})
	}

	err := g.Wait()
	stats := RenderStats{
		TotalPixels:  width * height,
		TotalSamples: int(samples.Load()),
		Workers:      numWorkers,
		Duration:     time.Since(start),
	}
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	if err != nil {
		return stats, err
	}
	logger.Printf("render complete: %s\n", stats)
	return stats, nil
}

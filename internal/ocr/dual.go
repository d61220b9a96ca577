package ocr

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DualRunner fans an image out to every configured engine concurrently.
// Engines that fail or exceed the per-engine timeout contribute nothing; a
// degraded single-engine result is better than none.
type DualRunner struct {
	engines []Engine
	timeout time.Duration
	logger  *slog.Logger
}

const defaultEngineTimeout = 30 * time.Second

func NewDualRunner(engines []Engine, timeout time.Duration, logger *slog.Logger) *DualRunner {
	if timeout <= 0 {
		timeout = defaultEngineTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DualRunner{engines: engines, timeout: timeout, logger: logger}
}

// Run returns the successful results in engine-registration order.
func (r *DualRunner) Run(ctx context.Context, imagePath string) []Result {
	results := make([]*Result, len(r.engines))

	var wg sync.WaitGroup
	for i, eng := range r.engines {
		wg.Add(1)
		go func(i int, eng Engine) {
			defer wg.Done()

			ectx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			start := time.Now()
			res, err := eng.Recognize(ectx, imagePath)
			if err != nil {
				r.logger.Warn("ocr.engine.failed",
					"engine", eng.Name(),
					"duration_ms", time.Since(start).Milliseconds(),
					"error", err)
				return
			}
			r.logger.Debug("ocr.engine.done",
				"engine", eng.Name(),
				"duration_ms", time.Since(start).Milliseconds(),
				"confidence", res.Confidence,
				"text_bytes", len(res.Text))
			results[i] = &res
		}(i, eng)
	}
	wg.Wait()

	out := make([]Result, 0, len(results))
	for _, res := range results {
		if res != nil {
			out = append(out, *res)
		}
	}
	return out
}

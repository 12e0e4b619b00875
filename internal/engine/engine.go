package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/democam/internal/camera"
	"github.com/ivlev/democam/internal/config"
	"github.com/ivlev/democam/internal/director"
	"github.com/ivlev/democam/internal/ease"
	"github.com/ivlev/democam/internal/events"
	"github.com/ivlev/democam/internal/intent"
	"github.com/ivlev/democam/internal/renderer"
)

// ErrTooLong is returned for recordings longer than Render.MaxDuration.
var ErrTooLong = errors.New("recording too long")

const defaultMaxDuration = 3600

// Project plans camera tracks for recordings.
type Project struct {
	Config *config.Config
	Logger *slog.Logger
}

func NewProject(cfg *config.Config, logger *slog.Logger) *Project {
	if logger == nil {
		logger = slog.Default()
	}
	return &Project{Config: cfg, Logger: logger}
}

// Result is the plan for one recording.
type Result struct {
	Recording *events.Recording
	Samples   []director.Sample
	Track     *director.Track
	Stats     intent.Stats
	Discarded int // clicks dropped by the debounce

	// Deviation is the worst difference between the dense path and the
	// keyframes replayed by the renderer, in units of the director's
	// tolerances. Up to 1 means the track reproduces the path.
	Deviation float64
}

// Plan ticks a fresh controller over rec at Render.FPS and reduces the path
// to keyframes. bias is combined with the configured camera bias.
func (p *Project) Plan(ctx context.Context, rec *events.Recording, bias intent.Bias) (*Result, error) {
	start := time.Now()
	fps := p.Config.Render.FPS
	if fps <= 0 {
		return nil, fmt.Errorf("invalid fps %d", fps)
	}

	vp := rec.Viewport
	if !vp.Valid() {
		vp = p.Config.Render.Viewport()
	}
	duration := rec.Duration
	if duration <= 0 {
		duration = rec.End() + p.Config.Render.Tail
	}
	limit := p.Config.Render.MaxDuration
	if limit <= 0 {
		limit = defaultMaxDuration
	}
	if !ease.Finite(duration) || duration > limit {
		return nil, fmt.Errorf("plan %s: %w: %.1fs exceeds %.0fs", rec.Name, ErrTooLong, duration, limit)
	}

	camCfg := p.Config.Camera
	camCfg.Bias = combine(camCfg.Bias, bias)
	ctrl := camera.NewController(camCfg)

	frames := int(math.Ceil(duration*float64(fps))) + 1
	dt := 1 / float64(fps)
	samples := make([]director.Sample, 0, frames)

	var focusedZoom float64
	var focusedFrames int
	s := camera.NewState()
	for i := 0; i < frames; i++ {
		if i%fps == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("plan %s: %w", rec.Name, err)
			}
		}
		t := float64(i) * dt
		s = ctrl.Update(s, camera.Frame{
			Time:     t,
			Dt:       dt,
			Clicks:   rec.Clicks,
			Moves:    rec.Moves,
			Viewport: vp,
			Effects:  rec.Effects,
		})
		if s.Mode == camera.Focused {
			focusedZoom += s.Target.Scale
			focusedFrames++
		}
		samples = append(samples, director.Sample{Time: t, Mode: s.Mode, Transform: s.Transform})
	}

	dir := director.NewDirector(int(vp.Width), int(vp.Height))
	track, err := dir.Direct(samples, rec.Name, duration, fps)
	if err != nil {
		return nil, fmt.Errorf("direct %s: %w", rec.Name, err)
	}
	track.ID = rec.ID
	track.Name = rec.Name
	track.Episodes = s.Episodes

	deviation := replay(dir, track.Keyframes, samples)
	if deviation > 1+1e-6 {
		p.Logger.Warn("keyframes drift from the planned path",
			slog.String("name", rec.Name),
			slog.Float64("deviation", deviation),
		)
	}

	stats := intent.Stats{
		Duration:   duration,
		Episodes:   s.Episodes,
		Smoothness: smoothness(rec),
		Bias:       ctrl.Config().Bias,
	}
	if focusedFrames > 0 {
		stats.MeanZoom = focusedZoom / float64(focusedFrames)
	}

	p.Logger.Info("recording planned",
		slog.String("id", rec.ID),
		slog.String("name", rec.Name),
		slog.Int("frames", len(samples)),
		slog.Int("keyframes", len(track.Keyframes)),
		slog.Int("episodes", s.Episodes),
		slog.Int("discarded", s.Discarded),
		slog.Duration("took", time.Since(start)),
	)
	return &Result{
		Recording: rec,
		Samples:   samples,
		Track:     track,
		Stats:     stats,
		Discarded: s.Discarded,
		Deviation: deviation,
	}, nil
}

// PlanAll plans recordings concurrently, at most Config.Workers at a time.
// Results keep the order of recs. The first error cancels the rest.
func (p *Project) PlanAll(ctx context.Context, recs []*events.Recording, bias intent.Bias) ([]*Result, error) {
	results := make([]*Result, len(recs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.Config.Workers))
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			res, err := p.Plan(ctx, rec, bias)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Scenario collects the tracks of results.
func Scenario(results []*Result) *director.Scenario {
	sc := &director.Scenario{Version: director.Version}
	for _, r := range results {
		sc.Tracks = append(sc.Tracks, *r.Track)
	}
	return sc
}

// Learn folds every planned session into l.
func Learn(l *intent.Learner, results []*Result) {
	for _, r := range results {
		l.Observe(r.Stats)
	}
}

func combine(a, b intent.Bias) intent.Bias {
	a, b = a.Normalize(), b.Normalize()
	return intent.Bias{
		Stiffness: a.Stiffness * b.Stiffness,
		Damping:   a.Damping * b.Damping,
		Zoom:      a.Zoom * b.Zoom,
	}.Normalize()
}

// replay interpolates keyframes at every sample time the way the renderer
// does and returns the worst deviation from the samples.
func replay(d *director.Director, keyframes []director.Keyframe, samples []director.Sample) float64 {
	var worst float64
	for _, s := range samples {
		worst = math.Max(worst, d.Deviation(s.Transform, renderer.InterpolateKeyframes(keyframes, s.Time)))
	}
	return worst
}

func smoothness(rec *events.Recording) float64 {
	xs := make([]float64, len(rec.Moves))
	ys := make([]float64, len(rec.Moves))
	for i, m := range rec.Moves {
		xs[i], ys[i] = m.X, m.Y
	}
	return intent.Smoothness(xs, ys)
}

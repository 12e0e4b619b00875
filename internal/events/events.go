// Package events loads recorded pointer telemetry.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/democam/internal/camera"
	"github.com/ivlev/democam/internal/cursor"
	"github.com/ivlev/democam/internal/ease"
	"github.com/ivlev/democam/internal/effects"
)

var ErrNoRecordings = errors.New("no recordings found")

// Recording is the telemetry captured alongside one screen recording.
type Recording struct {
	ID       string              `yaml:"id" json:"id"`
	Name     string              `yaml:"name,omitempty" json:"name,omitempty"`
	Viewport camera.Viewport     `yaml:"viewport" json:"viewport"`
	Duration float64             `yaml:"duration,omitempty" json:"duration,omitempty"` // seconds; 0 = derive from events
	Clicks   []camera.ClickEvent `yaml:"clicks" json:"clicks"`
	Moves    []cursor.Sample     `yaml:"moves" json:"moves"`
	Effects  []effects.Window    `yaml:"effects,omitempty" json:"effects,omitempty"`
}

// Report counts what Sanitize dropped.
type Report struct {
	Clicks  int
	Moves   int
	Effects int
}

// Empty reports whether nothing was dropped.
func (r Report) Empty() bool { return r == Report{} }

// Sanitize drops non-finite events and invalid effect windows, clamps
// coordinates into the frame, sorts by time and assigns an ID when missing.
func (r *Recording) Sanitize() Report {
	var rep Report

	clicks := r.Clicks[:0]
	for _, c := range r.Clicks {
		if !ease.Finite(c.X, c.Y, c.T) || c.T < 0 {
			rep.Clicks++
			continue
		}
		c.X, c.Y = ease.Clamp01(c.X), ease.Clamp01(c.Y)
		if c.Kind == "" {
			c.Kind = camera.Click
		}
		if c.Target != nil && !ease.Finite(c.Target.X, c.Target.Y, c.Target.W, c.Target.H) {
			c.Target = nil
		}
		clicks = append(clicks, c)
	}
	sort.SliceStable(clicks, func(i, j int) bool { return clicks[i].T < clicks[j].T })
	r.Clicks = clicks

	moves := r.Moves[:0]
	for _, m := range r.Moves {
		if !ease.Finite(m.X, m.Y, m.T) || m.T < 0 {
			rep.Moves++
			continue
		}
		m.X, m.Y = ease.Clamp01(m.X), ease.Clamp01(m.Y)
		moves = append(moves, m)
	}
	sort.SliceStable(moves, func(i, j int) bool { return moves[i].T < moves[j].T })
	r.Moves = moves

	windows := r.Effects[:0]
	for _, w := range r.Effects {
		if w.Validate() != nil {
			rep.Effects++
			continue
		}
		windows = append(windows, w)
	}
	r.Effects = windows

	if !ease.Finite(r.Duration) || r.Duration < 0 {
		r.Duration = 0
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return rep
}

// End returns the time of the last event or effect.
func (r *Recording) End() float64 {
	end := 0.0
	for _, c := range r.Clicks {
		end = max(end, c.T)
	}
	for _, m := range r.Moves {
		end = max(end, m.T)
	}
	for _, w := range r.Effects {
		end = max(end, w.End)
	}
	return end
}

// Format names a supported encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("unsupported recording format %q", filepath.Ext(path))
	}
}

// Decode reads one recording.
func Decode(r io.Reader, format Format) (*Recording, error) {
	var rec Recording
	switch format {
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode yaml recording: %w", err)
		}
	case JSON:
		if err := json.NewDecoder(r).Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode json recording: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported recording format %q", format)
	}
	return &rec, nil
}

// Load reads and sanitizes a recording file. The file name becomes the
// recording name when it has none.
func Load(path string) (*Recording, Report, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, Report{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, err
	}
	defer f.Close()

	rec, err := Decode(f, format)
	if err != nil {
		return nil, Report{}, fmt.Errorf("%s: %w", path, err)
	}
	if rec.Name == "" {
		rec.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return rec, rec.Sanitize(), nil
}

// FindAll lists recording files in dir, newest first.
func FindAll(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		path string
		info os.FileInfo
	}
	var found []candidate
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if _, err := FormatOf(f.Name()); err != nil {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, f.Name()), info})
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRecordings, dir)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].info.ModTime().After(found[j].info.ModTime())
	})
	paths := make([]string, len(found))
	for i, c := range found {
		paths[i] = c.path
	}
	return paths, nil
}

// FindLatest returns the most recently modified recording in dir.
func FindLatest(dir string) (string, error) {
	paths, err := FindAll(dir)
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

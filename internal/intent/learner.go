package intent

import (
	"encoding/json"
	"fmt"

	"github.com/ivlev/democam/internal/ease"
)

// BlobVersion is the current preference blob format.
const BlobVersion = 1

// Bias multiplies planner tuning. The zero value is not neutral; use
// NeutralBias.
type Bias struct {
	Stiffness float64 `yaml:"stiffness" json:"stiffness"`
	Damping   float64 `yaml:"damping" json:"damping"`
	Zoom      float64 `yaml:"zoom" json:"zoom"`
}

// NeutralBias leaves the planner unchanged.
func NeutralBias() Bias { return Bias{Stiffness: 1, Damping: 1, Zoom: 1} }

// Normalize bounds every multiplier and replaces unusable ones with 1.
func (b Bias) Normalize() Bias {
	fix := func(v, lo, hi float64) float64 {
		if !ease.Finite(v) || v <= 0 {
			return 1
		}
		return ease.Clamp(v, lo, hi)
	}
	return Bias{
		Stiffness: fix(b.Stiffness, 0.7, 1.4),
		Damping:   fix(b.Damping, 1, 1.5),
		Zoom:      fix(b.Zoom, 0.7, 1.3),
	}
}

// Stats summarizes one planned session.
type Stats struct {
	Duration   float64 // seconds
	Episodes   int     // focus episodes started
	MeanZoom   float64 // mean target scale while focused; 0 if never focused
	Smoothness float64 // [0,1], see Smoothness

	// Bias the session was planned with. Observe divides it out of
	// MeanZoom so a learned preference does not feed on itself. The zero
	// value means neutral.
	Bias Bias
}

// unbiasedZoom is MeanZoom with the planning zoom bias removed.
func (st Stats) unbiasedZoom() float64 {
	z, bz := st.MeanZoom, st.Bias.Zoom
	if z <= 1 || !ease.Finite(bz) || bz <= 0 {
		return z
	}
	return 1 + (z-1)/bz
}

// Learner exponentially averages session statistics into planner biases.
type Learner struct {
	Version       int     `json:"version"`
	Sessions      int     `json:"sessions"`
	Alpha         float64 `json:"alpha"`
	ZoomFrequency float64 `json:"zoom_frequency"` // episodes per minute
	PreferredZoom float64 `json:"preferred_zoom"` // unbiased
	Smoothness    float64 `json:"smoothness"`
}

// Reference values the biases are measured against.
const (
	referenceFrequency = 4.0 // episodes per minute
	referenceZoom      = 1.5
)

// NewLearner returns a learner with no history.
func NewLearner() *Learner {
	return &Learner{Version: BlobVersion, Alpha: 0.3}
}

// Observe folds one session into the averages. Sessions shorter than a
// second carry no signal and are ignored.
func (l *Learner) Observe(st Stats) {
	if !ease.Finite(st.Duration, st.MeanZoom, st.Smoothness) || st.Duration < 1 {
		return
	}
	freq := float64(st.Episodes) / (st.Duration / 60)
	smooth := ease.Clamp01(st.Smoothness)

	alpha := l.Alpha
	if !ease.Finite(alpha) || alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}
	mix := func(avg, v float64) float64 {
		if l.Sessions == 0 {
			return v
		}
		return avg + alpha*(v-avg)
	}

	l.ZoomFrequency = mix(l.ZoomFrequency, freq)
	l.Smoothness = mix(l.Smoothness, smooth)
	if zoom := st.unbiasedZoom(); zoom >= 1 {
		if l.PreferredZoom == 0 {
			l.PreferredZoom = zoom
		} else {
			l.PreferredZoom += alpha * (zoom - l.PreferredZoom)
		}
	}
	l.Sessions++
}

// Biases converts the averages into planner multipliers. Frequent zooming
// speeds the springs up, jittery movement adds damping, and the preferred
// zoom scales the zoom amount.
func (l *Learner) Biases() Bias {
	if l == nil || l.Sessions == 0 {
		return NeutralBias()
	}
	b := Bias{
		Stiffness: 1 + 0.05*(l.ZoomFrequency-referenceFrequency),
		Damping:   1 + 0.5*(1-l.Smoothness),
		Zoom:      1,
	}
	if l.PreferredZoom > 1 {
		b.Zoom = (l.PreferredZoom - 1) / (referenceZoom - 1)
	}
	return b.Normalize()
}

// Marshal encodes the learner as an opaque preference blob.
func (l *Learner) Marshal() ([]byte, error) {
	l.Version = BlobVersion
	return json.Marshal(l)
}

// UnmarshalLearner decodes a preference blob. An empty blob yields a fresh
// learner.
func UnmarshalLearner(blob []byte) (*Learner, error) {
	l := NewLearner()
	if len(blob) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(blob, l); err != nil {
		return nil, fmt.Errorf("decode preference blob: %w", err)
	}
	if l.Version != BlobVersion {
		return nil, fmt.Errorf("unsupported preference blob version %d", l.Version)
	}
	return l, nil
}

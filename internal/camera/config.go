package camera

import (
	"github.com/ivlev/democam/internal/ease"
	"github.com/ivlev/democam/internal/intent"
	"github.com/ivlev/democam/internal/spring"
)

// Springs tunes each camera channel independently.
type Springs struct {
	Scale    spring.Params `yaml:"scale" json:"scale"`
	Pan      spring.Params `yaml:"pan" json:"pan"`
	Rotation spring.Params `yaml:"rotation" json:"rotation"`
}

// Config is the complete camera tuning. Distances are normalized to the
// viewport, durations are seconds.
type Config struct {
	ZoomStrength       float64 `yaml:"zoom_strength" json:"zoom_strength"`
	SpeedMultiplier    float64 `yaml:"speed_multiplier" json:"speed_multiplier"`
	EdgePadding        float64 `yaml:"edge_padding" json:"edge_padding"`
	EnableAnchoredZoom bool    `yaml:"enable_anchored_zoom" json:"enable_anchored_zoom"`

	// Zoom sizing.
	DefaultClickZoom float64            `yaml:"default_click_zoom" json:"default_click_zoom"`
	ZoomMin          float64            `yaml:"zoom_min" json:"zoom_min"`
	ZoomMax          float64            `yaml:"zoom_max" json:"zoom_max"`
	ScaleCeiling     float64            `yaml:"scale_ceiling" json:"scale_ceiling"`
	TargetFill       float64            `yaml:"target_fill" json:"target_fill"`
	SpeedZoomFalloff float64            `yaml:"speed_zoom_falloff" json:"speed_zoom_falloff"`
	DoubleClickBoost float64            `yaml:"double_click_boost" json:"double_click_boost"`
	CategoryZoom     map[string]float64 `yaml:"category_zoom" json:"category_zoom"`

	// Click handling and mode timers.
	ClickLead             float64 `yaml:"click_lead" json:"click_lead"`
	FocusDuration         float64 `yaml:"focus_duration" json:"focus_duration"`
	MinClickInterval      float64 `yaml:"min_click_interval" json:"min_click_interval"`
	ClusterRadius         float64 `yaml:"cluster_radius" json:"cluster_radius"`
	ClusterWindow         float64 `yaml:"cluster_window" json:"cluster_window"`
	ClusterEndGap         float64 `yaml:"cluster_end_gap" json:"cluster_end_gap"`
	IdleTimeout           float64 `yaml:"idle_timeout" json:"idle_timeout"`
	FarDistance           float64 `yaml:"far_distance" json:"far_distance"`
	HoldDuration          float64 `yaml:"hold_duration" json:"hold_duration"`
	DecayRamp             float64 `yaml:"decay_ramp" json:"decay_ramp"`
	IntermediateThreshold float64 `yaml:"intermediate_threshold" json:"intermediate_threshold"`
	IntermediateScale     float64 `yaml:"intermediate_scale" json:"intermediate_scale"`
	IntermediateStage     float64 `yaml:"intermediate_stage" json:"intermediate_stage"`

	// Soft focus.
	DwellSpeed       float64 `yaml:"dwell_speed" json:"dwell_speed"`
	DwellTime        float64 `yaml:"dwell_time" json:"dwell_time"`
	SoftFocusTimeout float64 `yaml:"soft_focus_timeout" json:"soft_focus_timeout"`
	SoftFocusZoom    float64 `yaml:"soft_focus_zoom" json:"soft_focus_zoom"`
	Deadzone         float64 `yaml:"deadzone" json:"deadzone"`
	FollowThreshold  float64 `yaml:"follow_threshold" json:"follow_threshold"`

	// Pre-roll.
	EnableAnticipation bool    `yaml:"enable_anticipation" json:"enable_anticipation"`
	AnticipationWindow float64 `yaml:"anticipation_window" json:"anticipation_window"`
	AnticipationAmount float64 `yaml:"anticipation_amount" json:"anticipation_amount"`

	// Framing.
	Composition      float64 `yaml:"composition" json:"composition"`
	LookaheadTime    float64 `yaml:"lookahead_time" json:"lookahead_time"`
	TrackingWeight   float64 `yaml:"tracking_weight" json:"tracking_weight"`
	FocusSmoothing   float64 `yaml:"focus_smoothing" json:"focus_smoothing"`
	RotationGain     float64 `yaml:"rotation_gain" json:"rotation_gain"`
	MaxRotation      float64 `yaml:"max_rotation" json:"max_rotation"`
	VignetteStrength float64 `yaml:"vignette_strength" json:"vignette_strength"`

	// Cursor sampling.
	VelocityWindow float64 `yaml:"velocity_window" json:"velocity_window"`
	MaxCursorSpeed float64 `yaml:"max_cursor_speed" json:"max_cursor_speed"`

	// Integration.
	SmoothingFrames int     `yaml:"smoothing_frames" json:"smoothing_frames"`
	MaxDt           float64 `yaml:"max_dt" json:"max_dt"`
	Springs         Springs `yaml:"springs" json:"springs"`
	ConvergeEpsilon float64 `yaml:"converge_epsilon" json:"converge_epsilon"`
	NeutralEpsilon  float64 `yaml:"neutral_epsilon" json:"neutral_epsilon"`
	NeutralPixels   float64 `yaml:"neutral_pixels" json:"neutral_pixels"`

	// Adaptive extension.
	EnableIntent     bool          `yaml:"enable_intent" json:"enable_intent"`
	EnableGestures   bool          `yaml:"enable_gestures" json:"enable_gestures"`
	GestureZoomStep  float64       `yaml:"gesture_zoom_step" json:"gesture_zoom_step"`
	GesturePanStep   float64       `yaml:"gesture_pan_step" json:"gesture_pan_step"`
	EmphasisDuration float64       `yaml:"emphasis_duration" json:"emphasis_duration"`
	EmphasisVignette float64       `yaml:"emphasis_vignette" json:"emphasis_vignette"`
	Intent           intent.Config `yaml:"intent" json:"intent"`
	Bias             intent.Bias   `yaml:"bias" json:"bias"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		ZoomStrength:    1.0,
		SpeedMultiplier: 1.0,
		EdgePadding:     0.1,

		DefaultClickZoom: 1.5,
		ZoomMin:          1.2,
		ZoomMax:          2.5,
		ScaleCeiling:     4.0,
		TargetFill:       0.12,
		SpeedZoomFalloff: 1.5,
		DoubleClickBoost: 0.15,
		CategoryZoom: map[string]float64{
			"button": 1.0,
			"input":  1.1,
			"link":   1.0,
			"menu":   0.9,
			"text":   0.85,
			"image":  0.8,
		},

		ClickLead:             0.1,
		FocusDuration:         1.5,
		MinClickInterval:      0.18,
		ClusterRadius:         0.08,
		ClusterWindow:         1.2,
		ClusterEndGap:         2.0,
		IdleTimeout:           1.0,
		FarDistance:           0.3,
		HoldDuration:          1.0,
		DecayRamp:             0.8,
		IntermediateThreshold: 1.8,
		IntermediateScale:     1.25,
		IntermediateStage:     0.5,

		DwellSpeed:       0.05,
		DwellTime:        0.6,
		SoftFocusTimeout: 3.0,
		SoftFocusZoom:    1.12,
		Deadzone:         0.03,
		FollowThreshold:  0.12,

		AnticipationWindow: 0.35,
		AnticipationAmount: 0.15,

		Composition:      0.2,
		LookaheadTime:    0.12,
		TrackingWeight:   0.35,
		FocusSmoothing:   0.35,
		RotationGain:     2.0,
		MaxRotation:      1.5,
		VignetteStrength: 0.35,

		VelocityWindow: 0.05,
		MaxCursorSpeed: 3.0,

		SmoothingFrames: 5,
		MaxDt:           spring.MaxDt,
		Springs: Springs{
			Scale:    spring.Params{Stiffness: 120, Damping: 1, Mass: 1, Epsilon: 1e-4},
			Pan:      spring.Params{Stiffness: 90, Damping: 1, Mass: 1, Epsilon: 0.01},
			Rotation: spring.Params{Stiffness: 60, Damping: 1.1, Mass: 1, Epsilon: 1e-4},
		},
		ConvergeEpsilon: 2e-3,
		NeutralEpsilon:  1e-3,
		NeutralPixels:   0.5,

		EnableIntent:     true,
		GestureZoomStep:  1.25,
		GesturePanStep:   0.08,
		EmphasisDuration: 0.6,
		EmphasisVignette: 0.25,
		Intent:           intent.DefaultConfig(),
		Bias:             intent.NeutralBias(),
	}
}

// Normalize returns a copy in which every unusable field (non-finite, out of
// range) is replaced by its default. Update never sees a config that could
// produce NaN.
func (c Config) Normalize() Config {
	d := DefaultConfig()

	pos := func(v *float64, def float64) {
		if !ease.Finite(*v) || *v <= 0 {
			*v = def
		}
	}
	nonneg := func(v *float64, def float64) {
		if !ease.Finite(*v) || *v < 0 {
			*v = def
		}
	}
	unit := func(v *float64, def float64) {
		if !ease.Finite(*v) || *v < 0 || *v > 1 {
			*v = def
		}
	}
	atLeastOne := func(v *float64, def float64) {
		if !ease.Finite(*v) || *v < 1 {
			*v = def
		}
	}

	pos(&c.ZoomStrength, d.ZoomStrength)
	pos(&c.SpeedMultiplier, d.SpeedMultiplier)
	if !ease.Finite(c.EdgePadding) || c.EdgePadding < 0 || c.EdgePadding >= 1 {
		c.EdgePadding = d.EdgePadding
	}

	atLeastOne(&c.DefaultClickZoom, d.DefaultClickZoom)
	atLeastOne(&c.ZoomMin, d.ZoomMin)
	atLeastOne(&c.ZoomMax, d.ZoomMax)
	atLeastOne(&c.ScaleCeiling, d.ScaleCeiling)
	if c.ZoomMin > c.ZoomMax {
		c.ZoomMin, c.ZoomMax = d.ZoomMin, d.ZoomMax
	}
	if c.ScaleCeiling < c.ZoomMax {
		c.ScaleCeiling = c.ZoomMax
	}
	pos(&c.TargetFill, d.TargetFill)
	nonneg(&c.SpeedZoomFalloff, d.SpeedZoomFalloff)
	nonneg(&c.DoubleClickBoost, d.DoubleClickBoost)
	if c.CategoryZoom == nil {
		c.CategoryZoom = d.CategoryZoom
	}

	nonneg(&c.ClickLead, d.ClickLead)
	pos(&c.FocusDuration, d.FocusDuration)
	nonneg(&c.MinClickInterval, d.MinClickInterval)
	nonneg(&c.ClusterRadius, d.ClusterRadius)
	nonneg(&c.ClusterWindow, d.ClusterWindow)
	pos(&c.ClusterEndGap, d.ClusterEndGap)
	pos(&c.IdleTimeout, d.IdleTimeout)
	pos(&c.FarDistance, d.FarDistance)
	nonneg(&c.HoldDuration, d.HoldDuration)
	pos(&c.DecayRamp, d.DecayRamp)
	atLeastOne(&c.IntermediateThreshold, d.IntermediateThreshold)
	atLeastOne(&c.IntermediateScale, d.IntermediateScale)
	pos(&c.IntermediateStage, d.IntermediateStage)

	pos(&c.DwellSpeed, d.DwellSpeed)
	nonneg(&c.DwellTime, d.DwellTime)
	pos(&c.SoftFocusTimeout, d.SoftFocusTimeout)
	atLeastOne(&c.SoftFocusZoom, d.SoftFocusZoom)
	nonneg(&c.Deadzone, d.Deadzone)
	if !ease.Finite(c.FollowThreshold) || c.FollowThreshold <= c.Deadzone {
		c.Deadzone, c.FollowThreshold = d.Deadzone, d.FollowThreshold
	}

	pos(&c.AnticipationWindow, d.AnticipationWindow)
	unit(&c.AnticipationAmount, d.AnticipationAmount)

	unit(&c.Composition, d.Composition)
	nonneg(&c.LookaheadTime, d.LookaheadTime)
	unit(&c.TrackingWeight, d.TrackingWeight)
	unit(&c.FocusSmoothing, d.FocusSmoothing)
	nonneg(&c.RotationGain, d.RotationGain)
	nonneg(&c.MaxRotation, d.MaxRotation)
	unit(&c.VignetteStrength, d.VignetteStrength)

	pos(&c.VelocityWindow, d.VelocityWindow)
	pos(&c.MaxCursorSpeed, d.MaxCursorSpeed)

	if c.SmoothingFrames < 0 || c.SmoothingFrames > ringSize {
		c.SmoothingFrames = d.SmoothingFrames
	}
	if !ease.Finite(c.MaxDt) || c.MaxDt <= 0 || c.MaxDt > spring.MaxDt {
		c.MaxDt = d.MaxDt
	}
	if !c.Springs.Scale.Valid() || c.Springs.Scale.Stiffness <= 0 {
		c.Springs.Scale = d.Springs.Scale
	}
	if !c.Springs.Pan.Valid() || c.Springs.Pan.Stiffness <= 0 {
		c.Springs.Pan = d.Springs.Pan
	}
	if !c.Springs.Rotation.Valid() || c.Springs.Rotation.Stiffness <= 0 {
		c.Springs.Rotation = d.Springs.Rotation
	}
	pos(&c.ConvergeEpsilon, d.ConvergeEpsilon)
	pos(&c.NeutralEpsilon, d.NeutralEpsilon)
	pos(&c.NeutralPixels, d.NeutralPixels)

	atLeastOne(&c.GestureZoomStep, d.GestureZoomStep)
	nonneg(&c.GesturePanStep, d.GesturePanStep)
	nonneg(&c.EmphasisDuration, d.EmphasisDuration)
	unit(&c.EmphasisVignette, d.EmphasisVignette)
	c.Intent = c.Intent.Normalize()
	c.Bias = c.Bias.Normalize()
	return c
}

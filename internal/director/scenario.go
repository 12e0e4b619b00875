package director

// Version is the scenario file format written by WriteScenario.
const Version = "2.0"

// Scenario is the exported camera plan for one or more recordings.
type Scenario struct {
	Version string  `yaml:"version" json:"version"`
	Tracks  []Track `yaml:"tracks" json:"tracks"`
}

// Track is the camera path over one recording.
type Track struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name,omitempty" json:"name,omitempty"`
	Input     string     `yaml:"input,omitempty" json:"input,omitempty"`
	Duration  float64    `yaml:"duration" json:"duration"` // seconds
	FPS       int        `yaml:"fps" json:"fps"`
	Width     int        `yaml:"width" json:"width"`
	Height    int        `yaml:"height" json:"height"`
	Episodes  int        `yaml:"episodes" json:"episodes"`
	Keyframes []Keyframe `yaml:"keyframes" json:"keyframes"`
}

// Keyframe is a camera transform at a moment of the recording. Between
// keyframes the path is linear.
type Keyframe struct {
	Time     float64   `yaml:"time" json:"time"`   // seconds
	Focus    string    `yaml:"focus" json:"focus"` // camera mode at this keyframe
	Zoom     float64   `yaml:"zoom" json:"zoom"`   // 1.0 = no zoom
	X        float64   `yaml:"x" json:"x"`         // translate, pixels
	Y        float64   `yaml:"y" json:"y"`         // translate, pixels
	Rotation float64   `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	Vignette float64   `yaml:"vignette,omitempty" json:"vignette,omitempty"`
	Rect     Rectangle `yaml:"rect" json:"rect"` // visible content region
}

// Rectangle is a region of the recording in pixels.
type Rectangle struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	W int `yaml:"w" json:"w"`
	H int `yaml:"h" json:"h"`
}

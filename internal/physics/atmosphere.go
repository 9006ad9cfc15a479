package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/meteorsim/internal/dynamo"
)

// Layer is one band of the tabulated atmosphere, valid from Altitude up to
// the next layer's altitude.
type Layer struct {
	Altitude    float64 `yaml:"altitude" json:"altitude"`       // m
	Density     float64 `yaml:"density" json:"density"`         // kg/m³
	Temperature float64 `yaml:"temperature" json:"temperature"` // K
	Wind        float64 `yaml:"wind" json:"wind"`               // m/s
}

// Conditions is the local atmospheric state at an altitude.
type Conditions struct {
	Altitude    float64 `json:"altitude"`
	Density     float64 `json:"density"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
	Wind        float64 `json:"wind"`
}

// StandardLayers is the default layer table, loosely following the US
// standard atmosphere up to the lower thermosphere.
var StandardLayers = []Layer{
	{Altitude: 0, Density: 1.225, Temperature: 288.15, Wind: 5},
	{Altitude: 11000, Density: 0.3639, Temperature: 216.65, Wind: 25},
	{Altitude: 20000, Density: 0.0880, Temperature: 216.65, Wind: 15},
	{Altitude: 32000, Density: 0.0132, Temperature: 228.65, Wind: 10},
	{Altitude: 47000, Density: 0.00143, Temperature: 270.65, Wind: 30},
	{Altitude: 51000, Density: 0.00086, Temperature: 270.65, Wind: 40},
	{Altitude: 71000, Density: 6.4e-5, Temperature: 214.65, Wind: 60},
	{Altitude: 86000, Density: 6.9e-6, Temperature: 186.87, Wind: 80},
	{Altitude: 100000, Density: 5.6e-7, Temperature: 195.08, Wind: 100},
	{Altitude: 150000, Density: 2.0e-9, Temperature: 634.39, Wind: 150},
	{Altitude: 200000, Density: 2.5e-10, Temperature: 854.56, Wind: 200},
	{Altitude: 300000, Density: 1.9e-11, Temperature: 976.01, Wind: 200},
	{Altitude: 400000, Density: 2.8e-12, Temperature: 995.83, Wind: 200},
}

// Atmosphere is an exponential profile floored by a coarse layer table.
// All methods are pure; an Atmosphere is safe for concurrent reads.
type Atmosphere struct {
	seaLevelDensity  float64
	seaLevelPressure float64
	scaleHeight      float64
	maxAltitude      float64
	layers           []Layer
}

// NewAtmosphere builds an atmosphere over the given layer table. Altitudes
// must be strictly increasing.
func NewAtmosphere(layers []Layer) (*Atmosphere, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("atmosphere needs at least one layer: %w", dynamo.ErrLayerOrder)
	}
	for i := 1; i < len(layers); i++ {
		if layers[i].Altitude <= layers[i-1].Altitude {
			return nil, fmt.Errorf("layer %d at %.0f m follows %.0f m: %w",
				i, layers[i].Altitude, layers[i-1].Altitude, dynamo.ErrLayerOrder)
		}
	}
	table := make([]Layer, len(layers))
	copy(table, layers)
	return &Atmosphere{
		seaLevelDensity:  SeaLevelDensity,
		seaLevelPressure: SeaLevelPressure,
		scaleHeight:      ScaleHeight,
		maxAltitude:      MaxAltitude,
		layers:           table,
	}, nil
}

// StandardAtmosphere returns the atmosphere over [StandardLayers].
func StandardAtmosphere() *Atmosphere {
	atm, err := NewAtmosphere(StandardLayers)
	if err != nil {
		panic(err)
	}
	return atm
}

func (a *Atmosphere) MaxAltitude() float64 { return a.maxAltitude }

// Layers returns a copy of the layer table.
func (a *Atmosphere) Layers() []Layer {
	out := make([]Layer, len(a.layers))
	copy(out, a.layers)
	return out
}

// Contains reports whether h (metres) lies inside the atmospheric envelope.
func (a *Atmosphere) Contains(h float64) bool {
	return h >= 0 && h <= a.maxAltitude
}

// layer returns the highest layer whose threshold is at or below h.
func (a *Atmosphere) layer(h float64) (Layer, bool) {
	for i := len(a.layers) - 1; i >= 0; i-- {
		if a.layers[i].Altitude <= h {
			return a.layers[i], true
		}
	}
	return Layer{}, false
}

// Density returns the air density in kg/m³ at altitude h metres. Inside
// the envelope the exponential curve never drops below the density of the
// enclosing layer.
func (a *Atmosphere) Density(h float64) float64 {
	if math.IsNaN(h) {
		return 0
	}
	if h < 0 {
		return a.seaLevelDensity
	}
	if h > a.maxAltitude {
		return 0
	}
	rho := a.seaLevelDensity * math.Exp(-h/a.scaleHeight)
	if l, ok := a.layer(h); ok {
		return math.Max(rho, l.Density)
	}
	return rho
}

// Pressure returns the air pressure in Pa at altitude h metres.
func (a *Atmosphere) Pressure(h float64) float64 {
	if math.IsNaN(h) {
		return 0
	}
	if h < 0 {
		return a.seaLevelPressure
	}
	if h > a.maxAltitude {
		return 0
	}
	return a.seaLevelPressure * math.Exp(-h/a.scaleHeight)
}

// Temperature returns the layer temperature in K at altitude h metres.
func (a *Atmosphere) Temperature(h float64) float64 {
	if h < 0 {
		return StandardTemperature
	}
	if h > a.maxAltitude || math.IsNaN(h) {
		return ExosphereTemperature
	}
	if l, ok := a.layer(h); ok {
		return l.Temperature
	}
	return StandardTemperature
}

// Wind returns the layer wind speed in m/s. It is reported for display only.
func (a *Atmosphere) Wind(h float64) float64 {
	if !a.Contains(h) {
		return 0
	}
	l, _ := a.layer(h)
	return l.Wind
}

// At returns every quantity at altitude h metres.
func (a *Atmosphere) At(h float64) Conditions {
	return Conditions{
		Altitude:    h,
		Density:     a.Density(h),
		Pressure:    a.Pressure(h),
		Temperature: a.Temperature(h),
		Wind:        a.Wind(h),
	}
}

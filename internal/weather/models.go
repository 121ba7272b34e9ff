package weather

import (
	"strings"

	"github.com/i474232898/raincheck/internal/common"
)

// Type is the coarse weather category used for display messages and sponsorship matching.
type Type string

const (
	TypeThunderstorm Type = "thunderstorm"
	TypeHeavyRain    Type = "heavy_rain"
	TypeLightRain    Type = "light_rain"
	TypeDrizzle      Type = "drizzle"
	TypeRain         Type = "rain"
	TypeHeavySnow    Type = "heavy_snow"
	TypeLightSnow    Type = "light_snow"
	TypeSnowy        Type = "snowy"
	TypeDenseFog     Type = "dense_fog"
	TypeFoggy        Type = "foggy"
	TypeClearSky     Type = "clear_sky"
	TypeSunny        Type = "sunny"
	TypeHotSunny     Type = "hot_sunny"
	TypeFewClouds    Type = "few_clouds"
	TypePartlyCloudy Type = "partly_cloudy"
	TypeBrokenClouds Type = "broken_clouds"
	TypeOvercast     Type = "overcast"
	TypeCloudy       Type = "cloudy"
	TypeFreezing     Type = "freezing"
	TypeDusty        Type = "dusty"
)

var knownTypes = map[Type]struct{}{
	TypeThunderstorm: {}, TypeHeavyRain: {}, TypeLightRain: {}, TypeDrizzle: {}, TypeRain: {},
	TypeHeavySnow: {}, TypeLightSnow: {}, TypeSnowy: {}, TypeDenseFog: {}, TypeFoggy: {},
	TypeClearSky: {}, TypeSunny: {}, TypeHotSunny: {}, TypeFewClouds: {}, TypePartlyCloudy: {},
	TypeBrokenClouds: {}, TypeOvercast: {}, TypeCloudy: {}, TypeFreezing: {}, TypeDusty: {},
}

// Valid reports whether t is one of the recognized categories.
func (t Type) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// IsRain reports whether the category means water is falling from the sky.
func (t Type) IsRain() bool {
	switch t {
	case TypeRain, TypeHeavyRain, TypeLightRain, TypeDrizzle, TypeThunderstorm:
		return true
	}
	return false
}

// ParseType normalizes a user supplied category tag.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Classify maps a free-text weather description and temperature (Celsius) to a category.
// Keyword rules are checked from most to least specific; temperature decides when
// no keyword matches.
func Classify(description string, temperatureC float64) Type {
	d := strings.ToLower(description)

	switch {
	case common.HasAny(d, "thunderstorm", "thunder"):
		return TypeThunderstorm
	case common.HasAny(d, "heavy rain", "violent rain"):
		return TypeHeavyRain
	case common.HasAny(d, "light rain", "slight rain"):
		return TypeLightRain
	case common.HasAny(d, "drizzle"):
		return TypeDrizzle
	case common.HasAny(d, "heavy snow", "blizzard"):
		return TypeHeavySnow
	case common.HasAny(d, "light snow", "slight snow"):
		return TypeLightSnow
	case common.HasAny(d, "snow"):
		return TypeSnowy
	case common.HasAny(d, "rain", "shower"):
		return TypeRain
	case common.HasAny(d, "dense fog", "thick fog"):
		return TypeDenseFog
	case common.HasAny(d, "fog", "mist", "haze"):
		return TypeFoggy
	case common.HasAny(d, "clear"):
		return TypeClearSky
	case common.HasAny(d, "sunny", "sunshine"):
		return TypeSunny
	case common.HasAny(d, "few clouds", "scattered clouds"):
		return TypeFewClouds
	case common.HasAny(d, "partly cloudy", "partly clear"):
		return TypePartlyCloudy
	case common.HasAny(d, "broken clouds", "variable clouds"):
		return TypeBrokenClouds
	case common.HasAny(d, "overcast", "cloudy"):
		return TypeOvercast
	case common.HasAny(d, "freezing", "ice"):
		return TypeFreezing
	case common.HasAny(d, "dust", "sandstorm"):
		return TypeDusty
	}

	switch {
	case temperatureC < -10:
		return TypeFreezing
	case temperatureC < 0:
		return TypeSnowy
	case temperatureC > 30:
		return TypeHotSunny
	case temperatureC > 20:
		return TypeSunny
	default:
		return TypeCloudy
	}
}

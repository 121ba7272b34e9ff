package weather

import (
	"fmt"
	"math"
	"strings"
)

// Picker chooses an index in [0, n).
type Picker interface {
	Intn(n int) int
}

var rainMessages = map[bool][]string{
	false: {
		"Yes, it's raining!",
		"Grab your umbrella!",
		"It's pouring outside!",
		"Rain, rain, go away!",
		"Time for indoor activities!",
		"The sky is crying!",
		"Wet weather ahead!",
		"Raindrops are falling!",
		"Better stay inside!",
		"It's a rainy day!",
	},
	true: {
		"Bloody hell, it's raining!",
		"Damn it, grab your umbrella!",
		"Crap, it's pouring outside!",
		"Rain, rain, go to hell!",
		"Time for indoor activities, dammit!",
		"The sky is crying like a baby!",
		"Wet weather ahead, what a pain!",
		"Raindrops are falling on my head!",
		"Better stay inside, this sucks!",
		"It's a crappy rainy day!",
	},
}

var dryMessages = map[Type]map[bool][]string{
	TypeClearSky: {
		false: {"No, it's not raining", "Crystal clear skies!", "Not a cloud in sight!"},
		true:  {"No, it's not raining", "Perfect clear weather, about damn time!", "Clear as a bell, thank God!"},
	},
	TypeSunny: {
		false: {"No, it's not raining", "Sunshine all around!", "Grab your sunglasses!"},
		true:  {"No, it's not raining", "Sun's out, finally, dammit!", "Bloody gorgeous sunshine!"},
	},
	TypeHotSunny: {
		false: {"No, it's not raining", "It's a hot one today!", "Stay hydrated!"},
		true:  {"No, it's not raining", "Hot as hell out there!", "Damn, it's scorching!"},
	},
	TypeSnowy: {
		false: {"No, it's snowing!", "Snow day!", "Bundle up!"},
		true:  {"No, it's bloody snowing!", "Snow, damn it!", "Freezing my butt off!"},
	},
	TypeFoggy: {
		false: {"No, it's not raining", "Foggy out there!", "Drive carefully!"},
		true:  {"No, it's not raining", "Can't see a damn thing!", "Fog as thick as hell!"},
	},
}

var defaultDry = map[bool][]string{
	false: {"No, it's not raining", "Dry as a bone!", "Leave the umbrella at home!"},
	true:  {"No, it's not raining", "Dry as hell!", "Leave the damn umbrella at home!"},
}

// FallbackMessage picks a generic message for the category from the static pool.
func FallbackMessage(t Type, profanity bool, p Picker) string {
	pool := fallbackPool(t, profanity)
	return pool[p.Intn(len(pool))]
}

func fallbackPool(t Type, profanity bool) []string {
	if t.IsRain() {
		return rainMessages[profanity]
	}
	switch t {
	case TypeHeavySnow, TypeLightSnow, TypeFreezing:
		t = TypeSnowy
	case TypeDenseFog:
		t = TypeFoggy
	}
	if byMode, ok := dryMessages[t]; ok {
		return byMode[profanity]
	}
	return defaultDry[profanity]
}

// Unit is a temperature display unit.
type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// ParseUnit accepts "C", "F", "celsius" or "fahrenheit" in any case.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "C", "CELSIUS":
		return Celsius, nil
	case "F", "FAHRENHEIT":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("unknown temperature unit %q", s)
	}
}

// ConvertTemperature converts a Celsius reading into the requested unit, rounded to one decimal.
func ConvertTemperature(celsius float64, unit Unit) float64 {
	v := celsius
	if unit == Fahrenheit {
		v = celsius*9/5 + 32
	}
	return math.Round(v*10) / 10
}

package domain

import "strings"

// Classification thresholds. Temperature bands are disjoint: hot is strictly
// above TempHotAbove, mild is the closed interval [TempMildMin, TempMildMax].
const (
	TempHotAbove    = 30.0
	TempMildMin     = 15.0
	TempMildMax     = 30.0
	HumidityNormMin = 40
	HumidityNormMax = 70
)

// Keyword lists matched as substrings of the lower-cased condition text.
// Order matters only for reporting the first match in Explain.
var (
	rainyKeywords = []string{"rain", "rainy", "drizzle", "shower", "thunderstorm", "storm"}
	sunnyKeywords = []string{"sunny", "clear", "bright", "sunshine"}
)

// FeatureVector is the 5-bit summary of an observation submitted for scoring.
type FeatureVector struct {
	OutlookRainy    bool `json:"outlook_rainy"`
	OutlookSunny    bool `json:"outlook_sunny"`
	TemperatureHot  bool `json:"temperature_hot"`
	TemperatureMild bool `json:"temperature_mild"`
	HumidityNormal  bool `json:"humidity_normal"`
}

// Convert maps an observation to its feature vector. Each rule is applied
// independently; nothing here enforces outlook exclusivity, so a condition
// such as "sunny with thunderstorm" sets both outlook flags.
func Convert(obs WeatherObservation) FeatureVector {
	condition := strings.ToLower(obs.Condition)
	_, rainy := firstMatch(condition, rainyKeywords)
	_, sunny := firstMatch(condition, sunnyKeywords)

	return FeatureVector{
		OutlookRainy:    rainy,
		OutlookSunny:    sunny,
		TemperatureHot:  obs.Temperature > TempHotAbove,
		TemperatureMild: obs.Temperature >= TempMildMin && obs.Temperature <= TempMildMax,
		HumidityNormal:  obs.Humidity >= HumidityNormMin && obs.Humidity <= HumidityNormMax,
	}
}

// Binary returns the vector as 0/1 values in the fixed wire order
// [rainy, sunny, hot, mild, normal_humidity].
func (v FeatureVector) Binary() [5]int {
	return [5]int{
		boolToInt(v.OutlookRainy),
		boolToInt(v.OutlookSunny),
		boolToInt(v.TemperatureHot),
		boolToInt(v.TemperatureMild),
		boolToInt(v.HumidityNormal),
	}
}

// ToBinarySequence is the free-function form of FeatureVector.Binary.
func ToBinarySequence(v FeatureVector) [5]int {
	return v.Binary()
}

// FeatureVectorFromBinary is the inverse of Binary. Any non-zero element is
// treated as set.
func FeatureVectorFromBinary(bits [5]int) FeatureVector {
	return FeatureVector{
		OutlookRainy:    bits[0] != 0,
		OutlookSunny:    bits[1] != 0,
		TemperatureHot:  bits[2] != 0,
		TemperatureMild: bits[3] != 0,
		HumidityNormal:  bits[4] != 0,
	}
}

func firstMatch(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

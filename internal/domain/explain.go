package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain renders one line per feature group describing the branch taken and
// the literal values compared against each threshold. The output depends only
// on its inputs, so identical inputs always produce identical bytes.
//
//	outlook: condition "Sunny" -> rainy=false (no keyword matched), sunny=true (matched "sunny")
//	temperature: 22°C -> hot=false (22 > 30), mild=true (15 <= 22 <= 30)
//	humidity: 55% -> normal=true (40 <= 55 <= 70)
func Explain(obs WeatherObservation, v FeatureVector) string {
	condition := strings.ToLower(obs.Condition)
	temp := formatFloat(obs.Temperature)

	lines := []string{
		fmt.Sprintf("outlook: condition %q -> rainy=%t (%s), sunny=%t (%s)",
			obs.Condition,
			v.OutlookRainy, keywordDetail(condition, rainyKeywords),
			v.OutlookSunny, keywordDetail(condition, sunnyKeywords),
		),
		fmt.Sprintf("temperature: %s°C -> hot=%t (%s > %s), mild=%t (%s <= %s <= %s)",
			temp,
			v.TemperatureHot, temp, formatFloat(TempHotAbove),
			v.TemperatureMild, formatFloat(TempMildMin), temp, formatFloat(TempMildMax),
		),
		fmt.Sprintf("humidity: %d%% -> normal=%t (%d <= %d <= %d)",
			obs.Humidity,
			v.HumidityNormal, HumidityNormMin, obs.Humidity, HumidityNormMax,
		),
	}
	return strings.Join(lines, "\n")
}

func keywordDetail(condition string, keywords []string) string {
	if kw, ok := firstMatch(condition, keywords); ok {
		return fmt.Sprintf("matched %q", kw)
	}
	return "no keyword matched"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

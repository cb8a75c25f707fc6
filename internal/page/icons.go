package page

import "github.com/cpuguy83/dailycommute/internal/weather"

// rainThreshold is the risk of rain above which the umbrella is shown.
const rainThreshold = 0.33

func weatherIcon(k weather.Kind) string {
	switch k {
	case weather.KindClearDay:
		return "Icons/Sun.svg"
	case weather.KindPartlyCloudyDay:
		return "Icons/Cloud-Sun.svg"
	case weather.KindClearNight:
		return "Icons/Moon.svg"
	case weather.KindPartlyCloudyNight:
		return "Icons/Cloud-Moon.svg"
	case weather.KindCloudy:
		return "Icons/Cloud.svg"
	case weather.KindFog:
		return "Icons/Cloud-Fog.svg"
	case weather.KindRain:
		return "Icons/Cloud-Rain.svg"
	case weather.KindSnow, weather.KindSleet:
		return "Icons/Cloud-Snow.svg"
	case weather.KindWind:
		return "Icons/Wind.svg"
	default:
		return "Icons/Compass.svg"
	}
}

// thermometerIcon picks the thermometer by the maximum temperature.
func thermometerIcon(hi int) string {
	switch {
	case hi < 5:
		return "Icons/Thermometer-Zero.svg"
	case hi < 10:
		return "Icons/Thermometer-25.svg"
	case hi < 20:
		return "Icons/Thermometer-50.svg"
	case hi < 30:
		return "Icons/Thermometer-75.svg"
	default:
		return "Icons/Thermometer-100.svg"
	}
}

func rainIcon(risk float64) string {
	if risk < rainThreshold {
		return "Icons/Shades.svg"
	}
	return "Icons/Umbrella.svg"
}

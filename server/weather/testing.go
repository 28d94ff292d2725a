package weather

type WeatherAPIStub struct {
	CurrentWeather      *Weather
	CurrentWeatherError error
}

func (api WeatherAPIStub) CurrentByCity(city string) (*Weather, error) {
	return api.CurrentWeather, api.CurrentWeatherError
}

package domain

// WeatherRecord is one snapshot of current conditions for a place,
// built fresh from a provider response and discarded after rendering.
type WeatherRecord struct {
	Country             string   `json:"country"`
	Region              string   `json:"region"`
	Lat                 float64  `json:"lat"`
	Lon                 float64  `json:"lon"`
	Temperature         int      `json:"temperature"` // °C (or per configured units)
	WeatherCode         int      `json:"weather_code"`
	WeatherDescriptions []string `json:"weather_descriptions"`
	WindSpeed           int      `json:"wind_speed"`
	WindDegree          int      `json:"wind_degree"`
	WindDir             string   `json:"wind_dir"` // compass abbreviation, e.g. "SSW"
	Pressure            int      `json:"pressure"`
	Precip              int      `json:"precip"`
	Humidity            int      `json:"humidity"`
	CloudCover          int      `json:"cloudcover"`
	FeelsLike           int      `json:"feelslike"`
	UVIndex             int      `json:"uv_index"`
	Visibility          int      `json:"visibility"`
	IsDay               bool     `json:"is_day"`
	LocalTime           int64    `json:"localtime"` // epoch seconds at the place
}

// User is the transport-assigned identity of a requester. Inserted into
// the store once per id, never updated.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

// Register is one persisted report event: the weather snapshot served,
// who asked for it and when. Append-only.
type Register struct {
	ID             int64         `json:"id"`
	UserID         int64         `json:"user_id"`
	Weather        WeatherRecord `json:"weather"`
	IsRealLocation bool          `json:"is_real_location"` // typed place name vs device coordinates
	ServerTime     int64         `json:"server_time"`      // epoch seconds when logged

	// Username comes from the users join on read-back; it is not a
	// column of the registers table.
	Username string `json:"username,omitempty"`
}

package dto

type LocationResponse struct {
	IP           string  `json:"ip"`
	CountryCode  string  `json:"country_code"`
	Country      string  `json:"country"`
	Region       string  `json:"region"`
	City         string  `json:"city"`
	Zip          string  `json:"zip"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LatitudeDMS  string  `json:"latitude_dms"`
	LongitudeDMS string  `json:"longitude_dms"`
	TimeZone     string  `json:"time_zone"`
	EUMember     bool    `json:"eu_member"`
	GDPR         bool    `json:"gdpr_territory"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
}

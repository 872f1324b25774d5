package domain

// EU member states keyed by ISO 3166-1 alpha-2 code. Read-only after init.
var euMembers = map[string]string{
	"AT": "Austria",
	"BE": "Belgium",
	"BG": "Bulgaria",
	"HR": "Croatia",
	"CY": "Cyprus",
	"CZ": "Czech Republic",
	"DK": "Denmark",
	"EE": "Estonia",
	"FI": "Finland",
	"FR": "France",
	"DE": "Germany",
	"GR": "Greece",
	"HU": "Hungary",
	"IE": "Ireland",
	"IT": "Italy",
	"LV": "Latvia",
	"LT": "Lithuania",
	"LU": "Luxembourg",
	"MT": "Malta",
	"NL": "Netherlands",
	"PL": "Poland",
	"PT": "Portugal",
	"RO": "Romania",
	"SK": "Slovakia",
	"SI": "Slovenia",
	"ES": "Spain",
	"SE": "Sweden",
}

// Territories outside the EU proper where GDPR rules still apply: EEA
// states, the UK and its crown dependencies, and EU overseas territories.
var gdprTerritories = map[string]string{
	"AX": "Åland Islands",
	"FO": "Faroe Islands",
	"GB": "United Kingdom",
	"GF": "French Guiana",
	"GG": "Guernsey",
	"GI": "Gibraltar",
	"GL": "Greenland",
	"GP": "Guadeloupe",
	"IM": "Isle of Man",
	"IS": "Iceland",
	"JE": "Jersey",
	"LI": "Liechtenstein",
	"MF": "Saint Martin",
	"MQ": "Martinique",
	"NO": "Norway",
	"PF": "French Polynesia",
	"PM": "Saint Pierre and Miquelon",
	"RE": "Réunion",
	"BL": "Saint Barthélemy",
	"TF": "French Southern Territories",
	"WF": "Wallis and Futuna",
	"YT": "Mayotte",
}

// Classify matches a two-letter country code (uppercase, case-sensitive)
// against the EU member table. With euMemberOnly the EU result is returned
// as-is; otherwise an EU miss falls back to the broader GDPR-territory
// table. A miss in both tables is a normal outcome, not an error.
//
// Both tables are immutable, so repeated classification is a pure O(1)
// recomputation and needs no memoization.
func Classify(countryCode string, euMemberOnly bool) (string, bool) {
	name, ok := euMembers[countryCode]
	if euMemberOnly || ok {
		return name, ok
	}

	name, ok = gdprTerritories[countryCode]
	return name, ok
}

// IsEUMember reports whether the code names an EU member state.
func IsEUMember(countryCode string) bool {
	_, ok := euMembers[countryCode]
	return ok
}

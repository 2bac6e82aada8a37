package config

// defaultStates is the census state registry: postal code to name and
// two-digit FIPS code.
func defaultStates() map[string]State {
	return map[string]State{
		"AL": {Name: "Alabama", FIPS: "01"},
		"AK": {Name: "Alaska", FIPS: "02"},
		"AZ": {Name: "Arizona", FIPS: "04"},
		"AR": {Name: "Arkansas", FIPS: "05"},
		"CA": {Name: "California", FIPS: "06"},
		"CO": {Name: "Colorado", FIPS: "08"},
		"CT": {Name: "Connecticut", FIPS: "09"},
		"DE": {Name: "Delaware", FIPS: "10"},
		"DC": {Name: "District of Columbia", FIPS: "11"},
		"FL": {Name: "Florida", FIPS: "12"},
		"GA": {Name: "Georgia", FIPS: "13"},
		"HI": {Name: "Hawaii", FIPS: "15"},
		"ID": {Name: "Idaho", FIPS: "16"},
		"IL": {Name: "Illinois", FIPS: "17"},
		"IN": {Name: "Indiana", FIPS: "18"},
		"IA": {Name: "Iowa", FIPS: "19"},
		"KS": {Name: "Kansas", FIPS: "20"},
		"KY": {Name: "Kentucky", FIPS: "21"},
		"LA": {Name: "Louisiana", FIPS: "22"},
		"ME": {Name: "Maine", FIPS: "23"},
		"MD": {Name: "Maryland", FIPS: "24"},
		"MA": {Name: "Massachusetts", FIPS: "25"},
		"MI": {Name: "Michigan", FIPS: "26"},
		"MN": {Name: "Minnesota", FIPS: "27"},
		"MS": {Name: "Mississippi", FIPS: "28"},
		"MO": {Name: "Missouri", FIPS: "29"},
		"MT": {Name: "Montana", FIPS: "30"},
		"NE": {Name: "Nebraska", FIPS: "31"},
		"NV": {Name: "Nevada", FIPS: "32"},
		"NH": {Name: "New Hampshire", FIPS: "33"},
		"NJ": {Name: "New Jersey", FIPS: "34"},
		"NM": {Name: "New Mexico", FIPS: "35"},
		"NY": {Name: "New York", FIPS: "36"},
		"NC": {Name: "North Carolina", FIPS: "37"},
		"ND": {Name: "North Dakota", FIPS: "38"},
		"OH": {Name: "Ohio", FIPS: "39"},
		"OK": {Name: "Oklahoma", FIPS: "40"},
		"OR": {Name: "Oregon", FIPS: "41"},
		"PA": {Name: "Pennsylvania", FIPS: "42"},
		"RI": {Name: "Rhode Island", FIPS: "44"},
		"SC": {Name: "South Carolina", FIPS: "45"},
		"SD": {Name: "South Dakota", FIPS: "46"},
		"TN": {Name: "Tennessee", FIPS: "47"},
		"TX": {Name: "Texas", FIPS: "48"},
		"UT": {Name: "Utah", FIPS: "49"},
		"VT": {Name: "Vermont", FIPS: "50"},
		"VA": {Name: "Virginia", FIPS: "51"},
		"WA": {Name: "Washington", FIPS: "53"},
		"WV": {Name: "West Virginia", FIPS: "54"},
		"WI": {Name: "Wisconsin", FIPS: "55"},
		"WY": {Name: "Wyoming", FIPS: "56"},
	}
}

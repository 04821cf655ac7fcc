package cohort

// Geographic bucket labels, ordered from most to least specific. Derivation
// is priority-ordered: the first matching rule wins.
const (
	GeoGedling    = "gedling"
	GeoNottingham = "nottingham-city"
	GeoEngland    = "england"
	GeoUKNational = "uk-national"
	GeoGlobal     = "global"
)

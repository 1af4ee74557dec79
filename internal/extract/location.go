package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

// Region labels.
const (
	RegionNorthAmerica = "North America"
	RegionEU           = "EU"
	RegionEurope       = "Europe"
	RegionAPAC         = "APAC"
	RegionLATAM        = "LATAM"
	RegionMEA          = "MEA"
	RegionGlobal       = "Global"

	remoteHQ = "Remote"
)

type hqTrigger struct {
	re *regexp.Regexp
	// needsPlace rejects captures that name no known country or city, so
	// "Ethereum-based" is not read as a headquarters.
	needsPlace bool
}

var hqTriggers = []hqTrigger{
	{re: regexp.MustCompile(`(?i)\bheadquartered in\s+([^.;:()\n]+)`)},
	{re: regexp.MustCompile(`(?i)\bheadquarters (?:is |are )?(?:located )?in\s+([^.;:()\n]+)`)},
	{re: regexp.MustCompile(`(?i)\bbased (?:out of|in)\s+([^.;:()\n]+)`)},
	{re: regexp.MustCompile(`\b((?:[A-Z][a-z]+|[A-Z]{2,3})(?: [A-Z][a-z]+)?)-based\b`), needsPlace: true},
}

// connectives end a captured place phrase.
var connectives = map[string]bool{
	"and": true, "with": true, "where": true, "that": true, "which": true,
	"since": true, "but": true, "while": true, "as": true, "for": true,
	"to": true, "is": true, "was": true, "has": true, "it": true, "its": true,
	"offering": true, "providing": true, "serving": true, "who": true,
	"the": true, "a": true, "an": true, "by": true, "from": true, "of": true,
	"company": true, "startup": true, "firm": true, "platform": true,
}

// knownPlaceSuffixes may follow a city after a comma ("Austin, Texas").
var knownPlaceSuffixes = map[string]bool{}

func init() {
	for _, c := range countryTable {
		knownPlaceSuffixes[strings.ToLower(c.country)] = true
	}
	for _, s := range usStates {
		knownPlaceSuffixes[strings.ToLower(s)] = true
	}
	for _, a := range []string{"usa", "us", "u.s.", "uk", "u.k.", "uae", "ny", "ca", "tx", "fl", "ma", "wa", "il", "de"} {
		knownPlaceSuffixes[a] = true
	}
}

var usStates = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
	"Connecticut", "Delaware", "Florida", "Georgia", "Hawaii", "Idaho", "Illinois",
	"Indiana", "Iowa", "Kansas", "Kentucky", "Louisiana", "Maine", "Maryland",
	"Massachusetts", "Michigan", "Minnesota", "Mississippi", "Missouri",
	"Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
	"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio",
	"Oklahoma", "Oregon", "Pennsylvania", "Rhode Island", "South Carolina",
	"South Dakota", "Tennessee", "Texas", "Utah", "Vermont", "Virginia",
	"Washington", "West Virginia", "Wisconsin", "Wyoming",
}

type countryPattern struct {
	country string
	region  string
	re      *regexp.Regexp
	// mask blanks phrases that contain the pattern but name somewhere else.
	mask *regexp.Regexp
}

func cp(country, region, pattern string) countryPattern {
	return countryPattern{country: country, region: region, re: regexp.MustCompile(pattern)}
}

func (c countryPattern) matches(s string) bool {
	if c.mask != nil {
		s = c.mask.ReplaceAllString(s, " ")
	}
	return c.re.MatchString(s)
}

// countryTable is ordered: more specific cities and countries come before
// the United States, whose state names would otherwise shadow them.
var countryTable = []countryPattern{
	cp("United Kingdom", RegionEurope, `(?i)\b(?:united kingdom|england|scotland|wales|london|manchester|edinburgh|britain)\b|(?-i:\bU\.?K\b)`),
	cp("Switzerland", RegionEurope, `(?i)\b(?:switzerland|zurich|zürich|zug|geneva|basel|lugano)\b`),
	cp("Germany", RegionEU, `(?i)\b(?:germany|berlin|frankfurt|munich|hamburg)\b`),
	cp("France", RegionEU, `(?i)\b(?:france|paris|lyon)\b`),
	cp("Netherlands", RegionEU, `(?i)\b(?:netherlands|amsterdam|rotterdam|the hague)\b`),
	cp("Ireland", RegionEU, `(?i)\b(?:ireland|dublin)\b`),
	cp("Luxembourg", RegionEU, `(?i)\bluxembourg\b`),
	cp("Spain", RegionEU, `(?i)\b(?:spain|madrid|barcelona)\b`),
	cp("Italy", RegionEU, `(?i)\b(?:italy|milan|rome)\b`),
	cp("Portugal", RegionEU, `(?i)\b(?:portugal|lisbon)\b`),
	cp("Belgium", RegionEU, `(?i)\b(?:belgium|brussels)\b`),
	cp("Austria", RegionEU, `(?i)\b(?:austria|vienna)\b`),
	cp("Sweden", RegionEU, `(?i)\b(?:sweden|stockholm)\b`),
	cp("Denmark", RegionEU, `(?i)\b(?:denmark|copenhagen)\b`),
	cp("Finland", RegionEU, `(?i)\b(?:finland|helsinki)\b`),
	cp("Estonia", RegionEU, `(?i)\b(?:estonia|tallinn)\b`),
	cp("Lithuania", RegionEU, `(?i)\b(?:lithuania|vilnius)\b`),
	cp("Poland", RegionEU, `(?i)\b(?:poland|warsaw)\b`),
	cp("Malta", RegionEU, `(?i)\bmalta\b`),
	cp("Cyprus", RegionEU, `(?i)\b(?:cyprus|limassol)\b`),
	cp("Norway", RegionEurope, `(?i)\b(?:norway|oslo)\b`),
	cp("Liechtenstein", RegionEurope, `(?i)\bliechtenstein\b`),
	cp("Gibraltar", RegionEurope, `(?i)\bgibraltar\b`),
	cp("Ukraine", RegionEurope, `(?i)\b(?:ukraine|kyiv|kiev)\b`),
	cp("Singapore", RegionAPAC, `(?i)\bsingapore\b`),
	cp("Hong Kong", RegionAPAC, `(?i)\bhong kong\b`),
	cp("Japan", RegionAPAC, `(?i)\b(?:japan|tokyo|osaka)\b`),
	cp("South Korea", RegionAPAC, `(?i)\b(?:south korea|korea|seoul)\b`),
	cp("China", RegionAPAC, `(?i)\b(?:china|beijing|shanghai|shenzhen)\b`),
	cp("Taiwan", RegionAPAC, `(?i)\b(?:taiwan|taipei)\b`),
	cp("India", RegionAPAC, `(?i)\b(?:india|bangalore|bengaluru|mumbai|new delhi|delhi)\b`),
	cp("Australia", RegionAPAC, `(?i)\b(?:australia|sydney|melbourne|brisbane)\b`),
	cp("New Zealand", RegionAPAC, `(?i)\b(?:new zealand|auckland)\b`),
	cp("Indonesia", RegionAPAC, `(?i)\b(?:indonesia|jakarta)\b`),
	cp("Thailand", RegionAPAC, `(?i)\b(?:thailand|bangkok)\b`),
	cp("Vietnam", RegionAPAC, `(?i)\b(?:vietnam|hanoi|ho chi minh)\b`),
	cp("Philippines", RegionAPAC, `(?i)\b(?:philippines|manila)\b`),
	cp("Malaysia", RegionAPAC, `(?i)\b(?:malaysia|kuala lumpur)\b`),
	cp("United Arab Emirates", RegionMEA, `(?i)\b(?:united arab emirates|dubai|abu dhabi)\b|(?-i:\bUAE\b)`),
	cp("Saudi Arabia", RegionMEA, `(?i)\b(?:saudi arabia|riyadh)\b`),
	cp("Israel", RegionMEA, `(?i)\b(?:israel|tel aviv)\b`),
	cp("Bahrain", RegionMEA, `(?i)\bbahrain\b`),
	cp("Qatar", RegionMEA, `(?i)\b(?:qatar|doha)\b`),
	cp("Turkey", RegionMEA, `(?i)\b(?:turkey|türkiye|istanbul)\b`),
	cp("Nigeria", RegionMEA, `(?i)\b(?:nigeria|lagos)\b`),
	cp("Kenya", RegionMEA, `(?i)\b(?:kenya|nairobi)\b`),
	cp("South Africa", RegionMEA, `(?i)\b(?:south africa|johannesburg|cape town)\b`),
	cp("Egypt", RegionMEA, `(?i)\b(?:egypt|cairo)\b`),
	cp("Brazil", RegionLATAM, `(?i)\b(?:brazil|são paulo|sao paulo|rio de janeiro)\b`),
	{country: "Mexico", region: RegionLATAM, re: regexp.MustCompile(`(?i)\b(?:mexico city|mexico)\b`), mask: regexp.MustCompile(`(?i)\bnew mexico\b`)},
	cp("Argentina", RegionLATAM, `(?i)\b(?:argentina|buenos aires)\b`),
	cp("Chile", RegionLATAM, `(?i)\b(?:chile|santiago)\b`),
	cp("Colombia", RegionLATAM, `(?i)\b(?:colombia|bogotá|bogota|medellín|medellin)\b`),
	cp("Peru", RegionLATAM, `(?i)\b(?:peru|lima)\b`),
	cp("El Salvador", RegionLATAM, `(?i)\b(?:el salvador|san salvador)\b`),
	cp("Uruguay", RegionLATAM, `(?i)\b(?:uruguay|montevideo)\b`),
	cp("Cayman Islands", RegionGlobal, `(?i)\bcayman islands\b`),
	cp("Bermuda", RegionGlobal, `(?i)\bbermuda\b`),
	cp("Bahamas", RegionGlobal, `(?i)\bbahamas\b|\bnassau\b`),
	cp("British Virgin Islands", RegionGlobal, `(?i)\bbritish virgin islands\b|(?-i:\bBVI\b)`),
	cp("Canada", RegionNorthAmerica, `(?i)\b(?:canada|toronto|vancouver|montreal|ottawa|calgary)\b`),
	cp("United States", RegionNorthAmerica, `(?i)\b(?:united states|new york|nyc|san francisco|silicon valley|los angeles|chicago|boston|miami|austin|seattle|denver|atlanta|palo alto|menlo park|mountain view|brooklyn|wilmington|dallas|houston|salt lake city|`+strings.ToLower(strings.Join(usStates, "|"))+`)\b|(?-i:\bU\.S\.(?:A\.)?|\bUSA?\b)`),
}

var regionByCountry = func() map[string]string {
	m := make(map[string]string, len(countryTable))
	for _, c := range countryTable {
		m[c.country] = c.region
	}
	return m
}()

// RegionForCountry returns the region label of a country, or Global.
func RegionForCountry(country string) string {
	if r, ok := regionByCountry[country]; ok {
		return r
	}
	return RegionGlobal
}

// DetectCountry returns the first country whose pattern matches s.
func DetectCountry(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	for _, c := range countryTable {
		if c.matches(s) {
			return c.country
		}
	}
	return ""
}

// ExtractLocationFromText infers headquarters, country and region from a
// company description.
func ExtractLocationFromText(text string) model.Location {
	hq, suffix := findHeadquarters(text)

	// "Paris, Texas" is in Texas: the suffix outranks the city.
	country := DetectCountry(suffix)
	if country == "" {
		country = DetectCountry(hq)
	}
	if country == "" {
		country = DetectCountry(text)
	}

	loc := model.Location{Headquarters: hq, Country: country, Region: RegionForCountry(country)}
	if loc.Headquarters == "" {
		if country != "" {
			loc.Headquarters = country
		} else {
			loc.Headquarters = remoteHQ
		}
	}
	return loc
}

// findHeadquarters returns the headquarters phrase and, when it carries
// one, its known-place suffix ("Austin, Texas" and "Texas").
func findHeadquarters(text string) (string, string) {
	for _, t := range hqTriggers {
		m := t.re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		raw := text[m[2]:m[3]]
		// A ", Texas" style suffix is kept only when it names a known place.
		head, suffix, hasComma := strings.Cut(raw, ",")
		place := trimPlace(head)
		if place == "" || (t.needsPlace && DetectCountry(place) == "") {
			continue
		}
		if hasComma {
			suffix, _, _ = strings.Cut(suffix, ",")
			if s := trimPlace(suffix); knownPlaceSuffixes[strings.ToLower(s)] {
				return place + ", " + s, s
			}
		}
		return place, ""
	}
	return "", ""
}

// trimPlace cuts a captured phrase at the first connective word and strips
// stray punctuation.
func trimPlace(s string) string {
	words := strings.Fields(s)
	var kept []string
	for i, w := range words {
		lw := strings.ToLower(strings.Trim(w, ",'\""))
		if connectives[lw] && i > 0 {
			break
		}
		if connectives[lw] {
			continue
		}
		kept = append(kept, strings.Trim(w, ",'\""))
		if len(kept) == 4 {
			break
		}
	}
	return strings.Trim(strings.Join(kept, " "), " ,-")
}

package teams

import (
	"math"
	"sort"
	"strings"
)

// Conference membership
type Conference string

// Conferences
const (
	East Conference = "East"
	West Conference = "West"
)

const earthRadiusMiles = 3956.0

// Team is static metadata for one franchise
type Team struct {
	Code       string
	Name       string
	Nickname   string
	Conference Conference
	Lat        float64
	Lon        float64
}

// Catalog is a read-only team lookup built once and passed to consumers
type Catalog struct {
	byCode map[string]Team
	byName map[string]string
}

var nbaTeams = []Team{
	{"ATL", "Atlanta Hawks", "Hawks", East, 33.76, -84.40},
	{"BOS", "Boston Celtics", "Celtics", East, 42.37, -71.06},
	{"BKN", "Brooklyn Nets", "Nets", East, 40.68, -73.98},
	{"CHA", "Charlotte Hornets", "Hornets", East, 35.23, -80.84},
	{"CHI", "Chicago Bulls", "Bulls", East, 41.88, -87.63},
	{"CLE", "Cleveland Cavaliers", "Cavaliers", East, 41.50, -81.69},
	{"DAL", "Dallas Mavericks", "Mavericks", West, 32.79, -96.81},
	{"DEN", "Denver Nuggets", "Nuggets", West, 39.75, -105.00},
	{"DET", "Detroit Pistons", "Pistons", East, 42.34, -83.05},
	{"GSW", "Golden State Warriors", "Warriors", West, 37.77, -122.20},
	{"HOU", "Houston Rockets", "Rockets", West, 29.76, -95.36},
	{"IND", "Indiana Pacers", "Pacers", East, 39.76, -86.16},
	{"LAC", "LA Clippers", "Clippers", West, 34.04, -118.27},
	{"LAL", "Los Angeles Lakers", "Lakers", West, 34.04, -118.27},
	{"MEM", "Memphis Grizzlies", "Grizzlies", West, 35.14, -90.05},
	{"MIA", "Miami Heat", "Heat", East, 25.78, -80.19},
	{"MIL", "Milwaukee Bucks", "Bucks", East, 43.04, -87.92},
	{"MIN", "Minnesota Timberwolves", "Timberwolves", West, 44.98, -93.28},
	{"NOP", "New Orleans Pelicans", "Pelicans", West, 29.95, -90.08},
	{"NYK", "New York Knicks", "Knicks", East, 40.75, -73.99},
	{"OKC", "Oklahoma City Thunder", "Thunder", West, 35.47, -97.51},
	{"ORL", "Orlando Magic", "Magic", East, 28.54, -81.38},
	{"PHI", "Philadelphia 76ers", "76ers", East, 39.90, -75.17},
	{"PHX", "Phoenix Suns", "Suns", West, 33.45, -112.07},
	{"POR", "Portland Trail Blazers", "Blazers", West, 45.53, -122.67},
	{"SAC", "Sacramento Kings", "Kings", West, 38.58, -121.50},
	{"SAS", "San Antonio Spurs", "Spurs", West, 29.43, -98.44},
	{"TOR", "Toronto Raptors", "Raptors", East, 43.64, -79.38},
	{"UTA", "Utah Jazz", "Jazz", West, 40.77, -111.90},
	{"WAS", "Washington Wizards", "Wizards", East, 38.90, -77.02},
}

// Alternate names seen in external rating and odds feeds
var nameAliases = map[string]string{
	"Los Angeles Clippers": "LAC",
	"L.A. Clippers":        "LAC",
	"L.A. Lakers":          "LAL",
	"Trail Blazers":        "POR",
	"Sixers":               "PHI",
	"Philadelphia Sixers":  "PHI",
}

// NBA returns the catalog of the thirty NBA franchises
func NBA() *Catalog {
	return New(nbaTeams, nameAliases)
}

// New builds a catalog from team rows and extra name aliases
func New(rows []Team, aliases map[string]string) *Catalog {
	c := &Catalog{
		byCode: make(map[string]Team, len(rows)),
		byName: make(map[string]string, len(rows)*3+len(aliases)),
	}
	for _, t := range rows {
		c.byCode[t.Code] = t
		c.byName[normalizeName(t.Name)] = t.Code
		c.byName[normalizeName(t.Nickname)] = t.Code
		c.byName[normalizeName(t.Code)] = t.Code
	}
	for name, code := range aliases {
		c.byName[normalizeName(name)] = code
	}
	return c
}

// Lookup returns the team for a code
func (c *Catalog) Lookup(code string) (Team, bool) {
	t, ok := c.byCode[strings.ToUpper(code)]
	return t, ok
}

// Known reports whether the code belongs to the catalog
func (c *Catalog) Known(code string) bool {
	_, ok := c.byCode[strings.ToUpper(code)]
	return ok
}

// CodeForName resolves a full name, nickname or alias to a team code
func (c *Catalog) CodeForName(name string) (string, bool) {
	code, ok := c.byName[normalizeName(name)]
	return code, ok
}

// Codes returns all team codes sorted
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.byCode))
	for code := range c.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// SameConference reports whether both teams are known and share a conference
func (c *Catalog) SameConference(a, b string) bool {
	ta, okA := c.Lookup(a)
	tb, okB := c.Lookup(b)
	return okA && okB && ta.Conference == tb.Conference
}

// DistanceMiles is the great-circle distance between two teams' home cities.
// Unknown teams yield 0.
func (c *Catalog) DistanceMiles(a, b string) float64 {
	ta, okA := c.Lookup(a)
	tb, okB := c.Lookup(b)
	if !okA || !okB {
		return 0
	}
	return Haversine(ta.Lat, ta.Lon, tb.Lat, tb.Lon)
}

// Haversine returns the great-circle distance in miles between two coordinates
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

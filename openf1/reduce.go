package openf1

import (
	"math"
	"slices"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchWindow is the date distance within which a session is a candidate
// regardless of its name.
const MatchWindow = 7 * 24 * time.Hour

// LatestPositions keeps the latest-timestamped record per driver, drops
// unclassified entries (position <= 0) and sorts by position.
func LatestPositions(raw []Position) []Position {
	latest := make(map[int]Position, 32)
	for _, p := range raw {
		cur, ok := latest[p.DriverNumber]
		if !ok || p.Date.After(cur.Date) {
			latest[p.DriverNumber] = p
		}
	}

	out := make([]Position, 0, len(latest))
	for _, p := range latest {
		if p.Position > 0 {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Position) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return a.DriverNumber - b.DriverNumber
	})
	return out
}

// FastestValidLap returns the quickest complete lap, or nil. A lap counts only
// with a positive duration, outside a pit-out lap and with all three sector
// times recorded.
func FastestValidLap(laps []Lap) *Lap {
	var fastest *Lap
	for i := range laps {
		l := &laps[i]
		if !validLap(l) {
			continue
		}
		if fastest == nil || l.Duration() < fastest.Duration() {
			fastest = l
		}
	}
	if fastest == nil {
		return nil
	}
	ret := *fastest
	return &ret
}

func validLap(l *Lap) bool {
	return l.Duration() > 0 &&
		!l.IsPitOutLap &&
		l.DurationSector1 != nil &&
		l.DurationSector2 != nil &&
		l.DurationSector3 != nil
}

var nameNoise = []string{"gran premio de ", "grand prix of ", "grand prix", "gran premio"}

// NormalizeRaceName lowercases, removes accents and strips generic
// "grand prix" wording so "Gran Premio de México" becomes "mexico".
func NormalizeRaceName(name string) string {
	s := foldText(name)
	for _, n := range nameNoise {
		s = strings.ReplaceAll(s, n, " ")
	}
	words := strings.Fields(s)
	words = slices.DeleteFunc(words, func(w string) bool { return w == "gp" })
	return strings.Join(words, " ")
}

func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// MatchSessions filters sessions that match the race by place name or by
// being within MatchWindow of raceDate, closest date first.
func MatchSessions(sessions []Session, raceName string, raceDate time.Time) []Session {
	name := NormalizeRaceName(raceName)

	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if nameMatches(name, s) || distance(s.DateStart, raceDate) <= MatchWindow {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b Session) int {
		da, db := distance(a.DateStart, raceDate), distance(b.DateStart, raceDate)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})
	return out
}

func nameMatches(name string, s Session) bool {
	if name == "" {
		return false
	}
	for _, place := range []string{s.Location, s.CountryName} {
		p := foldText(place)
		if p == "" {
			continue
		}
		if strings.Contains(p, name) || strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func distance(a, b time.Time) time.Duration {
	return time.Duration(math.Abs(float64(a.Sub(b))))
}

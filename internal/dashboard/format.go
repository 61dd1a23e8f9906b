package dashboard

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/busontime/busontime/internal/models"
)

type phrasing struct {
	arrivingNow string
	noInfo      string
	noInfoHint  string
	loading     string
	duration    func(minutes, seconds int) string
	stopsAway   func(n int) string
	route       func(no, kind string) string
}

var phrasings = []phrasing{
	{
		arrivingNow: "arriving now",
		noInfo:      "no information",
		noInfoHint:  "service has ended or no bus serves this stop",
		loading:     "updating...",
		duration: func(m, s int) string {
			if s == 0 {
				return plural(m, "minute")
			}
			return plural(m, "minute") + " " + plural(s, "second")
		},
		stopsAway: func(n int) string {
			return plural(n, "stop") + " away"
		},
		route: func(no, kind string) string {
			if kind == "" {
				return "Bus " + no
			}
			return fmt.Sprintf("Bus %s (%s)", no, kind)
		},
	},
	{
		arrivingNow: "곧 도착",
		noInfo:      "정보 없음",
		noInfoHint:  "운행이 종료되었거나, 해당 정류소에 도착하는 버스가 없습니다.",
		loading:     "갱신 중...",
		duration: func(m, s int) string {
			if s == 0 {
				return fmt.Sprintf("%d분 후", m)
			}
			return fmt.Sprintf("%d분 %d초 후", m, s)
		},
		stopsAway: func(n int) string {
			return fmt.Sprintf("%d 정거장 전", n)
		},
		route: func(no, kind string) string {
			if kind == "" {
				return no + "번"
			}
			return fmt.Sprintf("%s번 (%s)", no, kind)
		},
	},
}

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Korean,
})

// Formatter renders arrival values in one locale's phrasing.
type Formatter struct {
	tag language.Tag
	p   phrasing
}

// NewFormatter picks the closest supported locale to the given BCP 47
// tags, falling back to English.
func NewFormatter(locales ...string) *Formatter {
	tag, idx := language.MatchStrings(localeMatcher, locales...)
	return &Formatter{tag: tag, p: phrasings[idx]}
}

// Locale returns the matched language tag.
func (f *Formatter) Locale() language.Tag {
	return f.tag
}

// Arrival formats seconds until arrival. Under a minute reads as arriving now.
func (f *Formatter) Arrival(seconds int) string {
	if seconds < 60 {
		return f.p.arrivingNow
	}
	return f.p.duration(seconds/60, seconds%60)
}

func (f *Formatter) StopsAway(n int) string {
	return f.p.stopsAway(n)
}

func (f *Formatter) Route(a models.BusArrival) string {
	return f.p.route(a.RouteNo.String(), a.RouteType)
}

func (f *Formatter) NoInformation() string {
	return f.p.noInfo
}

func (f *Formatter) NoInformationHint() string {
	return f.p.noInfoHint
}

func (f *Formatter) Loading() string {
	return f.p.loading
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

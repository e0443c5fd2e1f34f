// Package calendar computes the current US equity trading session and the
// poll cadence / cache lifetime recommendations derived from it.
//
// Sessions are recomputed from wall-clock time on every query. Nothing is
// persisted, so the classification can never drift from the actual clock.
package calendar

import (
	"time"

	"github.com/rs/zerolog"
)

// Phase identifies the current trading session phase.
type Phase string

const (
	PhasePreMarket     Phase = "pre-market"
	PhaseRegular       Phase = "regular"
	PhaseAfterHours    Phase = "after-hours"
	PhaseClosedWeekday Phase = "closed-weekday"
	PhaseClosedWeekend Phase = "closed-weekend"
	PhaseClosedHoliday Phase = "closed-holiday"
)

// Category identifies a cached data category. Each category has its own
// poll cadence and cache lifetime.
type Category string

const (
	CategoryQuotes        Category = "quotes"
	CategoryDividends     Category = "dividends"
	CategoryExtendedHours Category = "extended-hours"
	CategoryNews          Category = "news"
	CategoryMetadata      Category = "metadata"
)

// AssetClass distinguishes exchange-traded equities from always-open markets.
type AssetClass string

const (
	AssetClassEquity AssetClass = "equity"
	AssetClassCrypto AssetClass = "crypto"
)

// cryptoPollInterval is the fixed cadence for always-open asset classes,
// independent of the equity session phase.
const cryptoPollInterval = 30 * time.Second

// Session describes the trading session at a single instant.
type Session struct {
	Phase        Phase
	At           time.Time // Evaluation instant, in Eastern time
	NextOpenAt   time.Time // Next regular-session open (09:30 ET on a trading day)
	IsEarlyClose bool      // True on 13:00 ET early-close dates

	pollIntervals map[Category]time.Duration
	cacheTTLs     map[Category]time.Duration
}

// IsTrading returns true during pre-market, regular, or after-hours.
func (s Session) IsTrading() bool {
	switch s.Phase {
	case PhasePreMarket, PhaseRegular, PhaseAfterHours:
		return true
	}
	return false
}

// PollInterval returns the recommended poll cadence for a category.
// A zero duration means the category should not be polled in this phase.
func (s Session) PollInterval(category Category) time.Duration {
	return s.pollIntervals[category]
}

// CacheTTL returns the recommended cache lifetime for a category.
func (s Session) CacheTTL(category Category) time.Duration {
	return s.cacheTTLs[category]
}

// RecommendedTick returns the subscription loop period: the fastest
// non-suspended category cadence, or the fixed crypto cadence for
// always-open asset classes.
func (s Session) RecommendedTick(assetClass AssetClass) time.Duration {
	if assetClass == AssetClassCrypto {
		return cryptoPollInterval
	}

	tick := time.Duration(0)
	for _, interval := range s.pollIntervals {
		if interval <= 0 {
			continue
		}
		if tick == 0 || interval < tick {
			tick = interval
		}
	}
	if tick == 0 {
		// Everything suspended - fall back to a slow idle cadence so the
		// loop still wakes up to notice the next session change.
		tick = 5 * time.Minute
	}
	return tick
}

// Calendar classifies instants into trading sessions using a static
// holiday / early-close table.
type Calendar struct {
	loc         *time.Location
	holidays    map[string]string // "2006-01-02" -> holiday name
	earlyCloses map[string]string // "2006-01-02" -> reason
	log         zerolog.Logger
}

// New creates a calendar with the built-in NYSE holiday tables.
func New(log zerolog.Logger) *Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Without the tz database DST transitions are lost; a fixed EST
		// offset keeps session math usable.
		log.Warn().Err(err).Msg("America/New_York unavailable, using fixed EST offset")
		loc = time.FixedZone("EST", -5*60*60)
	}

	return &Calendar{
		loc:         loc,
		holidays:    builtinHolidays(),
		earlyCloses: builtinEarlyCloses(),
		log:         log.With().Str("component", "calendar").Logger(),
	}
}

// CurrentSession classifies the current wall-clock instant.
func (c *Calendar) CurrentSession(assetClass AssetClass) Session {
	return c.SessionAt(time.Now(), assetClass)
}

// SessionAt classifies an arbitrary instant.
//
// Boundary semantics: a boundary instant belongs to the later session, so
// 09:30:00 exactly is regular and 20:00:00 exactly is closed.
func (c *Calendar) SessionAt(t time.Time, assetClass AssetClass) Session {
	eastern := t.In(c.loc)
	dateKey := eastern.Format("2006-01-02")

	var phase Phase
	switch {
	case eastern.Weekday() == time.Saturday || eastern.Weekday() == time.Sunday:
		phase = PhaseClosedWeekend
	case c.isHoliday(dateKey):
		phase = PhaseClosedHoliday
	default:
		phase = c.weekdayPhase(eastern, dateKey)
	}

	_, isEarlyClose := c.earlyCloses[dateKey]

	session := Session{
		Phase:        phase,
		At:           eastern,
		NextOpenAt:   c.nextOpen(eastern),
		IsEarlyClose: isEarlyClose,
	}
	session.pollIntervals = pollIntervalsFor(phase, assetClass)
	session.cacheTTLs = cacheTTLsFor(phase)
	return session
}

// weekdayPhase classifies a non-holiday weekday instant by time of day.
func (c *Calendar) weekdayPhase(eastern time.Time, dateKey string) Phase {
	minute := eastern.Hour()*60 + eastern.Minute()

	closeMinute := 16 * 60
	if _, early := c.earlyCloses[dateKey]; early {
		closeMinute = 13 * 60
	}

	switch {
	case minute < 4*60:
		return PhaseClosedWeekday
	case minute < 9*60+30:
		return PhasePreMarket
	case minute < closeMinute:
		return PhaseRegular
	case minute < 20*60:
		return PhaseAfterHours
	default:
		return PhaseClosedWeekday
	}
}

// isHoliday checks the holiday table, warning once per lookup when the
// table has no entries for the year at all (misconfigured calendar).
func (c *Calendar) isHoliday(dateKey string) bool {
	if _, ok := c.holidays[dateKey]; ok {
		return true
	}

	year := dateKey[:4]
	if !c.hasYear(year) {
		c.log.Warn().Str("year", year).Msg("No holiday calendar for year, treating as ordinary weekday")
	}
	return false
}

func (c *Calendar) hasYear(year string) bool {
	for k := range c.holidays {
		if k[:4] == year {
			return true
		}
	}
	return false
}

// nextOpen finds the next 09:30 ET on a trading day, scanning up to 30 days
// ahead.
func (c *Calendar) nextOpen(eastern time.Time) time.Time {
	for i := 0; i < 30; i++ {
		day := eastern.AddDate(0, 0, i)
		open := time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, c.loc)
		if i == 0 && !eastern.Before(open) {
			continue
		}
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		if _, holiday := c.holidays[day.Format("2006-01-02")]; holiday {
			continue
		}
		return open
	}
	// Unreachable with a sane calendar; zero value signals "unknown".
	return time.Time{}
}

// pollIntervalsFor returns per-category poll cadences for a phase.
// Quotes poll fastest during the regular session, at a medium cadence in
// extended hours, and slowly while closed. Extended-hours prices are only
// fetched while an extended session is actually running. Zero disables a
// category for the phase.
func pollIntervalsFor(phase Phase, assetClass AssetClass) map[Category]time.Duration {
	if assetClass == AssetClassCrypto {
		return map[Category]time.Duration{
			CategoryQuotes:    cryptoPollInterval,
			CategoryDividends: 24 * time.Hour,
			CategoryNews:      10 * time.Minute,
			CategoryMetadata:  time.Hour,
		}
	}

	switch phase {
	case PhaseRegular:
		return map[Category]time.Duration{
			CategoryQuotes:    15 * time.Second,
			CategoryDividends: 24 * time.Hour,
			CategoryNews:      5 * time.Minute,
			CategoryMetadata:  time.Hour,
		}
	case PhasePreMarket, PhaseAfterHours:
		return map[Category]time.Duration{
			CategoryQuotes:        time.Minute,
			CategoryExtendedHours: time.Minute,
			CategoryDividends:     24 * time.Hour,
			CategoryNews:          10 * time.Minute,
			CategoryMetadata:      time.Hour,
		}
	default:
		return map[Category]time.Duration{
			CategoryQuotes:    5 * time.Minute,
			CategoryDividends: 24 * time.Hour,
			CategoryNews:      30 * time.Minute,
			CategoryMetadata:  6 * time.Hour,
		}
	}
}

// cacheTTLsFor returns per-category cache lifetimes for a phase.
// Lifetimes track the poll cadence for fast-moving data and stay long for
// slow-moving fundamentals.
func cacheTTLsFor(phase Phase) map[Category]time.Duration {
	quoteTTL := 15 * time.Second
	switch phase {
	case PhasePreMarket, PhaseAfterHours:
		quoteTTL = time.Minute
	case PhaseClosedWeekday, PhaseClosedWeekend, PhaseClosedHoliday:
		quoteTTL = 10 * time.Minute
	}

	return map[Category]time.Duration{
		CategoryQuotes:        quoteTTL,
		CategoryExtendedHours: time.Minute,
		CategoryDividends:     24 * time.Hour,
		CategoryNews:          10 * time.Minute,
		CategoryMetadata:      7 * 24 * time.Hour,
	}
}

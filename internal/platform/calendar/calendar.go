package calendar

import (
	"errors"
	"math"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/diagnosis/party-hub/internal/domain"
)

var ErrNoDate = errors.New("party has no date")

// Event renders a single-event iCalendar document for an invitation. Bare
// dates become all-day events; durations are in hours.
func Event(p *domain.Party, invitationURL string, loc *time.Location, now time.Time) (string, error) {
	start, allDay, ok := domain.ParsePartyTime(p.Date, loc)
	if !ok {
		return "", ErrNoDate
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Party Hub//Invitation//EN")

	ev := cal.AddEvent(p.ID + "@party-hub")
	ev.SetDtStampTime(now.UTC())
	ev.SetSummary(p.Name)
	if p.Location != "" {
		ev.SetLocation(p.Location)
	}
	if invitationURL != "" {
		ev.SetURL(invitationURL)
		ev.SetDescription(invitationURL)
	}

	if allDay {
		days := int(math.Ceil(p.Duration / 24))
		if days < 1 {
			days = 1
		}
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(start.AddDate(0, 0, days))
	} else {
		d := time.Duration(p.Duration * float64(time.Hour))
		if d <= 0 {
			d = time.Hour
		}
		ev.SetStartAt(start.UTC())
		ev.SetEndAt(start.Add(d).UTC())
	}
	return cal.Serialize(), nil
}

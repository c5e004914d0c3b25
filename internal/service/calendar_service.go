package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-ical"

	"github.com/rohzb/gromex/internal/domain"
)

// CalendarService enumerates calendars and their events over an
// established session. Every call re-queries the server; nothing is
// cached across calls.
type CalendarService struct {
	sessions *SessionService
}

// NewCalendarService creates a calendar enumerator.
func NewCalendarService(sessions *SessionService) *CalendarService {
	return &CalendarService{sessions: sessions}
}

func (s *CalendarService) source() (CalendarSource, error) {
	src := s.sessions.Source()
	if src == nil {
		return nil, fmt.Errorf("%w: call Connect first", domain.ErrNotConnected)
	}
	return src, nil
}

// List returns the account's calendars exactly as the server reports
// them: server order, no filtering, no deduplication.
func (s *CalendarService) List(ctx context.Context) ([]domain.CalendarRef, error) {
	src, err := s.source()
	if err != nil {
		return nil, err
	}
	return src.Calendars(ctx)
}

// Events returns the calendar's full event set.
func (s *CalendarService) Events(ctx context.Context, ref domain.CalendarRef) ([]domain.EventRecord, error) {
	src, err := s.source()
	if err != nil {
		return nil, err
	}
	return src.Events(ctx, ref)
}

// Summary writes, per calendar, its name, supported component kinds, and
// VEVENT/VTODO item counts.
func (s *CalendarService) Summary(ctx context.Context, w io.Writer) error {
	refs, err := s.List(ctx)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		fmt.Fprintf(w, "Calendar Name: %s\n", ref.Name)
		fmt.Fprintf(w, "Supported Components: %s\n", strings.Join(ref.SupportedComponents, ", "))

		events, err := s.Events(ctx, ref)
		if err != nil {
			return err
		}

		eventCount, todoCount := countComponents(events)
		fmt.Fprintf(w, " - VEVENT (Events): %d items\n", eventCount)
		fmt.Fprintf(w, " - VTODO (Tasks): %d items\n", todoCount)
	}

	return nil
}

func countComponents(events []domain.EventRecord) (eventCount, todoCount int) {
	for _, ev := range events {
		if ev.Data == nil {
			continue
		}
		for _, comp := range ev.Data.Children {
			switch comp.Name {
			case ical.CompEvent:
				eventCount++
			case ical.CompToDo:
				todoCount++
			}
		}
	}
	return eventCount, todoCount
}

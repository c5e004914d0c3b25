package domain

import "github.com/emersion/go-ical"

// CalendarRef identifies one remote calendar as reported by the server.
type CalendarRef struct {
	Name string // Display name
	Path string // Collection path on the server

	// Component kinds the calendar accepts (e.g. VEVENT, VTODO).
	SupportedComponents []string
}

// EventRecord is one calendar object fetched from a calendar. Records are
// read-only: they are exported as-is, never mutated.
type EventRecord struct {
	UID  string         // Export key within the owning calendar
	Raw  []byte         // Serialized iCalendar form, written verbatim
	Data *ical.Calendar // Parsed form, used for combined export
}

// ExportRequest describes the on-disk layout of one export run.
type ExportRequest struct {
	BasePath     string
	SaveSeparate bool // One <UID>.ics file per event
	SaveCombined bool // One <stem>.ics file per calendar
}

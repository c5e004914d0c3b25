package service

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/emersion/go-ical"

	"github.com/rohzb/gromex/internal/domain"
)

// ExportService materializes enumerated calendars into the on-disk
// layout: <base>/<stem>.ics for combined export and <base>/<stem>/<UID>.ics
// for individual events. Writes overwrite silently; export is not atomic
// and already-written files are never rolled back.
type ExportService struct{}

// NewExportService creates an export engine.
func NewExportService() *ExportService {
	return &ExportService{}
}

// Stem derives the filesystem stem from a calendar's display name by
// replacing whitespace runes with underscores. No other sanitization;
// names that normalize to the same stem overwrite each other.
func Stem(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, name)
}

// Export writes one calendar's artifacts according to the request. With
// neither flag set it is a no-op. A rejected write aborts the calendar's
// remaining work.
func (s *ExportService) Export(ref domain.CalendarRef, events []domain.EventRecord, req domain.ExportRequest) error {
	if req.BasePath == "" {
		return fmt.Errorf("%w: destination path is empty", domain.ErrConfiguration)
	}
	if err := os.MkdirAll(req.BasePath, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrFilesystem, req.BasePath, err)
	}

	stem := Stem(ref.Name)

	if req.SaveSeparate {
		if err := s.saveSeparate(stem, events, req.BasePath); err != nil {
			return err
		}
	}

	if req.SaveCombined {
		if err := s.saveCombined(stem, events, req.BasePath); err != nil {
			return err
		}
	}

	return nil
}

func (s *ExportService) saveSeparate(stem string, events []domain.EventRecord, basePath string) error {
	dir := filepath.Join(basePath, stem)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrFilesystem, dir, err)
	}

	for _, ev := range events {
		target := filepath.Join(dir, ev.UID+".ics")
		if err := os.WriteFile(target, ev.Raw, 0o644); err != nil {
			return fmt.Errorf("%w: write %s: %v", domain.ErrFilesystem, target, err)
		}
	}

	log.Printf("Saved %d events to %s", len(events), dir)
	return nil
}

func (s *ExportService) saveCombined(stem string, events []domain.EventRecord, basePath string) error {
	cal := combine(events)

	var buf bytes.Buffer
	if len(cal.Children) == 0 {
		// go-ical refuses to encode a component without children; an
		// empty calendar still gets its container file.
		buf.WriteString("BEGIN:VCALENDAR\r\n")
		buf.WriteString("VERSION:2.0\r\n")
		buf.WriteString("PRODID:" + combinedProductID + "\r\n")
		buf.WriteString("END:VCALENDAR\r\n")
	} else if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return fmt.Errorf("%w: encode combined calendar: %v", domain.ErrFilesystem, err)
	}

	target := filepath.Join(basePath, stem+".ics")
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrFilesystem, target, err)
	}

	log.Printf("Saved combined calendar to %s", target)
	return nil
}

const combinedProductID = "-//gromex//Calendar Export//EN"

// combine merges every record's components into one calendar container.
// VTIMEZONE components are deduplicated by TZID; everything else is
// carried over untouched.
func combine(events []domain.EventRecord) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, combinedProductID)

	seenTZ := make(map[string]bool)
	for _, ev := range events {
		if ev.Data == nil {
			continue
		}
		for _, comp := range ev.Data.Children {
			if comp.Name == ical.CompTimezone {
				tzid := ""
				if prop := comp.Props.Get(ical.PropTimezoneID); prop != nil {
					tzid = prop.Value
				}
				if tzid != "" && seenTZ[tzid] {
					continue
				}
				seenTZ[tzid] = true
			}
			cal.Children = append(cal.Children, comp)
		}
	}

	return cal
}

// Package caldav wraps the CalDAV protocol client behind the three
// operations the exporter needs: open-session, list-calendars and
// list-events. Everything else about the wire protocol stays inside
// emersion/go-webdav.
package caldav

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/rohzb/gromex/internal/domain"
)

const (
	// Default Grommunio endpoint
	DefaultServerURL = "https://hope.helmholtz-berlin.de"

	requestTimeout = 30 * time.Second
)

// CollectionURL returns the account-scoped calendar collection URL for a
// Grommunio server.
func CollectionURL(serverURL, username string) string {
	return strings.TrimRight(serverURL, "/") + "/dav/calendars/" + username + "/Calendar/"
}

// Session is an authenticated handle to a CalDAV account. It is obtained
// once per run and never re-opened or closed; its lifetime is the process
// lifetime.
type Session struct {
	client  *caldav.Client
	homeSet string
}

// Open authenticates against the server and resolves the account's
// calendar home set. A 401 during discovery maps to
// domain.ErrAuthorization; every other failure maps to
// domain.ErrTransport.
func Open(ctx context.Context, serverURL, username, password string) (*Session, error) {
	transport := &basicAuthTransport{
		username: username,
		password: password,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	}

	client, err := caldav.NewClient(httpClient, CollectionURL(serverURL, username))
	if err != nil {
		return nil, fmt.Errorf("%w: connect to CalDAV: %v", domain.ErrTransport, err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, transport.classify("find principal", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, transport.classify("find calendar home set", err)
	}

	return &Session{client: client, homeSet: homeSet}, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests and remembers
// whether the server rejected the credentials, so that open failures can
// be told apart from transport faults.
type basicAuthTransport struct {
	username     string
	password     string
	unauthorized bool
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		t.unauthorized = true
	}
	return resp, err
}

func (t *basicAuthTransport) classify(op string, err error) error {
	if t.unauthorized {
		return fmt.Errorf("%w: %s", domain.ErrAuthorization, op)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrTransport, op, err)
}

// Calendars returns the account's calendars in server order, unfiltered.
func (s *Session) Calendars(ctx context.Context) ([]domain.CalendarRef, error) {
	cals, err := s.client.FindCalendars(ctx, s.homeSet)
	if err != nil {
		return nil, fmt.Errorf("%w: find calendars: %v", domain.ErrTransport, err)
	}

	refs := make([]domain.CalendarRef, 0, len(cals))
	for _, cal := range cals {
		name := cal.Name
		if name == "" {
			name = path.Base(strings.TrimRight(cal.Path, "/"))
		}
		refs = append(refs, domain.CalendarRef{
			Name:                name,
			Path:                cal.Path,
			SupportedComponents: cal.SupportedComponentSet,
		})
	}

	return refs, nil
}

// Events fetches the calendar's full object set. This is eager on
// purpose: the expected calendar sizes are account-scale, not bulk.
func (s *Session) Events(ctx context.Context, ref domain.CalendarRef) ([]domain.EventRecord, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
		},
	}

	objects, err := s.client.QueryCalendar(ctx, ref.Path, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query calendar %q: %v", domain.ErrTransport, ref.Name, err)
	}

	records := make([]domain.EventRecord, 0, len(objects))
	for i := range objects {
		rec, err := toEventRecord(&objects[i])
		if err != nil {
			continue // Skip objects without usable data
		}
		records = append(records, rec)
	}

	return records, nil
}

func toEventRecord(obj *caldav.CalendarObject) (domain.EventRecord, error) {
	if obj.Data == nil {
		return domain.EventRecord{}, fmt.Errorf("no data in calendar object %q", obj.Path)
	}

	uid := objectUID(obj.Data)
	if uid == "" {
		uid = strings.TrimSuffix(path.Base(obj.Path), ".ics")
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(obj.Data); err != nil {
		return domain.EventRecord{}, fmt.Errorf("encode calendar object %q: %w", obj.Path, err)
	}

	return domain.EventRecord{
		UID:  uid,
		Raw:  buf.Bytes(),
		Data: obj.Data,
	}, nil
}

// objectUID returns the UID of the first VEVENT or VTODO component.
func objectUID(cal *ical.Calendar) string {
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent && comp.Name != ical.CompToDo {
			continue
		}
		if prop := comp.Props.Get(ical.PropUID); prop != nil {
			return prop.Value
		}
	}
	return ""
}

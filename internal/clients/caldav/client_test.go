package caldav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohzb/gromex/internal/domain"
)

const testICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Example Corp.//CalDAV Server//EN
BEGIN:VEVENT
UID:%s
DTSTAMP:20240501T120000Z
DTSTART:20240502T090000Z
SUMMARY:%s
END:VEVENT
END:VCALENDAR`

func principalResponse() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<D:multistatus xmlns:D="DAV:">
 <D:response>
  <D:href>/dav/calendars/hiro/Calendar/</D:href>
  <D:propstat>
   <D:prop>
    <D:current-user-principal><D:href>/principals/hiro/</D:href></D:current-user-principal>
   </D:prop>
   <D:status>HTTP/1.1 200 OK</D:status>
  </D:propstat>
 </D:response>
</D:multistatus>`
}

func homeSetResponse() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
 <D:response>
  <D:href>/principals/hiro/</D:href>
  <D:propstat>
   <D:prop>
    <C:calendar-home-set><D:href>/dav/calendars/hiro/</D:href></C:calendar-home-set>
   </D:prop>
   <D:status>HTTP/1.1 200 OK</D:status>
  </D:propstat>
 </D:response>
</D:multistatus>`
}

func calendarsResponse() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
 <D:response>
  <D:href>/dav/calendars/hiro/</D:href>
  <D:propstat>
   <D:prop>
    <D:resourcetype><D:collection/></D:resourcetype>
   </D:prop>
   <D:status>HTTP/1.1 200 OK</D:status>
  </D:propstat>
 </D:response>
 <D:response>
  <D:href>/dav/calendars/hiro/Work/</D:href>
  <D:propstat>
   <D:prop>
    <D:resourcetype><D:collection/><C:calendar/></D:resourcetype>
    <D:displayname>Team Calendar</D:displayname>
    <C:supported-calendar-component-set>
     <C:comp name="VEVENT"/>
     <C:comp name="VTODO"/>
    </C:supported-calendar-component-set>
   </D:prop>
   <D:status>HTTP/1.1 200 OK</D:status>
  </D:propstat>
 </D:response>
 <D:response>
  <D:href>/dav/calendars/hiro/Personal/</D:href>
  <D:propstat>
   <D:prop>
    <D:resourcetype><D:collection/><C:calendar/></D:resourcetype>
    <D:displayname>Personal</D:displayname>
    <C:supported-calendar-component-set>
     <C:comp name="VEVENT"/>
    </C:supported-calendar-component-set>
   </D:prop>
   <D:status>HTTP/1.1 200 OK</D:status>
  </D:propstat>
 </D:response>
</D:multistatus>`
}

func queryResponse() string {
	object := func(path, uid, summary string) string {
		ics := fmt.Sprintf(testICS, uid, summary)
		return fmt.Sprintf(` <D:response>
  <D:href>%s</D:href>
  <D:propstat>
   <D:prop>
    <D:getetag>"%s"</D:getetag>
    <C:calendar-data>%s</C:calendar-data>
   </D:prop>
   <D:status>HTTP/1.1 200 OK</D:status>
  </D:propstat>
 </D:response>`, path, uid, ics)
	}

	return `<?xml version="1.0" encoding="UTF-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
` + object("/dav/calendars/hiro/Work/a.ics", "a", "Standup") + `
` + object("/dav/calendars/hiro/Work/b.ics", "b", "Review") + `
</D:multistatus>`
}

// newTestServer serves canned multistatus responses for the principal,
// home set, calendar listing and calendar-query requests the client makes.
func newTestServer(t *testing.T, password string) *httptest.Server {
	t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pass, ok := r.BasicAuth()
		if !ok || pass != password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		body, _ := io.ReadAll(r.Body)

		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.WriteHeader(http.StatusMultiStatus)

		switch {
		case r.Method == "REPORT":
			fmt.Fprint(w, queryResponse())
		case strings.Contains(string(body), "current-user-principal"):
			fmt.Fprint(w, principalResponse())
		case strings.Contains(string(body), "calendar-home-set"):
			fmt.Fprint(w, homeSetResponse())
		default:
			fmt.Fprint(w, calendarsResponse())
		}
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t, "secret")

	_, err := Open(context.Background(), srv.URL, "hiro", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthorization)
	assert.NotErrorIs(t, err, domain.ErrTransport)
}

func TestOpenClassifiesServerFaultAsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := Open(context.Background(), srv.URL, "hiro", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.NotErrorIs(t, err, domain.ErrAuthorization)
}

func TestOpenClassifiesUnreachableServerAsTransport(t *testing.T) {
	_, err := Open(context.Background(), "http://127.0.0.1:1", "hiro", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestCalendars(t *testing.T) {
	srv := newTestServer(t, "secret")

	session, err := Open(context.Background(), srv.URL, "hiro", "secret")
	require.NoError(t, err)

	refs, err := session.Calendars(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "Team Calendar", refs[0].Name)
	assert.Equal(t, "/dav/calendars/hiro/Work/", refs[0].Path)
	assert.Equal(t, []string{"VEVENT", "VTODO"}, refs[0].SupportedComponents)
	assert.Equal(t, "Personal", refs[1].Name)
}

func TestEvents(t *testing.T) {
	srv := newTestServer(t, "secret")

	session, err := Open(context.Background(), srv.URL, "hiro", "secret")
	require.NoError(t, err)

	records, err := session.Events(context.Background(), domain.CalendarRef{
		Name: "Team Calendar",
		Path: "/dav/calendars/hiro/Work/",
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a", records[0].UID)
	assert.Equal(t, "b", records[1].UID)
	assert.Contains(t, string(records[0].Raw), "SUMMARY:Standup")
	assert.NotNil(t, records[0].Data)
}

func TestCollectionURL(t *testing.T) {
	assert.Equal(t,
		"https://hope.helmholtz-berlin.de/dav/calendars/hiro/Calendar/",
		CollectionURL("https://hope.helmholtz-berlin.de/", "hiro"))
	assert.Equal(t,
		"https://cal.example.com/dav/calendars/hiro/Calendar/",
		CollectionURL("https://cal.example.com", "hiro"))
}

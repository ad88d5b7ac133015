package dav

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Wire types for PROPFIND/PROPPATCH multistatus responses. Only the
// properties this client asks for are mapped.

type multistatus struct {
	XMLName   xml.Name   `xml:"DAV: multistatus"`
	Responses []response `xml:"response"`
}

type response struct {
	Href      string     `xml:"href"`
	Propstats []propstat `xml:"propstat"`
}

type propstat struct {
	Status string `xml:"status"`
	Prop   prop   `xml:"prop"`
}

type prop struct {
	DisplayName          string        `xml:"displayname"`
	ResourceType         resourceType  `xml:"resourcetype"`
	CalendarDescription  string        `xml:"urn:ietf:params:xml:ns:caldav calendar-description"`
	CurrentUserPrincipal *hrefValue    `xml:"current-user-principal"`
	CalendarHomeSet      *hrefValue    `xml:"urn:ietf:params:xml:ns:caldav calendar-home-set"`
}

type hrefValue struct {
	Href string `xml:"href"`
}

type resourceType struct {
	Collection *struct{} `xml:"collection"`
	Calendar   *struct{} `xml:"urn:ietf:params:xml:ns:caldav calendar"`
}

// ok reports whether a propstat carries a 2xx status line
// (e.g. "HTTP/1.1 200 OK").
func (p propstat) ok() bool {
	parts := strings.Fields(p.Status)
	return len(parts) >= 2 && strings.HasPrefix(parts[1], "2")
}

// firstOKProp returns the prop of the first successful propstat.
func (r response) firstOKProp() (prop, bool) {
	for _, ps := range r.Propstats {
		if ps.ok() {
			return ps.Prop, true
		}
	}
	return prop{}, false
}

// Request bodies. PROPFIND bodies are static; MKCOL and PROPPATCH bodies
// carry user input and are built with escaped text.

const propfindPrincipalBody = `<?xml version="1.0" encoding="utf-8"?>
<d:propfind xmlns:d="DAV:">
  <d:prop><d:current-user-principal/></d:prop>
</d:propfind>`

const propfindHomeSetBody = `<?xml version="1.0" encoding="utf-8"?>
<d:propfind xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop><c:calendar-home-set/></d:prop>
</d:propfind>`

const propfindCollectionsBody = `<?xml version="1.0" encoding="utf-8"?>
<d:propfind xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop>
    <d:displayname/>
    <d:resourcetype/>
    <c:calendar-description/>
  </d:prop>
</d:propfind>`

func mkcolBody(name, description string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<d:mkcol xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:set>
    <d:prop>
      <d:resourcetype><d:collection/><c:calendar/></d:resourcetype>
      <d:displayname>%s</d:displayname>
      <c:calendar-description>%s</c:calendar-description>
    </d:prop>
  </d:set>
</d:mkcol>`, escapeXML(name), escapeXML(description))
}

func proppatchBody(name, description string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<d:propertyupdate xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:set>
    <d:prop>
      <d:displayname>%s</d:displayname>
      <c:calendar-description>%s</c:calendar-description>
    </d:prop>
  </d:set>
</d:propertyupdate>`, escapeXML(name), escapeXML(description))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails on a failing writer; bytes.Buffer never does.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

package connect

import (
	"bytes"
	"encoding/xml"
	"strings"
)

const (
	soapEnvNS = "http://schemas.xmlsoap.org/soap/envelope/"
	webNS     = "http://connect2.askadmissions.net/webservices/"

	// classificationEvents selects events (as opposed to interviews) in GetEventsAndInterviews.
	classificationEvents = "1"
	// statusScheduled is the service's status code for scheduled events.
	statusScheduled = "2"
	// AttendanceStatusAttended is the only attendance status this client sends.
	AttendanceStatusAttended = "Attended"
)

// field is one <web:name>value</web:name> element of a request body.
type field struct {
	name  string
	value string
}

// ListEventsEnvelope renders the GetEventsAndInterviews request body.
func ListEventsEnvelope(clientName, credential, start, end string) string {
	return envelope("GetEventsAndInterviews", []field{
		{"clientName", clientName},
		{"passKey", credential},
		{"classification", classificationEvents},
		{"startsOnFrom", start},
		{"startsOnTo", end},
		{"status", statusScheduled},
	})
}

// MarkAttendedEnvelope renders the UpdateContactStatusForEventOrInterview request body.
func MarkAttendedEnvelope(clientName string, req AttendanceRequest) string {
	return envelope("UpdateContactStatusForEventOrInterview", []field{
		{"clientName", clientName},
		{"passKey", req.Credential},
		{"eventOrInterviewGid", req.EventID},
		{"contactId", req.ContactID},
		{"attendanceStatus", AttendanceStatusAttended},
	})
}

func envelope(operation string, fields []field) string {
	var b strings.Builder
	b.WriteString("<soapenv:Envelope xmlns:soapenv='" + soapEnvNS + "' xmlns:web='" + webNS + "'>")
	b.WriteString("<soapenv:Header/>")
	b.WriteString("<soapenv:Body>")
	b.WriteString("<web:" + operation + ">")
	for _, f := range fields {
		b.WriteString("<web:" + f.name + ">")
		b.WriteString(escape(f.value))
		b.WriteString("</web:" + f.name + ">")
	}
	b.WriteString("</web:" + operation + ">")
	b.WriteString("</soapenv:Body>")
	b.WriteString("</soapenv:Envelope>")
	return b.String()
}

// escape makes credential and id values safe to embed as element text.
func escape(s string) string {
	var buf bytes.Buffer
	// writes to a bytes.Buffer never fail
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

package connect

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Markers the remote service is known to emit. Any other body falls through to
// ErrUnknown (list) or OutcomeRejected (mark).
const (
	MarkerInvalidPasskey   = "Passkey is invalid"
	MarkerNoEvents         = "No events/interviews were found"
	MarkerMalformedPasskey = "Decimal byte array constructor"
	MarkerUpdated          = "successfully updated"
)

var (
	// ErrTransport means no response body was received.
	ErrTransport = errors.New("connect: transport failure")
	// ErrInvalidCredential means the service rejected the passkey.
	ErrInvalidCredential = errors.New("connect: invalid credential")
	// ErrUnknown means a body was received but could not be interpreted.
	ErrUnknown = errors.New("connect: unrecognized response")
)

// MismatchError reports extracted name and id sequences of different lengths.
type MismatchError struct {
	Names int
	IDs   int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("connect: %d event names but %d event ids", e.Names, e.IDs)
}

// Unwrap lets errors.Is(err, ErrUnknown) match a mismatch.
func (e *MismatchError) Unwrap() error { return ErrUnknown }

var (
	namePattern = regexp.MustCompile(`(?i)Name&gt;&lt;!\[CDATA\[(.+?)\]`)
	gidPattern  = regexp.MustCompile(`(?i)GID&gt;&lt;!\[CDATA\[(.+?)\]`)
)

// ClassifyEvents interprets a GetEventsAndInterviews response body.
// A nil error with an empty slice means the service reported no events.
func ClassifyEvents(body string) ([]EventListing, error) {
	switch {
	case strings.Contains(body, MarkerInvalidPasskey):
		return nil, ErrInvalidCredential
	case strings.Contains(body, MarkerNoEvents):
		return []EventListing{}, nil
	case strings.Contains(body, MarkerMalformedPasskey):
		return nil, ErrInvalidCredential
	}
	events, err := ExtractEvents(body)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrUnknown
	}
	return events, nil
}

// ExtractEvents pulls the escaped Name and GID CDATA fragments out of body and
// pairs them by position. Sequences of unequal length yield a *MismatchError.
func ExtractEvents(body string) ([]EventListing, error) {
	names := captures(namePattern, body)
	ids := captures(gidPattern, body)
	if len(names) != len(ids) {
		return nil, &MismatchError{Names: len(names), IDs: len(ids)}
	}
	events := make([]EventListing, len(names))
	for i := range names {
		events[i] = EventListing{Name: names[i], ID: ids[i]}
	}
	return events, nil
}

func captures(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ClassifyAttendance interprets an UpdateContactStatusForEventOrInterview response body.
func ClassifyAttendance(body string) Outcome {
	if strings.Contains(body, MarkerUpdated) {
		return OutcomeAttended
	}
	return OutcomeRejected
}

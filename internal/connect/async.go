package connect

import "context"

// EventsResult is delivered by ListEventsAsync.
type EventsResult struct {
	Events []EventListing
	Err    error
}

// AttendanceResult is delivered by MarkAttendedAsync.
type AttendanceResult struct {
	Outcome Outcome
	Err     error
}

// ListEventsAsync runs ListEvents in a goroutine. The channel receives exactly
// one result and is then closed.
func (c *Client) ListEventsAsync(ctx context.Context, credential, start, end string) <-chan EventsResult {
	ch := make(chan EventsResult, 1)
	go func() {
		defer close(ch)
		events, err := c.ListEvents(ctx, credential, start, end)
		ch <- EventsResult{Events: events, Err: err}
	}()
	return ch
}

// MarkAttendedAsync runs MarkAttended in a goroutine. The channel receives
// exactly one result and is then closed.
func (c *Client) MarkAttendedAsync(ctx context.Context, req AttendanceRequest) <-chan AttendanceResult {
	ch := make(chan AttendanceResult, 1)
	go func() {
		defer close(ch)
		outcome, err := c.MarkAttended(ctx, req)
		ch <- AttendanceResult{Outcome: outcome, Err: err}
	}()
	return ch
}

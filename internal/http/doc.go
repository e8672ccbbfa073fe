// Package http provides HTTP handlers and middleware for the prayer
// companion API.
//
// The router exposes the following endpoints:
//   - GET /healthz: liveness probe, always {"status":"ok"}.
//   - GET /plan?date=YYYY-MM-DD: the full picture for one day: prayer windows,
//     busy calendar events, detected conflicts with ranked suggestions, and any
//     recorded resolutions. The date defaults to today in the configured
//     timezone. Payload shapes live in plan_handler.go.
//   - GET /prayer-times?date=YYYY-MM-DD: just the five prayer windows, without
//     touching any calendar feed.
//   - POST /refresh: forces a re-download of every enabled calendar feed and
//     discards cached plans. Returns 204 No Content, or 409 when no source is
//     configured.
//   - GET /settings, PUT /settings: the user tunable detection policy and
//     calculation parameters exchanging the `settingsDTO` payload defined in
//     settings_handler.go.
//   - GET /sources, POST /sources, PUT /sources/{id}, DELETE /sources/{id}:
//     calendar feed subscription management exchanging the `sourceDTO` payload
//     defined in source_handler.go.
//   - GET /resolutions?date=YYYY-MM-DD, POST /resolutions,
//     DELETE /resolutions/{id}: recorded suggestion outcomes exchanging the
//     `resolutionDTO` payload defined in resolution_handler.go.
//   - GET /export.ics?date=YYYY-MM-DD&reminder_minutes=N: the day's prayer
//     schedule as an iCalendar download suitable for importing back into the
//     user's own calendar.
//
// Every endpoint is guarded by the optional BasicAuth middleware; requests and
// responses use JSON except for the calendar export.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http

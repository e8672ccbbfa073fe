package calendar

import (
	"fmt"
	"net/url"
	"strings"
)

// Source identifies one subscribed ICS calendar feed.
type Source struct {
	ID   string
	Name string
	URL  string
}

// Validate checks the source at the configuration boundary.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("calendar: source name is required")
	}
	parsed, err := url.Parse(s.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("calendar: source %q has an invalid url", s.Name)
	}
	switch parsed.Scheme {
	case "http", "https", "webcal":
	default:
		return fmt.Errorf("calendar: source %q has unsupported scheme %q", s.Name, parsed.Scheme)
	}
	return nil
}

// FetchURL rewrites webcal:// subscription links to plain https.
func (s Source) FetchURL() string {
	if strings.HasPrefix(s.URL, "webcal://") {
		return "https://" + strings.TrimPrefix(s.URL, "webcal://")
	}
	return s.URL
}

// redactURL hides path and query of a feed URL so tokens embedded in private
// calendar links never reach the logs.
func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "ics://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + "/...(redacted)"
}

package location

import (
	"regexp"
	"strconv"

	"lifeline/internal/utils"
)

// Method identifies which matcher recovered the coordinates.
type Method string

const (
	MethodExplicitCoordinates Method = "explicit_coordinates"
	MethodMapLink             Method = "map_link"
	MethodOSShareFormat       Method = "os_share_format"
	MethodMessagingAppFormat  Method = "messaging_app_format"
)

// Result is the outcome of a single extraction attempt. A failed extraction
// is a normal result, not an error; callers prompt the sender to retry.
type Result struct {
	OK        bool
	Latitude  float64
	Longitude float64
	Method    Method
	Reason    string
}

type matcher struct {
	method  Method
	pattern *regexp.Regexp
}

// Extractor recovers a coordinate pair from free-form SMS text. Matchers
// run in priority order and the first one that matches with in-range
// coordinates wins; later matchers are never consulted after that, so the
// ordering matters: the bare-pair matcher is anchored to word boundaries
// precisely so it cannot swallow coordinates embedded in a map link.
type Extractor struct {
	matchers []matcher
}

func NewExtractor() *Extractor {
	return &Extractor{
		matchers: []matcher{
			// "14.4644, 75.9218" or "LOCATION 14.4644 75.9218"
			{
				method:  MethodExplicitCoordinates,
				pattern: regexp.MustCompile(`(?:^|\s)(-?\d{1,3}(?:\.\d+)?)[,\s]\s*(-?\d{1,3}(?:\.\d+)?)`),
			},
			// map deep links: ...?q=14.4644,75.9218
			{
				method:  MethodMapLink,
				pattern: regexp.MustCompile(`[?&]q=(-?\d{1,3}(?:\.\d+)?)\s*,\s*(-?\d{1,3}(?:\.\d+)?)`),
			},
			// OS share sheets produce ...?saddr=14.4644,75.9218
			{
				method:  MethodOSShareFormat,
				pattern: regexp.MustCompile(`[?&]saddr=(-?\d{1,3}(?:\.\d+)?),(-?\d{1,3}(?:\.\d+)?)`),
			},
			// messaging apps: "Location: 14.4644,75.9218"
			{
				method:  MethodMessagingAppFormat,
				pattern: regexp.MustCompile(`(?i)location:\s*(-?\d{1,3}(?:\.\d+)?)\s*,\s*(-?\d{1,3}(?:\.\d+)?)`),
			},
		},
	}
}

// Extract runs the matcher chain over text. A syntactic match with
// out-of-range coordinates counts as a non-match and the chain continues.
func (e *Extractor) Extract(text string) Result {
	for _, m := range e.matchers {
		groups := m.pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}

		lat, errLat := strconv.ParseFloat(groups[1], 64)
		lng, errLng := strconv.ParseFloat(groups[2], 64)
		if errLat != nil || errLng != nil {
			continue
		}

		if !utils.IsValidCoordinates(lat, lng) {
			continue
		}

		return Result{
			OK:        true,
			Latitude:  lat,
			Longitude: lng,
			Method:    m.method,
		}
	}

	return Result{OK: false, Reason: "no coordinates found in text"}
}

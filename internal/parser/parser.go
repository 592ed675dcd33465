// Package parser tokenizes one raw TSV line from the gzip-decompressed
// appsinstalled stream into a domain.Record, following spec.md §4.2
// exactly, including its lenient-apps recovery and its documented (if
// surprising) lat/lon-parse-failure behavior.
package parser

import (
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	apperrors "github.com/vasyanch/memcload/internal/errors"

	"github.com/vasyanch/memcload/internal/domain"
)

const minFields = 5

// Parse tokenizes a single line. An empty (post-trim) line returns
// (domain.Record{}, false, nil) — not an error, simply ignored. A
// malformed line returns a non-nil error that the caller counts as a
// file-level error.
func Parse(line string) (domain.Record, bool, error) {
	line = strings.TrimRight(line, " \t\r\n")
	if line == "" {
		return domain.Record{}, false, nil
	}

	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return domain.Record{}, false, apperrors.ErrMalformedLine
	}

	deviceType, deviceID, latStr, lonStr, rawApps := fields[0], fields[1], fields[2], fields[3], fields[4]
	if deviceType == "" || deviceID == "" {
		return domain.Record{}, false, apperrors.ErrEmptyDeviceField
	}

	apps := parseApps(rawApps, line)

	lat, lon := parseCoords(latStr, lonStr, line)

	return domain.Record{
		DeviceType: deviceType,
		DeviceID:   deviceID,
		Lat:        lat,
		Lon:        lon,
		Apps:       apps,
	}, true, nil
}

// parseApps splits raw_apps on commas and converts each trimmed token to
// an integer. If any token fails to parse, it retries in a lenient mode
// that keeps only numeric-looking tokens and logs an info note — matching
// the source's fallback `[int(a.strip()) for a in raw_apps.split(",") if
// a.isdigit()]`. If lenient mode still yields nothing, the result is an
// empty (not nil-failing) app list.
func parseApps(rawApps, line string) []uint32 {
	tokens := strings.Split(rawApps, ",")
	apps := make([]uint32, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		n, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return parseAppsLenient(tokens, line)
		}
		apps = append(apps, uint32(n))
	}
	return apps
}

func parseAppsLenient(tokens []string, line string) []uint32 {
	log.Infof("Not all user apps are digits: `%s`", line)
	apps := make([]uint32, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || !isDigits(tok) {
			continue
		}
		n, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			continue
		}
		apps = append(apps, uint32(n))
	}
	return apps
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseCoords parses both coordinates together, the way the source parses
// `lat, lon = float(lat), float(lon)` in a single try/except: if either
// fails, it logs one info note and the failing field defaults to 0.0
// (SPEC_FULL.md §9 Open Question 2) rather than aborting the record.
func parseCoords(latStr, lonStr, line string) (lat, lon float64) {
	var latErr, lonErr error
	lat, latErr = strconv.ParseFloat(latStr, 64)
	lon, lonErr = strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		log.Infof("Invalid geo coords: `%s`", line)
		if latErr != nil {
			lat = 0.0
		}
		if lonErr != nil {
			lon = 0.0
		}
	}
	return lat, lon
}

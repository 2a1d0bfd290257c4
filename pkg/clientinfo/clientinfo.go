// Package clientinfo normalizes a raw User-Agent string into the small
// descriptor the access policies operate on. UA sniffing is heuristic by
// nature; policy code never touches the raw string and the parser can be
// swapped behind Classify without touching any policy logic.
package clientinfo

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// DeviceClass buckets the requesting hardware. Anything the parser cannot
// place is treated as desktop, which maps to the strictest access windows.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
)

// Known agent families referenced by policy. Values match what the parser
// reports so policy comparisons stay exact.
const (
	FamilyChrome           = ua.Chrome
	FamilyEdge             = ua.Edge
	FamilyInternetExplorer = ua.InternetExplorer
)

// Client is the normalized classification of the requester's software agent.
// Derived per request, never persisted (login records keep family and device
// class only).
type Client struct {
	Family  string
	Version string
	OS      string
	Device  DeviceClass
}

// Classify parses a User-Agent string. Empty or unrecognized input yields an
// empty family on a desktop device: unknown agents fall through to the
// strictest policy, never past it.
func Classify(userAgent string) Client {
	if strings.TrimSpace(userAgent) == "" {
		return Client{Device: DeviceDesktop}
	}

	parsed := ua.Parse(userAgent)

	device := DeviceDesktop
	switch {
	case parsed.Mobile:
		device = DeviceMobile
	case parsed.Tablet:
		device = DeviceTablet
	}

	return Client{
		Family:  parsed.Name,
		Version: parsed.Version,
		OS:      parsed.OS,
		Device:  device,
	}
}

// IsMobile reports whether the client was classified as a mobile handset.
func (c Client) IsMobile() bool { return c.Device == DeviceMobile }

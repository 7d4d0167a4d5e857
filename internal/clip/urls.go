package clip

import "strings"

// DefaultRemoteBase is the Hue cloud origin used for relayed requests
// and the OAuth endpoints.
const DefaultRemoteBase = "https://api.meethue.com"

const (
	resourcePath = "/clip/v2/resource"
	routePrefix  = "/route"
)

// TargetURL builds the URL for a resource operation.
//
// Local form:  https://{ip}/clip/v2/resource[/{type}][/{path}]
// Remote form: https://api.meethue.com/route/clip/v2/resource[/{type}][/{path}]
//
// Type and path segments are appended only when non-empty; a non-empty
// path not already beginning with "/" gets one prepended.
func TargetURL(ip string, rtype ResourceType, path string, remote bool) string {
	return buildResourceURL(DefaultRemoteBase, ip, rtype, path, remote)
}

// buildResourceURL is TargetURL with a configurable remote origin, so
// the router can honour remote.api_base.
func buildResourceURL(remoteBase, ip string, rtype ResourceType, path string, remote bool) string {
	var b strings.Builder

	if remote {
		b.WriteString(remoteBase)
		b.WriteString(routePrefix)
	} else {
		b.WriteString("https://")
		b.WriteString(ip)
	}
	b.WriteString(resourcePath)

	if rtype != "" {
		b.WriteString("/")
		b.WriteString(string(rtype))
	}

	if path != "" {
		if !strings.HasPrefix(path, "/") {
			b.WriteString("/")
		}
		b.WriteString(path)
	}

	return b.String()
}

// PairingURL returns the v1 endpoint used for first contact. Pairing
// predates CLIP v2 and still lives at /api.
func PairingURL(ip string) string {
	return "https://" + ip + "/api"
}

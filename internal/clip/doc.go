// Package clip implements the CLIP v2 transport and dispatch layer.
//
// This package manages:
//   - Single HTTP verb calls with application-key and bearer headers
//   - Resource URL construction for local and relayed forms
//   - Local-first, remote-fallback dispatch routing
//   - Timeout classification separating "bridge is slow" from
//     "request failed"
//
// # Dispatch policy
//
// Every operation is first issued directly against the bridge's LAN
// address with a short timeout (1 second by default). A bridge on the
// same network answers near-instantly, so a timeout is taken to mean
// the device is off-network and the identical operation is reissued
// once through the Hue cloud relay with a bearer token attached:
//
//	https://{ip}/clip/v2/resource/...            (local, app key)
//	https://api.meethue.com/route/clip/v2/...    (remote, app key + bearer)
//
// Only a timeout triggers the relay. Any other local failure - DNS,
// TLS, connection refused, a CLIP error envelope - propagates to the
// caller unmodified, and the remote attempt has no further fallback.
// The two attempts are strictly sequential so a mutating verb never
// executes against both endpoints.
//
// # Security Considerations
//
//   - Local TLS verification is off by default: bridges present
//     self-signed certificates, and authenticity rests on the
//     application key obtained at pairing
//   - Bearer tokens are attached only to the relayed form, never to
//     local requests
//
// # Usage
//
//	client := clip.NewClient(clip.ClientOptions{})
//	router, err := clip.NewRouter(clip.RouterOptions{Client: client})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := router.Fetch(ctx, clip.Target{
//	    IPAddress:      "192.168.1.10",
//	    ApplicationKey: key,
//	    BearerToken:    token,
//	}, clip.ResourceTypeLight, "")
package clip

package provider

import (
	"net"
	"net/http"
	"time"
)

// completionTimeout bounds one completion round trip. Long answers can
// take tens of seconds to generate, so this sits above the gateway's
// per-question deadline rather than cutting it short.
const completionTimeout = 60 * time.Second

// newHTTPClient builds the pooled client the AI backends share. The bot
// only ever talks to one or two provider hosts, so the idle pool is
// kept small and connections are held long enough to span the gaps
// between questions.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: completionTimeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     2 * time.Minute,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

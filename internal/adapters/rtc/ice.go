package rtc

import (
	"strings"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const defaultSTUN = "stun:stun.l.google.com:19302"

// ICEServer is one configured server entry. Credentials are only meaningful
// for TURN URLs.
type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

// ICEServers builds the list handed to browsers for their RTCPeerConnection.
// The relay itself never opens a peer connection.
func ICEServers(servers []ICEServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		urls := make([]string, 0, len(s.URLs))
		for _, u := range s.URLs {
			if !validScheme(u) {
				log.Warn().Str("module", "webrtc").Str("url", u).Msg("skipping ICE url with unknown scheme")
				continue
			}
			urls = append(urls, u)
		}
		if len(urls) == 0 {
			continue
		}
		srv := webrtc.ICEServer{URLs: urls}
		if s.Username != "" {
			srv.Username = s.Username
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	if len(out) == 0 {
		out = append(out, webrtc.ICEServer{URLs: []string{defaultSTUN}})
	}
	return out
}

// ClientConfig is the RTCPeerConnection configuration handed to browsers.
// With nothing configured it carries the public STUN fallback.
func ClientConfig(servers []ICEServer) webrtc.Configuration {
	return webrtc.Configuration{ICEServers: ICEServers(servers)}
}

func validScheme(u string) bool {
	for _, p := range []string{"stun:", "stuns:", "turn:", "turns:"} {
		if strings.HasPrefix(u, p) {
			return true
		}
	}
	return false
}

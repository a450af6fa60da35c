package browser

import (
	"math/rand"
	"strings"
)

// Profile is the identity a session presents: a user agent plus the request
// headers a real desktop browser with that agent would send.
type Profile struct {
	UserAgent       string
	Accept          string
	AcceptLanguage  string
	SecChUa         string
	SecChUaMobile   string
	SecChUaPlatform string
}

const (
	chromeAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"
	plainAccept  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	chromeSecUa  = `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`
)

var desktopProfiles = []Profile{
	{
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:          chromeAccept,
		AcceptLanguage:  "en-US,en;q=0.9",
		SecChUa:         chromeSecUa,
		SecChUaMobile:   "?0",
		SecChUaPlatform: `"macOS"`,
	},
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:          chromeAccept,
		AcceptLanguage:  "en-US,en;q=0.9",
		SecChUa:         chromeSecUa,
		SecChUaMobile:   "?0",
		SecChUaPlatform: `"Windows"`,
	},
	{
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:          chromeAccept,
		AcceptLanguage:  "en-US,en;q=0.9",
		SecChUa:         chromeSecUa,
		SecChUaMobile:   "?0",
		SecChUaPlatform: `"Linux"`,
	},
}

// ProfileFor returns a random desktop profile when ua is empty. A configured
// agent keeps the client hints only if it claims to be Chrome.
func ProfileFor(ua string) Profile {
	if ua == "" {
		return desktopProfiles[rand.Intn(len(desktopProfiles))]
	}
	p := Profile{UserAgent: ua, Accept: plainAccept, AcceptLanguage: "en-US,en;q=0.9"}
	if strings.Contains(ua, "Chrome/") {
		p.Accept = chromeAccept
		p.SecChUa = chromeSecUa
		p.SecChUaMobile = "?0"
	}
	return p
}

// Headers are the extra headers for every request of the session. The agent
// itself is set on the browser context, not here.
func (p Profile) Headers() map[string]string {
	h := map[string]string{
		"Accept":          p.Accept,
		"Accept-Language": p.AcceptLanguage,
	}
	if p.SecChUa != "" {
		h["Sec-Ch-Ua"] = p.SecChUa
		h["Sec-Ch-Ua-Mobile"] = p.SecChUaMobile
	}
	if p.SecChUaPlatform != "" {
		h["Sec-Ch-Ua-Platform"] = p.SecChUaPlatform
	}
	return h
}

package resolver

import (
	"net/url"
	"regexp"
	"strings"
)

const canonicalWatchURL = "https://www.youtube.com/watch?v="

var (
	alternatePathPattern = regexp.MustCompile(`^/(?:shorts|live)/([0-9A-Za-z_-]+)/?$`)
	videoPathPattern     = regexp.MustCompile(`^/(?:shorts|live|embed)/([^/]+)/?$`)
	videoIDPattern       = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
	youtubeHosts         = map[string]struct{}{
		"youtube.com":       {},
		"www.youtube.com":   {},
		"m.youtube.com":     {},
		"music.youtube.com": {},
		"youtu.be":          {},
		"www.youtu.be":      {},
	}
)

// Normalize rewrites alternate YouTube path forms such as /shorts/<id> into
// the canonical watch URL. Anything it does not recognise is returned as is.
func Normalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	if !isYouTubeHost(parsed.Hostname()) {
		return rawURL
	}
	m := alternatePathPattern.FindStringSubmatch(parsed.Path)
	if len(m) != 2 {
		return rawURL
	}
	return canonicalWatchURL + m[1]
}

func isYouTubeHost(host string) bool {
	_, ok := youtubeHosts[strings.ToLower(host)]
	return ok
}

// videoID extracts the 11 character id from a parsed YouTube URL. It looks
// at the v query parameter, the youtu.be path and the shorts, live and
// embed paths, in that order.
func videoID(parsed *url.URL) (string, bool) {
	var id string
	host := strings.ToLower(parsed.Hostname())
	switch {
	case parsed.Query().Get("v") != "":
		id = parsed.Query().Get("v")
	case host == "youtu.be" || host == "www.youtu.be":
		id = strings.Trim(parsed.Path, "/")
	default:
		if m := videoPathPattern.FindStringSubmatch(parsed.Path); len(m) == 2 {
			id = m[1]
		}
	}
	if !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

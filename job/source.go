package job

import (
	"net/url"
	"path"
	"strings"
)

var supportedHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".mov":  true,
	".flv":  true,
	".wmv":  true,
}

// SupportedURL reports whether ref plausibly points at a source the
// service accepts: YouTube, Vimeo, a direct video-file URL, or an
// object already in Supabase storage. It is a client-side hint only;
// the service remains the authority on acceptance.
func SupportedURL(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	for _, host := range supportedHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	u, err := url.Parse(lower)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if strings.Contains(u.Host, "supabase.co") && strings.Contains(u.Path, "/storage/") {
		return true
	}
	return videoExts[path.Ext(u.Path)]
}

// file: internal/classify/platforms.go
// version: 1.1.0
// guid: 5c9a2e7b-4d1f-4e6a-8b3c-0d9e1f2a3b4c

package classify

import (
	"net/url"
	"strings"
)

// Platform identifies a social media platform. It is used for user-facing
// labels only; all social platforms share one download strategy.
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformInstagram
	PlatformFacebook
	PlatformTwitter
	PlatformTikTok
	PlatformReddit
	PlatformVimeo
	PlatformDailymotion
)

func (p Platform) String() string {
	switch p {
	case PlatformInstagram:
		return "Instagram"
	case PlatformFacebook:
		return "Facebook"
	case PlatformTwitter:
		return "Twitter/X"
	case PlatformTikTok:
		return "TikTok"
	case PlatformReddit:
		return "Reddit"
	case PlatformVimeo:
		return "Vimeo"
	case PlatformDailymotion:
		return "Dailymotion"
	default:
		return "social media"
	}
}

// Host fragments per platform. Substring matches against the URL, matching
// the permissive detection the bot has always used.
var platformFragments = []struct {
	platform  Platform
	fragments []string
}{
	{PlatformInstagram, []string{"instagram.com", "instagr.am"}},
	{PlatformFacebook, []string{"facebook.com", "fb.com", "fb.watch", "m.facebook.com"}},
	{PlatformTwitter, []string{"twitter.com", "x.com", "t.co"}},
	{PlatformTikTok, []string{"tiktok.com", "vm.tiktok.com"}},
	{PlatformReddit, []string{"reddit.com", "redd.it"}},
	{PlatformVimeo, []string{"vimeo.com"}},
	{PlatformDailymotion, []string{"dailymotion.com", "dai.ly"}},
}

// PlatformFor returns the social platform for the URL, or PlatformUnknown.
func PlatformFor(raw string) Platform {
	lower := strings.ToLower(raw)
	for _, entry := range platformFragments {
		for _, frag := range entry.fragments {
			if strings.Contains(lower, frag) {
				return entry.platform
			}
		}
	}
	return PlatformUnknown
}

// IsYouTubeURL reports whether the URL points at the video platform.
func IsYouTubeURL(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be")
}

// CanonicalYouTubeURL strips tracking parameters and rewrites short-link and
// shorts forms to the canonical watch URL. Unrecognized shapes come back
// unchanged.
func CanonicalYouTubeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := strings.ToLower(u.Host)
	if strings.Contains(host, "youtu.be") {
		id := strings.Trim(u.Path, "/")
		if id != "" {
			return "https://www.youtube.com/watch?v=" + id
		}
		return raw
	}

	if strings.Contains(host, "youtube.com") {
		if v := u.Query().Get("v"); v != "" {
			return "https://www.youtube.com/watch?v=" + v
		}
		if idx := strings.Index(u.Path, "/shorts/"); idx >= 0 {
			rest := u.Path[idx+len("/shorts/"):]
			if slash := strings.Index(rest, "/"); slash >= 0 {
				rest = rest[:slash]
			}
			if rest != "" {
				return "https://www.youtube.com/watch?v=" + rest
			}
		}
	}

	return raw
}

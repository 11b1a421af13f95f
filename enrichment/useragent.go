package enrichment

import (
	"strings"

	"pixeltrack/api/models"
)

// ClassifyUserAgent derives device class, browser and OS from a User-Agent
// header. It never fails: anything unrecognised is a desktop with Unknown
// browser and OS.
func ClassifyUserAgent(ua string) models.DeviceInfo {
	return models.DeviceInfo{
		Device:  classifyDevice(ua),
		Browser: classifyBrowser(ua),
		OS:      classifyOS(ua),
	}
}

func classifyDevice(ua string) string {
	switch {
	case strings.Contains(ua, "iPad"), strings.Contains(ua, "Tablet"):
		return models.DeviceTablet
	case strings.Contains(ua, "Android") && !strings.Contains(ua, "Mobile"):
		return models.DeviceTablet
	case strings.Contains(ua, "Mobile"), strings.Contains(ua, "iPhone"), strings.Contains(ua, "Android"):
		return models.DeviceMobile
	default:
		return models.DeviceDesktop
	}
}

// Order matters: Edge and Opera carry "Chrome", Chrome carries "Safari".
func classifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"), strings.Contains(ua, "Edge/"):
		return "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Firefox/"), strings.Contains(ua, "FxiOS"):
		return "Firefox"
	case strings.Contains(ua, "Chrome/"), strings.Contains(ua, "CriOS"):
		return "Chrome"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	default:
		return models.Unknown
	}
}

// iOS and Android are checked first since their UAs also mention "Mac OS X" and "Linux".
func classifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"), strings.Contains(ua, "iPod"):
		return "iOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Mac OS"), strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "Linux"), strings.Contains(ua, "X11"):
		return "Linux"
	default:
		return models.Unknown
	}
}

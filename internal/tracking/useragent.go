package tracking

import (
	"strings"

	"github.com/mssola/useragent"
)

// UserAgent is the structured descriptor attached to every ingested
// event, derived from the request's User-Agent header.
type UserAgent struct {
	UA      string      `json:"ua"`
	Browser BrowserInfo `json:"browser"`
	Engine  EngineInfo  `json:"engine"`
	OS      OSInfo      `json:"os"`
	Device  DeviceInfo  `json:"device"`
}

type BrowserInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Major   string `json:"major,omitempty"`
}

type EngineInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

type OSInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

type DeviceInfo struct {
	Type     string `json:"type,omitempty"`
	Model    string `json:"model,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// ParseUserAgent builds a UserAgent from a raw header value. An empty
// header yields a descriptor with only the empty UA string.
func ParseUserAgent(raw string) UserAgent {
	out := UserAgent{UA: raw}
	if strings.TrimSpace(raw) == "" {
		return out
	}

	ua := useragent.New(raw)

	name, version := ua.Browser()
	out.Browser = BrowserInfo{Name: name, Version: version, Major: majorVersion(version)}

	engine, engineVersion := ua.Engine()
	out.Engine = EngineInfo{Name: engine, Version: engineVersion}

	osInfo := ua.OSInfo()
	out.OS = OSInfo{Name: osInfo.Name, Version: osInfo.Version}

	out.Device = DeviceInfo{Type: deviceType(ua), Model: ua.Model(), Platform: ua.Platform()}
	return out
}

// Map returns the descriptor as a generic JSON object, the shape stored
// inside an event payload.
func (u UserAgent) Map() map[string]any {
	return map[string]any{
		"ua": u.UA,
		"browser": map[string]any{
			"name":    u.Browser.Name,
			"version": u.Browser.Version,
			"major":   u.Browser.Major,
		},
		"engine": map[string]any{
			"name":    u.Engine.Name,
			"version": u.Engine.Version,
		},
		"os": map[string]any{
			"name":    u.OS.Name,
			"version": u.OS.Version,
		},
		"device": map[string]any{
			"type":     u.Device.Type,
			"model":    u.Device.Model,
			"platform": u.Device.Platform,
		},
	}
}

func deviceType(ua *useragent.UserAgent) string {
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		return "desktop"
	}
}

func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

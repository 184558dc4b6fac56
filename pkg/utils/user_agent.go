package utils

import (
	"fmt"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/avct/uasurfer"
)

// ParseUserAgent returns nil for agents without a recognizable device type,
// which covers most scripted attack tooling.
func ParseUserAgent(uaString string, acceptLanguage string) *types.ClientInfo {
	if uaString == "" {
		return nil
	}
	ua := uasurfer.Parse(uaString)

	var device string
	switch ua.DeviceType {
	case uasurfer.DeviceComputer:
		device = "Computer"
	case uasurfer.DeviceTablet:
		device = "Tablet"
	case uasurfer.DevicePhone:
		device = "Phone"
	case uasurfer.DeviceConsole:
		device = "Console"
	case uasurfer.DeviceWearable:
		device = "Wearable"
	case uasurfer.DeviceTV:
		device = "TV"
	default:
		return nil
	}

	locale, _, _ := strings.Cut(acceptLanguage, ",")

	return &types.ClientInfo{
		Device:  device,
		OS:      fmt.Sprintf("%s %d.%d", ua.OS.Name.String(), ua.OS.Version.Major, ua.OS.Version.Minor),
		Browser: fmt.Sprintf("%s %d.%d", ua.Browser.Name.String(), ua.Browser.Version.Major, ua.Browser.Version.Minor),
		Locale:  strings.TrimSpace(locale),
	}
}

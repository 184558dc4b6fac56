package agent

import (
	"net"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/joho/godotenv"
)

const osReleasePath = "/etc/os-release"

type hostInfo struct {
	hostname  string
	ipAddress string
	osName    string
	osVersion string
}

func collectHostInfo() hostInfo {
	name, version := osInfo()
	return hostInfo{
		hostname:  hostname(),
		ipAddress: localIPAddress(),
		osName:    name,
		osVersion: version,
	}
}

func osInfo() (string, string) {
	release, err := godotenv.Read(osReleasePath)
	if err != nil {
		return runtime.GOOS, ""
	}
	name := release["ID"]
	if name == "" {
		name = runtime.GOOS
	}
	return name, release["VERSION_ID"]
}

func localIPAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}

// packageVersions maps every instrumented module that declares a Go
// package to the version linked into the binary.
func packageVersions(h *hooks.Hooks) map[string]string {
	out := make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	for _, m := range h.Modules() {
		pkg := m.Package()
		if m.IsBuiltin() {
			out[m.ID()] = runtime.Version()
			continue
		}
		if pkg == "" || !ok {
			continue
		}
		for _, dep := range info.Deps {
			if dep.Path == pkg || strings.HasPrefix(pkg, dep.Path+"/") {
				version := dep.Version
				if dep.Replace != nil {
					version = dep.Replace.Version
				}
				out[m.ID()] = version
				break
			}
		}
	}
	return out
}

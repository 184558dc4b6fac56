// Package shellinjection flags user input that escapes its argument
// position in a shell command line.
package shellinjection

import (
	"regexp"
	"sort"
	"strings"
)

const dangerousChars = "#!\"$&'()*;<=>?[\\]^`{|} \n\t~"

// dangerousInsideDoubleQuotes keep their meaning within "...".
const dangerousInsideDoubleQuotes = "$`\\!"

var commands = []string{
	"sleep", "shutdown", "reboot", "poweroff", "halt", "ifconfig", "chmod",
	"chown", "ping", "ssh", "scp", "curl", "wget", "telnet", "kill",
	"killall", "rm", "mv", "cp", "touch", "echo", "cat", "head", "tail",
	"grep", "find", "awk", "sed", "sort", "uniq", "wc", "ls", "env", "ps",
	"who", "whoami", "id", "w", "df", "du", "pwd", "uname", "hostname",
	"netstat", "passwd", "arch", "printenv", "logname", "pstree",
	"hostnamectl", "set", "lsattr", "killall5", "dmesg", "history", "free",
	"uptime", "finger", "top", "shopt",
}

var pathPrefixes = []string{
	"/bin/", "/sbin/", "/usr/bin/", "/usr/sbin/", "/usr/local/bin/", "/usr/local/sbin/",
}

const separators = " \t\n;&|()<>"

var commandPattern = regexp.MustCompile(
	`(?i)(?:` + quoteAll(pathPrefixes) + `)?(?:` + quoteAll(longestFirst(commands)) + `)`,
)

// DetectShellInjection reports whether userInput, found in command, can run
// something other than the argument it was meant to be.
func DetectShellInjection(command, userInput string) bool {
	if userInput == "~" {
		return len(command) > 1 && strings.Contains(command, "~")
	}
	if len(userInput) <= 1 {
		return false
	}
	if !strings.Contains(command, userInput) {
		return false
	}
	if IsSafelyEncapsulated(command, userInput) {
		return false
	}
	return ContainsShellSyntax(command, userInput)
}

// IsSafelyEncapsulated reports whether every occurrence of userInput is
// quoted in a way the input cannot terminate or expand.
func IsSafelyEncapsulated(command, userInput string) bool {
	segments := strings.Split(command, userInput)
	for i := 0; i+1 < len(segments); i++ {
		before := lastByte(segments[i])
		after := firstByte(segments[i+1])
		if before != '\'' && before != '"' {
			return false
		}
		if before != after {
			return false
		}
		if strings.IndexByte(userInput, before) >= 0 {
			return false
		}
		if before == '"' && strings.ContainsAny(userInput, dangerousInsideDoubleQuotes) {
			return false
		}
	}
	return true
}

// ContainsShellSyntax looks for metacharacters in userInput, or for userInput
// being a whole command word of the command line.
func ContainsShellSyntax(command, userInput string) bool {
	if strings.TrimSpace(userInput) == "" {
		return false
	}
	if strings.ContainsAny(userInput, dangerousChars) {
		return true
	}
	if command == userInput {
		loc := commandPattern.FindStringIndex(command)
		return loc != nil && loc[0] == 0 && isBoundary(command, loc[1])
	}

	for _, loc := range commandPattern.FindAllStringIndex(command, -1) {
		if !strings.EqualFold(command[loc[0]:loc[1]], userInput) {
			continue
		}
		if (loc[0] == 0 || isSeparator(command[loc[0]-1])) && isBoundary(command, loc[1]) {
			return true
		}
	}
	return false
}

func isBoundary(s string, end int) bool {
	return end == len(s) || isSeparator(s[end])
}

func isSeparator(b byte) bool {
	return strings.IndexByte(separators, b) >= 0
}

func lastByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func firstByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}

// longestFirst keeps "killall" from being matched as "kill".
func longestFirst(values []string) []string {
	sorted := append([]string(nil), values...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	return sorted
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = regexp.QuoteMeta(v)
	}
	return strings.Join(quoted, "|")
}

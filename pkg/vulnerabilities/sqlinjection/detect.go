// Package sqlinjection flags user input that changes the structure of an
// SQL statement instead of landing in it as a literal.
package sqlinjection

import (
	"strings"
)

// DetectSQLInjection reports whether userInput, found inside query, alters
// the statement.
func DetectSQLInjection(query, userInput string) bool {
	// Single characters can at most break the statement.
	if len(userInput) <= 1 {
		return false
	}
	if !QueryContainsUserInput(query, userInput) {
		return false
	}
	if DangerousCharsInInput(userInput) {
		return true
	}
	if UserInputOccurrencesSafelyEncapsulated(query, userInput) {
		return false
	}
	return UserInputContainsSQLSyntax(userInput)
}

// QueryContainsUserInput is a case insensitive containment check.
func QueryContainsUserInput(query, userInput string) bool {
	return strings.Contains(strings.ToLower(query), strings.ToLower(userInput))
}

func DangerousCharsInInput(userInput string) bool {
	for _, s := range dangerousInAnyContext {
		if strings.Contains(userInput, s) {
			return true
		}
	}
	return false
}

// UserInputOccurrencesSafelyEncapsulated reports whether every occurrence of
// userInput sits between a pair of identical string quotes. Occurrences are
// matched case insensitively, like QueryContainsUserInput.
func UserInputOccurrencesSafelyEncapsulated(query, userInput string) bool {
	segments := strings.Split(strings.ToLower(query), strings.ToLower(userInput))
	for i := 0; i+1 < len(segments); i++ {
		last := lastChar(segments[i])
		next := firstChar(segments[i+1])
		if !isStringChar(last) || last != next {
			return false
		}
	}
	return true
}

// UserInputContainsSQLSyntax is the final, pattern based verdict.
func UserInputContainsSQLSyntax(userInput string) bool {
	return keywordPattern.MatchString(userInput) ||
		operatorPattern.MatchString(userInput) ||
		functionPattern.MatchString(userInput) ||
		statementEnd.MatchString(userInput)
}

func isStringChar(s string) bool {
	for _, c := range stringChars {
		if s == c {
			return true
		}
	}
	return false
}

func lastChar(s string) string {
	if s == "" {
		return ""
	}
	return s[len(s)-1:]
}

func firstChar(s string) string {
	if s == "" {
		return ""
	}
	return s[:1]
}

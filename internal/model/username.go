package model

import "regexp"

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

// ValidUsername reports whether name is a well-formed player name
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

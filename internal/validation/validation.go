// Package validation holds the field-level rules applied wherever user input
// crosses a trust boundary. Every check is a pure function returning whether
// the value is acceptable and a message suitable for showing to the user.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	nameRe       = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	doubleSpace  = regexp.MustCompile(`\s{2,}`)
	emailRe      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	upperRe      = regexp.MustCompile(`[A-Z]`)
	lowerRe      = regexp.MustCompile(`[a-z]`)
	digitRe      = regexp.MustCompile(`\d`)
	specialRe    = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	locationRe   = regexp.MustCompile(`^[a-zA-Z0-9\s,.\-()]+$`)
	skillNameRe  = regexp.MustCompile(`^[a-zA-Z0-9\s\-.+#]+$`)
	allowedTLDs  = []string{".com", ".org", ".net", ".edu", ".gov", ".in", ".co"}
	validLevels  = []string{"beginner", "intermediate", "advanced", "expert"}
	validDays    = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	validSlots   = []string{"Morning", "Afternoon", "Evening", "Night"}
)

// Name allows 2-50 characters of letters, spaces, hyphens, and apostrophes,
// with no two consecutive spaces.
func Name(name string) (bool, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, "Name is required"
	}
	if len(name) < 2 {
		return false, "Name must be at least 2 characters long"
	}
	if len(name) > 50 {
		return false, "Name must not exceed 50 characters"
	}
	if !nameRe.MatchString(name) {
		return false, "Name can only contain letters, spaces, hyphens, and apostrophes"
	}
	if doubleSpace.MatchString(name) {
		return false, "Name cannot contain multiple consecutive spaces"
	}
	return true, "Valid name"
}

// Email checks the local@domain.tld shape and requires one of a fixed
// allow-list of TLD substrings.
func Email(email string) (bool, string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, "Email is required"
	}
	if !emailRe.MatchString(email) {
		return false, "Email must be in valid format (e.g., user@example.com)"
	}
	hasTLD := false
	for _, tld := range allowedTLDs {
		if strings.Contains(email, tld) {
			hasTLD = true
			break
		}
	}
	if !hasTLD {
		return false, "Email must contain a valid domain (e.g., .com, .org, .net)"
	}
	if len(email) > 255 {
		return false, "Email must not exceed 255 characters"
	}
	return true, "Valid email"
}

// Password requires 8-128 characters with at least one uppercase letter, one
// lowercase letter, one digit, and one special character.
func Password(password string) (bool, string) {
	if password == "" {
		return false, "Password is required"
	}
	if utf8.RuneCountInString(password) < 8 {
		return false, "Password must be at least 8 characters long"
	}
	if utf8.RuneCountInString(password) > 128 {
		return false, "Password must not exceed 128 characters"
	}
	if !upperRe.MatchString(password) {
		return false, "Password must contain at least one uppercase letter"
	}
	if !lowerRe.MatchString(password) {
		return false, "Password must contain at least one lowercase letter"
	}
	if !digitRe.MatchString(password) {
		return false, "Password must contain at least one number"
	}
	if !specialRe.MatchString(password) {
		return false, `Password must contain at least one special character (!@#$%^&*(),.?":{}|<>)`
	}
	return true, "Valid password"
}

// Location is optional; when present it must be 2-255 characters of letters,
// digits, spaces, commas, periods, hyphens, and parentheses.
func Location(location string) (bool, string) {
	if location == "" {
		return true, "Location is optional"
	}
	location = strings.TrimSpace(location)
	if len(location) > 255 {
		return false, "Location must not exceed 255 characters"
	}
	if !locationRe.MatchString(location) {
		return false, "Location can only contain letters, numbers, spaces, commas, periods, hyphens, and parentheses"
	}
	if len(location) < 2 {
		return false, "Location must be at least 2 characters long"
	}
	return true, "Valid location"
}

func SkillName(skillName string) (bool, string) {
	skillName = strings.TrimSpace(skillName)
	if skillName == "" {
		return false, "Skill name is required"
	}
	if len(skillName) < 2 {
		return false, "Skill name must be at least 2 characters long"
	}
	if len(skillName) > 100 {
		return false, "Skill name must not exceed 100 characters"
	}
	if !skillNameRe.MatchString(skillName) {
		return false, "Skill name can only contain letters, numbers, spaces, hyphens, periods, plus signs, and hash symbols"
	}
	return true, "Valid skill name"
}

func ProficiencyLevel(level string) (bool, string) {
	for _, v := range validLevels {
		if level == v {
			return true, "Valid proficiency level"
		}
	}
	return false, fmt.Sprintf("Proficiency level must be one of: %s", strings.Join(validLevels, ", "))
}

func Day(day string) (bool, string) {
	for _, v := range validDays {
		if day == v {
			return true, "Valid day"
		}
	}
	return false, fmt.Sprintf("Day must be one of: %s", strings.Join(validDays, ", "))
}

func TimeSlot(slot string) (bool, string) {
	for _, v := range validSlots {
		if slot == v {
			return true, "Valid time slot"
		}
	}
	return false, fmt.Sprintf("Time slot must be one of: %s", strings.Join(validSlots, ", "))
}

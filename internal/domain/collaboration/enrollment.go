package collaboration

import (
	"regexp"
	"strings"
)

// enrollmentPattern is two digits of intake year, a 2-4 letter programme code and a 5 digit serial.
var enrollmentPattern = regexp.MustCompile(`^\d{2}[A-Z]{2,4}\d{5}$`)

// NormalizeEnrollmentNo trims and upper-cases an enrollment number and validates its format.
func NormalizeEnrollmentNo(raw string) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(raw))
	if !enrollmentPattern.MatchString(n) {
		return "", ErrInvalidEnrollmentNo
	}
	return n, nil
}

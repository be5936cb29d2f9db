package recipe

import (
	"fmt"
	"regexp"
)

var segmentRE = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_+.-]*$`)

// ValidSegment checks that s can be used as a single folder name below a
// store root: no separators, no leading dot, nothing empty.
func ValidSegment(s string) error {
	if !segmentRE.MatchString(s) {
		return fmt.Errorf("%q is not a valid name: want letters, digits and _+.- not starting with . - or +", s)
	}
	return nil
}

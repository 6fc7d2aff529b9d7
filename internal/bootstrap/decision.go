package bootstrap

import "strings"

// Decision is the outcome of the consent prompt.
type Decision int

const (
	Declined Decision = iota
	Accepted
)

func (d Decision) String() string {
	if d == Accepted {
		return "accepted"
	}
	return "declined"
}

// Decide maps a raw answer to a Decision. Only answers beginning with y or Y
// accept; everything else, including an empty answer, declines.
func Decide(answer string) Decision {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Declined
	}
	switch answer[0] {
	case 'y', 'Y':
		return Accepted
	default:
		return Declined
	}
}

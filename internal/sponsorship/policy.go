package sponsorship

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/i474232898/raincheck/internal/common"
)

// DefaultDenylist holds the promotional and spam terms rejected in sponsor messages.
var DefaultDenylist = []string{
	"spam", "scam", "free money", "click here", "buy now",
	"viagra", "casino", "gambling", "lottery", "winner",
}

// DefaultMaxMessageLength bounds a sponsor message in characters.
const DefaultMaxMessageLength = 200

var markupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)data:text/html`),
}

// ContentPolicy screens sponsor messages before they are stored.
type ContentPolicy struct {
	Denylist  []string
	MaxLength int
}

// DefaultPolicy returns the denylist and length limit used in production.
func DefaultPolicy() ContentPolicy {
	return ContentPolicy{Denylist: DefaultDenylist, MaxLength: DefaultMaxMessageLength}
}

// Check returns ErrInvalidContent when the message matches a denylisted term
// (case-insensitive substring) or embeds markup, and ErrInvalidSubmission when it is too long.
func (p ContentPolicy) Check(message string) error {
	if p.MaxLength > 0 && utf8.RuneCountInString(message) > p.MaxLength {
		return fmt.Errorf("%w: message longer than %d characters", ErrInvalidSubmission, p.MaxLength)
	}
	if term, ok := common.FirstMatchFold(message, p.Denylist...); ok {
		return fmt.Errorf("%w: %q is not allowed", ErrInvalidContent, term)
	}
	for _, re := range markupPatterns {
		if re.MatchString(message) {
			return fmt.Errorf("%w: markup is not allowed", ErrInvalidContent)
		}
	}
	return nil
}

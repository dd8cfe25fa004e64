package seats

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// InviteLink builds the shareable link that pre-fills code on the entry
// screen.
func InviteLink(baseURL, code string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	q := url.Values{}
	q.Set("code", training.NormalizeCode(code))
	return base + "/?" + q.Encode()
}

// InviteMessage is the ready-to-send text an administrator pastes into an
// email or chat for the company's employees.
func InviteMessage(baseURL string, ac *training.AccessCode, courseTitle string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s team,\n\n", ac.CompanyName)
	if courseTitle != "" {
		fmt.Fprintf(&b, "You have been enrolled in the training \"%s\".\n", courseTitle)
	} else {
		b.WriteString("You have been enrolled in a safety training.\n")
	}
	fmt.Fprintf(&b, "Start here: %s\n", InviteLink(baseURL, ac.Code))
	fmt.Fprintf(&b, "Access code: %s\n", ac.Code)
	fmt.Fprintf(&b, "Valid until: %s\n", ac.ExpiresAt.Format("2006-01-02"))
	if ac.SeatMode == training.SeatModeLimited {
		fmt.Fprintf(&b, "Seats remaining: %d of %d\n", ac.SeatsRemaining(), ac.SeatAllowance)
	}
	return b.String()
}

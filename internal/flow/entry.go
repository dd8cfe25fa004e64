package flow

import (
	"crypto/subtle"
	"net/url"
	"strings"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// EntrySource says where the access code used at ENTRY came from.
type EntrySource int

const (
	SourceNone EntrySource = iota
	SourcePath
	SourceQuery
	SourceSession
	SourceManual
)

func (s EntrySource) String() string {
	switch s {
	case SourcePath:
		return "invite-path"
	case SourceQuery:
		return "invite-query"
	case SourceSession:
		return "session"
	case SourceManual:
		return "manual"
	default:
		return "none"
	}
}

// Entry is the resolved starting point of a learner.
type Entry struct {
	Code    string
	Source  EntrySource
	Session *SavedSession
}

// ResolveEntry picks the access code to start with. An invite path
// segment (/invite/CODE) wins over a ?code= parameter, which wins over a
// resumable saved session, which wins over manual input.
func ResolveEntry(invite string, saved *SavedSession, manual string) Entry {
	if code, src := parseInvite(invite); code != "" {
		return Entry{Code: code, Source: src}
	}
	if saved != nil && saved.Step.Resumable() && saved.Learner.AccessCode != "" {
		return Entry{Code: training.NormalizeCode(saved.Learner.AccessCode), Source: SourceSession, Session: saved}
	}
	if code := training.NormalizeCode(manual); code != "" {
		return Entry{Code: code, Source: SourceManual}
	}
	return Entry{}
}

// parseInvite extracts a code from an invite link. It accepts full URLs,
// bare paths and bare query strings.
func parseInvite(invite string) (string, EntrySource) {
	invite = strings.TrimSpace(invite)
	if invite == "" {
		return "", SourceNone
	}
	u, err := url.Parse(invite)
	if err != nil {
		return "", SourceNone
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if strings.EqualFold(segments[i], "invite") {
			if code := training.NormalizeCode(segments[i+1]); code != "" {
				return code, SourcePath
			}
		}
	}

	q := u.Query()
	if u.RawQuery == "" && strings.HasPrefix(invite, "code=") {
		q, _ = url.ParseQuery(invite)
	}
	if code := training.NormalizeCode(q.Get("code")); code != "" {
		return code, SourceQuery
	}
	return "", SourceNone
}

// IsAdminPIN reports whether input is the admin sentinel. The comparison
// runs in constant time.
func IsAdminPIN(input, pin string) bool {
	if pin == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(input)), []byte(pin)) == 1
}

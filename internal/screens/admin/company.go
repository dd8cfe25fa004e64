package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/courses"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/seats"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/components"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// auditShown is how many audit entries the detail view lists.
const auditShown = 8

type companyMode int

const (
	modeView companyMode = iota
	modeTopUp
	modeInvite
	modeConfirmDelete
)

type companyLoadedMsg struct {
	Company *training.AccessCode
	Course  *training.Course
	Err     error
}

type companyUpdatedMsg struct {
	Company *training.AccessCode
	Note    string
	Err     error
}

type companyDeletedMsg struct {
	Removed int
	Err     error
}

// CompanyScreen shows one company with its seat audit log and the
// actions that change it.
type CompanyScreen struct {
	deps    Deps
	id      string
	company *training.AccessCode
	course  *training.Course
	mode    companyMode
	topUp   components.TextInput
	busy    bool
	note    string
	errMsg  string
}

var _ screen.Screen = (*CompanyScreen)(nil)
var _ screen.KeyHintProvider = (*CompanyScreen)(nil)
var _ screen.EscapeHandler = (*CompanyScreen)(nil)
var _ screen.Resumer = (*CompanyScreen)(nil)

// NewCompany creates the detail screen for the company with id.
func NewCompany(d Deps, id string) *CompanyScreen {
	return &CompanyScreen{
		deps:  d,
		id:    id,
		topUp: components.NewTextInput("e.g. 10 or -2", true, 6),
	}
}

func (s *CompanyScreen) load() tea.Cmd {
	d, id := s.deps, s.id
	return func() tea.Msg {
		ctx := context.Background()
		ac, err := d.Ledger.Get(ctx, id)
		if err != nil {
			return companyLoadedMsg{Err: err}
		}
		course, err := d.Catalog.Get(ctx, ac.CourseID)
		if err != nil && !errors.Is(err, courses.ErrCourseNotFound) {
			return companyLoadedMsg{Err: err}
		}
		return companyLoadedMsg{Company: ac, Course: course}
	}
}

func (s *CompanyScreen) Init() tea.Cmd {
	return s.load()
}

func (s *CompanyScreen) Resume() tea.Cmd {
	return s.load()
}

func (s *CompanyScreen) Title() string {
	if s.company != nil {
		return s.company.CompanyName
	}
	return "Company"
}

func (s *CompanyScreen) HandlesEsc() bool {
	return s.mode != modeView
}

func (s *CompanyScreen) KeyHints() []layout.KeyHint {
	switch s.mode {
	case modeTopUp:
		return []layout.KeyHint{{Key: "Enter", Description: "Apply"}, {Key: "Esc", Description: "Cancel"}}
	case modeInvite:
		return []layout.KeyHint{{Key: "Esc", Description: "Close"}}
	case modeConfirmDelete:
		return []layout.KeyHint{{Key: "y", Description: "Delete"}, {Key: "n", Description: "Keep"}}
	}
	return []layout.KeyHint{
		{Key: "t", Description: "Top up"},
		{Key: "m", Description: "Seat mode"},
		{Key: "x", Description: "Extend"},
		{Key: "i", Description: "Invite"},
		{Key: "v", Description: "Results"},
		{Key: "d", Description: "Delete"},
		{Key: "Esc", Description: "Back"},
	}
}

// Company returns the loaded company, or nil.
func (s *CompanyScreen) Company() *training.AccessCode {
	return s.company
}

// mutate runs a ledger change off the update loop.
func (s *CompanyScreen) mutate(note string, fn func(ctx context.Context, l *seats.Ledger) (*training.AccessCode, error)) tea.Cmd {
	s.busy = true
	s.errMsg, s.note = "", ""
	ledger := s.deps.Ledger
	return func() tea.Msg {
		ac, err := fn(context.Background(), ledger)
		return companyUpdatedMsg{Company: ac, Note: note, Err: err}
	}
}

func (s *CompanyScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case companyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.company, s.course = msg.Company, msg.Course
		return s, nil

	case companyUpdatedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.company = msg.Company
		s.note = msg.Note
		return s, nil

	case companyDeletedMsg:
		s.busy = false
		if msg.Err != nil {
			s.mode = modeView
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, pop

	case tea.KeyMsg:
		if s.company == nil || s.busy {
			return s, nil
		}
		switch s.mode {
		case modeTopUp:
			return s, s.updateTopUp(msg)
		case modeInvite:
			if k := msg.String(); k == "esc" || k == "enter" || k == "i" {
				s.mode = modeView
			}
			return s, nil
		case modeConfirmDelete:
			return s, s.updateConfirm(msg)
		}
		return s, s.updateView(msg)
	}
	return s, nil
}

func (s *CompanyScreen) updateView(msg tea.KeyMsg) tea.Cmd {
	id := s.company.ID
	switch msg.String() {
	case "t":
		s.mode = modeTopUp
		s.topUp.SetValue("")
		return s.topUp.Focus()
	case "m":
		next := training.SeatModeLimited
		if s.company.SeatMode == training.SeatModeLimited {
			next = training.SeatModeUnlimited
		}
		return s.mutate("Seat mode set to "+string(next)+".", func(ctx context.Context, l *seats.Ledger) (*training.AccessCode, error) {
			return l.UpdateSettings(ctx, id, seats.SettingsChange{SeatMode: &next})
		})
	case "x":
		from := s.company.ExpiresAt
		if now := s.deps.now(); from.Before(now) {
			from = now
		}
		expires := from.Add(training.DefaultExpiry)
		return s.mutate("Expiry extended to "+expires.Format("2006-01-02")+".", func(ctx context.Context, l *seats.Ledger) (*training.AccessCode, error) {
			return l.UpdateSettings(ctx, id, seats.SettingsChange{ExpiresAt: &expires})
		})
	case "i":
		s.mode = modeInvite
	case "v":
		return push(NewResults(s.deps, s.company.Code))
	case "d":
		s.mode = modeConfirmDelete
	}
	return nil
}

func (s *CompanyScreen) updateTopUp(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.mode = modeView
		s.topUp.Blur()
		return nil
	case "enter":
		delta, err := s.topUp.NumericValue()
		if err != nil || delta == 0 {
			s.errMsg = "Enter a non-zero number of seats."
			return nil
		}
		s.mode = modeView
		s.topUp.Blur()
		id := s.company.ID
		note := fmt.Sprintf("Allowance changed by %+d.", delta)
		return s.mutate(note, func(ctx context.Context, l *seats.Ledger) (*training.AccessCode, error) {
			return l.TopUp(ctx, id, delta)
		})
	}
	var cmd tea.Cmd
	s.topUp, cmd = s.topUp.Update(msg)
	return cmd
}

func (s *CompanyScreen) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y":
		s.busy = true
		ledger, id := s.deps.Ledger, s.company.ID
		return func() tea.Msg {
			n, err := ledger.DeleteCompany(context.Background(), id)
			return companyDeletedMsg{Removed: n, Err: err}
		}
	case "n", "esc":
		s.mode = modeView
	}
	return nil
}

func (s *CompanyScreen) View(width, height int) string {
	if s.company == nil {
		if s.errMsg != "" {
			return renderError(s.errMsg, width)
		}
		return renderLoading("company", width)
	}
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(heading(s.company.CompanyName, width))
	b.WriteString("\n\n")

	switch s.mode {
	case modeInvite:
		msg := seats.InviteMessage(s.deps.InviteBaseURL, s.company, courseName(s.course))
		b.WriteString(centered(components.Modal(theme.Label.Render("Invite message")+"\n\n"+theme.Body.Render(msg), cw), width))
		return b.String()
	case modeConfirmDelete:
		prompt := fmt.Sprintf("Delete %s (%s) and all of its results?\nThis cannot be undone.\n\nPress y to delete or n to keep it.",
			s.company.CompanyName, s.company.Code)
		b.WriteString(centered(components.Modal(theme.Incorrect.Render(prompt), cw), width))
		return b.String()
	}

	b.WriteString(centered(components.Card(s.renderDetails(), cw), width))
	b.WriteString("\n")
	if s.mode == modeTopUp {
		b.WriteString(centered(components.Card(theme.Label.Render("Seats to add (negative to remove)")+"\n"+s.topUp.View(), cw), width))
		b.WriteString("\n")
	}
	b.WriteString(centered(components.Card(s.renderAudit(), cw), width))
	b.WriteString("\n")
	if s.errMsg != "" {
		b.WriteString(centered(theme.ErrorLine.Render("✗ "+s.errMsg), width))
	} else {
		b.WriteString(noteLine(s.note, width))
	}
	return b.String()
}

func (s *CompanyScreen) renderDetails() string {
	ac := s.company
	now := s.deps.now()
	remaining := "unlimited"
	if n := ac.SeatsRemaining(); n >= 0 {
		remaining = fmt.Sprintf("%d", n)
	}
	expiry := expiryLabel(ac, now)
	if ac.Expired(now) {
		expiry = theme.Warn.Render(expiry)
	}
	rows := [][2]string{
		{"Access code", ac.Code},
		{"Course", courseName(s.course)},
		{"Seat mode", string(ac.SeatMode)},
		{"Seats", seatSummary(ac)},
		{"Remaining", remaining},
		{"Expires", expiry},
		{"Created", ac.CreatedAt.Format("2006-01-02")},
		{"Invite link", seats.InviteLink(s.deps.InviteBaseURL, ac.Code)},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(theme.Label.Render(fmt.Sprintf("%-13s", r[0])))
		b.WriteString(theme.Body.Render(r[1]))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *CompanyScreen) renderAudit() string {
	var b strings.Builder
	b.WriteString(theme.Label.Render("Seat history"))
	b.WriteString("\n")
	log := s.company.AuditLog
	if len(log) == 0 {
		b.WriteString(theme.Hint.Render("No changes recorded."))
		return b.String()
	}
	for i := 0; i < len(log) && i < auditShown; i++ {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(AuditLine(log[i])))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// AuditLine renders one audit entry.
func AuditLine(e training.SeatAuditEntry) string {
	ts := e.Timestamp.Format("2006-01-02 15:04")
	switch e.Type {
	case training.AuditModeChange:
		return fmt.Sprintf("%s  %-12s → %s", ts, e.Type, e.Mode)
	case training.AuditInitial:
		if e.Amount != nil {
			return fmt.Sprintf("%s  %-12s %d seats (%s)", ts, e.Type, *e.Amount, e.Mode)
		}
		return fmt.Sprintf("%s  %-12s %s", ts, e.Type, e.Mode)
	}
	var amount, total string
	if e.Amount != nil {
		amount = fmt.Sprintf("%+d", *e.Amount)
	}
	if e.TotalLimit != nil {
		total = fmt.Sprintf("total %d", *e.TotalLimit)
	}
	return strings.TrimSpace(fmt.Sprintf("%s  %-12s %s %s", ts, e.Type, amount, total))
}

func courseName(c *training.Course) string {
	if c == nil {
		return "Unknown Training"
	}
	return c.Title
}

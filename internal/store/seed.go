package store

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/panel/internal/dashboard"
)

var (
	firstNames = []string{"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Jamie", "Avery",
		"Quinn", "Harper", "Rowan", "Emery", "Sage", "Reese", "Dakota", "Skyler"}
	lastNames = []string{"Smith", "Brown", "Garcia", "Nguyen", "Müller", "Kowalski", "Okafor", "Silva",
		"Johansson", "Rossi", "Tanaka", "Dubois", "Novak", "Ahmed", "Kim", "Walsh"}
	locations = []string{"New York, USA", "London, UK", "Paris, France", "Berlin, Germany",
		"Tokyo, Japan", "São Paulo, Brazil", "Toronto, Canada", "Lagos, Nigeria", "Sydney, Australia"}
	subjects = []string{"Meeting tomorrow", "Invoice overdue", "Welcome aboard", "Quarterly report",
		"Password reset", "Lunch on Friday?", "Design review notes", "Your order has shipped"}
	bodies = []string{
		"Hi, just following up on our conversation from last week. Let me know when you have a moment.",
		"Please find the attached document. It covers everything we discussed.",
		"Thanks for signing up! Here are a few tips to get started.",
		"The numbers look good this quarter. A full breakdown is below.",
	}
	notices = []string{"sent you a message", "mentioned you in a comment", "subscribed to your newsletter",
		"replied to your thread", "invited you to a workspace"}
)

// SetClock overrides the time source used by Seed.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Seed fills the store with n random customers and mails plus a smaller set
// of members and notifications. The same rnd seed yields the same dataset.
func (s *Store) Seed(ctx context.Context, n int, rnd *rand.Rand) error {
	if n <= 0 {
		return fmt.Errorf("seed: n must be positive, got %d", n)
	}
	s.mu.RLock()
	now := s.now()
	s.mu.RUnlock()

	g := generator{rnd: rnd, now: now}

	customers := make([]dashboard.Customer, n)
	for i := range customers {
		customers[i] = g.customer()
	}
	if err := s.SaveCustomers(ctx, customers); err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}

	members := make([]dashboard.Member, max(n/3, 1))
	for i := range members {
		members[i] = g.member(i == 0)
	}
	if err := s.SaveMembers(ctx, members); err != nil {
		return fmt.Errorf("seed members: %w", err)
	}

	mails := make([]dashboard.Mail, n)
	for i := range mails {
		mails[i] = g.mail()
	}
	if err := s.SaveMails(ctx, mails); err != nil {
		return fmt.Errorf("seed mails: %w", err)
	}

	notifications := make([]dashboard.Notification, max(n/4, 1))
	for i := range notifications {
		notifications[i] = g.notification()
	}
	if err := s.SaveNotifications(ctx, notifications); err != nil {
		return fmt.Errorf("seed notifications: %w", err)
	}
	return nil
}

type generator struct {
	rnd *rand.Rand
	now time.Time
}

func (g generator) id() string {
	id, err := uuid.NewRandomFromReader(g.rnd)
	if err != nil {
		// rand.Rand.Read never fails
		panic(err)
	}
	return id.String()
}

func (g generator) pick(from []string) string {
	return from[g.rnd.Intn(len(from))]
}

func (g generator) name() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

func handle(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "."))
}

// ago returns a time up to 30 days before now, truncated to the second so
// it survives storage unchanged.
func (g generator) ago() time.Time {
	return g.now.Add(-time.Duration(g.rnd.Int63n(int64(30 * 24 * time.Hour)))).UTC().Truncate(time.Second)
}

func (g generator) customer() dashboard.Customer {
	name := g.name()
	id := g.id()
	c := dashboard.Customer{
		ID:       id,
		Name:     name,
		Email:    handle(name) + "@example.com",
		Status:   g.pick(dashboard.CustomerStatuses),
		Location: g.pick(locations),
	}
	if g.rnd.Intn(3) > 0 {
		c.Avatar = "https://i.pravatar.cc/128?u=" + id
	}
	return c
}

func (g generator) member(owner bool) dashboard.Member {
	name := g.name()
	role := dashboard.RoleMember
	if owner {
		role = dashboard.RoleOwner
	}
	id := g.id()
	return dashboard.Member{
		ID:       id,
		Name:     name,
		Username: handle(name),
		Role:     role,
		Avatar:   "https://i.pravatar.cc/128?u=" + id,
	}
}

func (g generator) mail() dashboard.Mail {
	name := g.name()
	return dashboard.Mail{
		ID:      g.id(),
		Unread:  g.rnd.Intn(3) == 0,
		From:    dashboard.Sender{Name: name, Email: handle(name) + "@example.com"},
		Subject: g.pick(subjects),
		Body:    g.pick(bodies),
		Date:    g.ago(),
	}
}

func (g generator) notification() dashboard.Notification {
	return dashboard.Notification{
		ID:     g.id(),
		Unread: g.rnd.Intn(2) == 0,
		Sender: g.name(),
		Body:   g.pick(notices),
		Date:   g.ago(),
	}
}

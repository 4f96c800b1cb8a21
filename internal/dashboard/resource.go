// Package dashboard defines the admin dashboard's resources and shared UI
// state: customers, members, mails and notifications, how each becomes a
// record, and how statuses map to badges.
package dashboard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abelbrown/panel/internal/order"
	"github.com/abelbrown/panel/internal/record"
)

// Resource names a collection served under /api/<resource>.
type Resource string

const (
	Customers     Resource = "customers"
	Members       Resource = "members"
	Mails         Resource = "mails"
	Notifications Resource = "notifications"
)

// Resources lists every resource in display order.
var Resources = []Resource{Customers, Members, Mails, Notifications}

// ParseResource validates a resource name.
func ParseResource(s string) (Resource, error) {
	for _, r := range Resources {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

// Path returns the API path, e.g. "/api/customers".
func (r Resource) Path() string {
	return "/api/" + string(r)
}

// SearchFields are the record fields the search box matches.
func (r Resource) SearchFields() []string {
	switch r {
	case Customers:
		return []string{"name", "email"}
	case Members:
		return []string{"name", "username"}
	case Mails:
		return []string{"from_name", "subject"}
	case Notifications:
		return []string{"sender", "body"}
	}
	return nil
}

// CategoryField is the field behind the resource's categorical filter, or
// "" when it has none.
func (r Resource) CategoryField() string {
	switch r {
	case Customers:
		return "status"
	case Members:
		return "role"
	case Mails, Notifications:
		return "unread"
	}
	return ""
}

// DefaultSort is the order the resource is first shown in.
func (r Resource) DefaultSort() order.Spec {
	switch r {
	case Mails, Notifications:
		return order.Spec{Field: "date", Dir: order.Desc}
	}
	return order.Spec{}
}

// Decode parses a JSON array of the resource and converts it to records.
func (r Resource) Decode(data []byte) ([]record.Record, error) {
	switch r {
	case Customers:
		return decode[Customer](data)
	case Members:
		return decode[Member](data)
	case Mails:
		return decode[Mail](data)
	case Notifications:
		return decode[Notification](data)
	}
	return nil, fmt.Errorf("unknown resource %q", string(r))
}

type recordable interface {
	ToRecord() record.Record
}

func decode[T recordable](data []byte) ([]record.Record, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	records := make([]record.Record, len(items))
	for i, it := range items {
		records[i] = it.ToRecord()
	}
	return records, nil
}

// Customer is a row of the customers table.
type Customer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Status   string `json:"status"`
	Location string `json:"location"`
}

// Customer statuses.
const (
	StatusSubscribed   = "subscribed"
	StatusUnsubscribed = "unsubscribed"
	StatusBounced      = "bounced"
)

// CustomerStatuses lists the known statuses in filter-cycle order.
var CustomerStatuses = []string{StatusSubscribed, StatusUnsubscribed, StatusBounced}

func (c Customer) ToRecord() record.Record {
	return record.New(c.ID, map[string]record.Value{
		"name":     record.Str(c.Name),
		"email":    record.Str(c.Email),
		"avatar":   optional(c.Avatar),
		"status":   record.Str(c.Status),
		"location": optional(c.Location),
	})
}

// Member is a workspace member.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar,omitempty"`
}

// Member roles.
const (
	RoleMember = "member"
	RoleOwner  = "owner"
)

func (m Member) ToRecord() record.Record {
	return record.New(m.ID, map[string]record.Value{
		"name":     record.Str(m.Name),
		"username": record.Str(m.Username),
		"role":     record.Str(m.Role),
		"avatar":   optional(m.Avatar),
	})
}

// Sender identifies who sent a mail.
type Sender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Mail is an inbox message.
type Mail struct {
	ID      string    `json:"id"`
	Unread  bool      `json:"unread"`
	From    Sender    `json:"from"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Date    time.Time `json:"date"`
}

func (m Mail) ToRecord() record.Record {
	return record.New(m.ID, map[string]record.Value{
		"unread":     record.Bool(m.Unread),
		"from_name":  record.Str(m.From.Name),
		"from_email": record.Str(m.From.Email),
		"subject":    record.Str(m.Subject),
		"body":       record.Str(m.Body),
		"date":       record.Time(m.Date),
	})
}

// Notification is an entry of the notifications slideover.
type Notification struct {
	ID     string    `json:"id"`
	Unread bool      `json:"unread"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	Date   time.Time `json:"date"`
}

func (n Notification) ToRecord() record.Record {
	return record.New(n.ID, map[string]record.Value{
		"unread": record.Bool(n.Unread),
		"sender": record.Str(n.Sender),
		"body":   record.Str(n.Body),
		"date":   record.Time(n.Date),
	})
}

// optional maps "" to null so it sorts last.
func optional(s string) record.Value {
	if s == "" {
		return record.Null()
	}
	return record.Str(s)
}

package entity

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one immutable transcript entry. Seq is strictly increasing within a
// session and doubles as the display key.
type Turn struct {
	Seq       uint64    `json:"seq"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

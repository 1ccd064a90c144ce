package domain

import "time"

// Preview holds social-card metadata served to crawlers instead of a
// redirect. It never changes the redirect target.
type Preview struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

func (p Preview) IsZero() bool {
	return p.Title == "" && p.Description == "" && p.ImageURL == ""
}

// Click is one recorded visit against a Link. It has no identity of its
// own; it lives only inside its parent Link's history.
type Click struct {
	Timestamp  time.Time `json:"timestamp"`
	Referrer   string    `json:"referrer"`
	UserAgent  string    `json:"user_agent"`
	SourceIP   string    `json:"source_ip"`
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
}

// Link is the authoritative record behind a short code.
//
// Invariants: Code is globally unique and never recycled, and
// ClickCount == len(ClickHistory) at every observable point.
type Link struct {
	Code         string    `json:"code"`
	TargetURL    string    `json:"target_url"`
	CustomAlias  string    `json:"custom_alias,omitempty"`
	OwnerID      string    `json:"owner_id,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Preview      Preview   `json:"preview,omitempty"`
	ClickCount   int64     `json:"click_count"`
	ClickHistory []Click   `json:"click_history,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the link is past its expiry at the given
// instant. The boundary is inclusive: a link expires the moment
// now == ExpiresAt.
func (l *Link) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// PasswordProtected reports whether resolution requires a password.
func (l *Link) PasswordProtected() bool {
	return l.PasswordHash != ""
}

// Clone returns a deep copy so repository callers can't mutate stored
// state through the returned pointer.
func (l *Link) Clone() *Link {
	c := *l
	if l.ClickHistory != nil {
		c.ClickHistory = make([]Click, len(l.ClickHistory))
		copy(c.ClickHistory, l.ClickHistory)
	}
	return &c
}

// CreateLinkRequest carries the caller-supplied fields for link creation.
type CreateLinkRequest struct {
	TargetURL   string     `json:"url" validate:"required"`
	CustomAlias string     `json:"custom_alias,omitempty" validate:"omitempty,min=3,max=30,alias"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Password    string     `json:"password,omitempty" validate:"omitempty,min=4,max=72"`
	Preview     *Preview   `json:"preview,omitempty"`
	OwnerID     string     `json:"owner_id,omitempty"`
}

// Visitor describes the client behind a resolution request.
type Visitor struct {
	Referrer  string
	UserAgent string
	SourceIP  string
}

// Resolution is the successful outcome of resolving a short code.
// Preview is non-nil only for crawler requests against a link that
// carries preview metadata; such callers render the preview payload
// instead of issuing a redirect.
type Resolution struct {
	TargetURL string
	Preview   *Preview
}

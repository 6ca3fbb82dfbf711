package leads

import (
	"strings"
	"time"
)

// Pipeline statuses. Status is stored as an open string so records written
// by older clients with other labels still load.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusProposal  = "proposal"
	StatusConverted = "converted"
	StatusClosed    = "closed"
	StatusLost      = "lost"
)

// LeadTypeHot marks a lead the sales user flagged as hot.
const LeadTypeHot = "hot"

var knownStatuses = map[string]struct{}{
	StatusNew:       {},
	StatusContacted: {},
	StatusQualified: {},
	StatusProposal:  {},
	StatusConverted: {},
	StatusClosed:    {},
	StatusLost:      {},
}

// NormalizeStatus trims and lower-cases a status label.
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsKnownStatus reports whether status is one of the pipeline statuses.
func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[NormalizeStatus(status)]
	return ok
}

// IsClosed reports whether status belongs to the closed category.
// "converted" and "closed" are the same category under different labels.
func IsClosed(status string) bool {
	switch NormalizeStatus(status) {
	case StatusClosed, StatusConverted:
		return true
	}
	return false
}

// Statuses returns the pipeline statuses in funnel order.
func Statuses() []string {
	return []string{StatusNew, StatusContacted, StatusQualified, StatusProposal, StatusConverted, StatusClosed, StatusLost}
}

// Lead is a prospective customer owned by a single sales user.
type Lead struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Company        string    `json:"company,omitempty"`
	Status         string    `json:"status"`
	Score          float64   `json:"score"`
	PotentialValue float64   `json:"potential_value"`
	LeadType       string    `json:"lead_type,omitempty"`
	Urgency        string    `json:"urgency,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	NextFollowupAt Timestamp `json:"next_followup_at"`
	LastContacted  Timestamp `json:"last_contacted"`
	CreatedAt      Timestamp `json:"created_at"`
	UpdatedAt      Timestamp `json:"updated_at"`
}

// IsHot reports whether the lead type is the hot modifier.
func (l Lead) IsHot() bool {
	return strings.EqualFold(strings.TrimSpace(l.LeadType), LeadTypeHot)
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	UserID         string    `json:"-"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Company        string    `json:"company"`
	Status         string    `json:"status"`
	Score          float64   `json:"score"`
	PotentialValue float64   `json:"potential_value"`
	LeadType       string    `json:"lead_type"`
	Urgency        string    `json:"urgency"`
	Notes          string    `json:"notes"`
	Tags           []string  `json:"tags"`
	NextFollowupAt Timestamp `json:"next_followup_at"`
}

// Validate validates the create lead request and fills defaults
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrMissingUserID
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Status == "" {
		r.Status = StatusNew
	}
	if !IsKnownStatus(r.Status) {
		return ErrInvalidStatus
	}
	r.Status = NormalizeStatus(r.Status)
	if r.Score < 0 || r.PotentialValue < 0 {
		return ErrNegativeValue
	}
	if r.NextFollowupAt.Invalid() {
		return ErrInvalidTimestamp
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return nil
}

// UpdateLeadRequest carries a partial update; nil fields are left untouched.
type UpdateLeadRequest struct {
	Name           *string    `json:"name"`
	Email          *string    `json:"email"`
	Phone          *string    `json:"phone"`
	Company        *string    `json:"company"`
	Status         *string    `json:"status"`
	Score          *float64   `json:"score"`
	PotentialValue *float64   `json:"potential_value"`
	LeadType       *string    `json:"lead_type"`
	Urgency        *string    `json:"urgency"`
	Notes          *string    `json:"notes"`
	Tags           []string   `json:"tags"`
	NextFollowupAt *Timestamp `json:"next_followup_at"`
	LastContacted  *Timestamp `json:"last_contacted"`
}

// Validate checks the fields that are present.
func (r *UpdateLeadRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ErrInvalidName
	}
	if r.Status != nil {
		if !IsKnownStatus(*r.Status) {
			return ErrInvalidStatus
		}
		normalized := NormalizeStatus(*r.Status)
		r.Status = &normalized
	}
	if (r.Score != nil && *r.Score < 0) || (r.PotentialValue != nil && *r.PotentialValue < 0) {
		return ErrNegativeValue
	}
	if (r.NextFollowupAt != nil && r.NextFollowupAt.Invalid()) || (r.LastContacted != nil && r.LastContacted.Invalid()) {
		return ErrInvalidTimestamp
	}
	return nil
}

// Apply copies the present fields onto lead and stamps UpdatedAt.
func (r *UpdateLeadRequest) Apply(lead *Lead, now time.Time) {
	if r.Name != nil {
		lead.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		lead.Email = strings.TrimSpace(*r.Email)
	}
	if r.Phone != nil {
		lead.Phone = *r.Phone
	}
	if r.Company != nil {
		lead.Company = *r.Company
	}
	if r.Status != nil {
		lead.Status = *r.Status
	}
	if r.Score != nil {
		lead.Score = *r.Score
	}
	if r.PotentialValue != nil {
		lead.PotentialValue = *r.PotentialValue
	}
	if r.LeadType != nil {
		lead.LeadType = *r.LeadType
	}
	if r.Urgency != nil {
		lead.Urgency = *r.Urgency
	}
	if r.Notes != nil {
		lead.Notes = *r.Notes
	}
	if r.Tags != nil {
		lead.Tags = append([]string(nil), r.Tags...)
	}
	if r.NextFollowupAt != nil {
		lead.NextFollowupAt = *r.NextFollowupAt
	}
	if r.LastContacted != nil {
		lead.LastContacted = *r.LastContacted
	}
	lead.UpdatedAt = NewTimestamp(now)
}

// ListLeadsFilter narrows a listing.
type ListLeadsFilter struct {
	Status string
	Limit  int
	Offset int
}

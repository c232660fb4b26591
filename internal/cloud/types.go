package cloud

import "time"

// Membership is one organization the authenticated key belongs to.
// API keys are organization-bound, so List typically returns one entry.
type Membership struct {
	MemberID       int    `json:"member_id"`
	OrgUUID        string `json:"org_uuid"`
	OrgName        string `json:"org_name"`
	OrgDisplayName string `json:"org_display_name"`
	Role           string `json:"role"`   // admin or member
	Status         string `json:"status"` // active, inactive, invited
}

// Stack is a unit of infrastructure change tracked by the cloud.
type Stack struct {
	StackID         int       `json:"stack_id"`
	Repository      string    `json:"repository"`
	Path            string    `json:"path"`
	Target          string    `json:"target"`
	Status          string    `json:"status"` // ok, drifted, failed, unknown
	MetaID          string    `json:"meta_id"`
	MetaName        string    `json:"meta_name"`
	MetaDescription string    `json:"meta_description"`
	MetaTags        []string  `json:"meta_tags"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Drift is one drift detection run for a stack.
type Drift struct {
	ID        int       `json:"id"`
	Status    string    `json:"status"` // drifted, ok, failed
	CreatedAt time.Time `json:"created_at"`
}

// Deployment is one deployment run for a stack.
type Deployment struct {
	UUID      string    `json:"deployment_uuid"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewRequest is a pull/merge request known to the cloud.
type ReviewRequest struct {
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	Status     string    `json:"status"` // open, merged, closed
	Repository string    `json:"repository"`
	Draft      bool      `json:"draft"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PaginatedResult carries pagination metadata on list responses.
type PaginatedResult struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// TotalPages returns the number of pages for the reported total.
func (p *PaginatedResult) TotalPages() int {
	if p.PerPage == 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// ListOptions are common pagination options for list calls.
type ListOptions struct {
	Page    int
	PerPage int
}

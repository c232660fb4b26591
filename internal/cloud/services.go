package cloud

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// OrganizationsService queries organization memberships.
type OrganizationsService struct {
	client *Client
}

// List returns the organizations the API key belongs to.
//
// GET /v1/memberships
func (s *OrganizationsService) List(ctx context.Context) ([]Membership, error) {
	req, err := s.client.newRequest(ctx, http.MethodGet, "/v1/memberships", nil)
	if err != nil {
		return nil, err
	}

	// The API returns a bare array, not a wrapped object.
	var memberships []Membership
	if err := s.client.do(req, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// StacksService queries stacks.
type StacksService struct {
	client *Client
}

// StackListOptions filter a stack listing.
type StackListOptions struct {
	ListOptions
	Status     string // ok, drifted, failed, unknown
	Repository string
	Search     string
}

// StackList is a page of stacks.
type StackList struct {
	Stacks          []Stack         `json:"stacks"`
	PaginatedResult PaginatedResult `json:"paginated_result"`
}

// List returns the organization's stacks matching opts.
//
// GET /v1/stacks/{org_uuid}
func (s *StacksService) List(ctx context.Context, orgUUID string, opts *StackListOptions) (*StackList, error) {
	if orgUUID == "" {
		return nil, fmt.Errorf("organization UUID is required")
	}

	path := "/v1/stacks/" + orgUUID
	if opts != nil {
		query := url.Values{}
		addPagination(query, opts.ListOptions)
		addString(query, "status", opts.Status)
		addString(query, "repository", opts.Repository)
		addString(query, "search", opts.Search)
		if len(query) > 0 {
			path += "?" + query.Encode()
		}
	}

	req, err := s.client.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result StackList
	if err := s.client.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get returns one stack by ID.
//
// GET /v1/stacks/{org_uuid}/{stack_id}
func (s *StacksService) Get(ctx context.Context, orgUUID string, stackID int) (*Stack, error) {
	if orgUUID == "" {
		return nil, fmt.Errorf("organization UUID is required")
	}
	if stackID <= 0 {
		return nil, fmt.Errorf("stack ID must be positive")
	}

	req, err := s.client.newRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/stacks/%s/%d", orgUUID, stackID), nil)
	if err != nil {
		return nil, err
	}

	var stack Stack
	if err := s.client.do(req, &stack); err != nil {
		return nil, err
	}
	return &stack, nil
}

// DriftsService queries drift detection runs.
type DriftsService struct {
	client *Client
}

// DriftList is a page of drift runs.
type DriftList struct {
	Drifts          []Drift         `json:"drifts"`
	PaginatedResult PaginatedResult `json:"paginated_result"`
}

// ListForStack returns the drift runs recorded for one stack.
//
// GET /v1/stacks/{org_uuid}/{stack_id}/drifts
func (s *DriftsService) ListForStack(ctx context.Context, orgUUID string, stackID int, opts *ListOptions) (*DriftList, error) {
	if orgUUID == "" {
		return nil, fmt.Errorf("organization UUID is required")
	}
	if stackID <= 0 {
		return nil, fmt.Errorf("stack ID must be positive")
	}

	path := fmt.Sprintf("/v1/stacks/%s/%d/drifts", orgUUID, stackID)
	if opts != nil {
		query := url.Values{}
		addPagination(query, *opts)
		if len(query) > 0 {
			path += "?" + query.Encode()
		}
	}

	req, err := s.client.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result DriftList
	if err := s.client.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeploymentsService queries deployment runs.
type DeploymentsService struct {
	client *Client
}

// DeploymentList is a page of deployments.
type DeploymentList struct {
	Deployments     []Deployment    `json:"deployments"`
	PaginatedResult PaginatedResult `json:"paginated_result"`
}

// ListForStack returns the deployments recorded for one stack.
//
// GET /v1/stacks/{org_uuid}/{stack_id}/deployments
func (s *DeploymentsService) ListForStack(ctx context.Context, orgUUID string, stackID int, opts *ListOptions) (*DeploymentList, error) {
	if orgUUID == "" {
		return nil, fmt.Errorf("organization UUID is required")
	}
	if stackID <= 0 {
		return nil, fmt.Errorf("stack ID must be positive")
	}

	path := fmt.Sprintf("/v1/stacks/%s/%d/deployments", orgUUID, stackID)
	if opts != nil {
		query := url.Values{}
		addPagination(query, *opts)
		if len(query) > 0 {
			path += "?" + query.Encode()
		}
	}

	req, err := s.client.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result DeploymentList
	if err := s.client.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReviewRequestsService queries review requests.
type ReviewRequestsService struct {
	client *Client
}

// ReviewRequestListOptions filter a review request listing.
type ReviewRequestListOptions struct {
	ListOptions
	Status     string // open, merged, closed
	Repository string
}

// ReviewRequestList is a page of review requests.
type ReviewRequestList struct {
	ReviewRequests  []ReviewRequest `json:"review_requests"`
	PaginatedResult PaginatedResult `json:"paginated_result"`
}

// List returns the organization's review requests matching opts.
//
// GET /v1/review_requests/{org_uuid}
func (s *ReviewRequestsService) List(ctx context.Context, orgUUID string, opts *ReviewRequestListOptions) (*ReviewRequestList, error) {
	if orgUUID == "" {
		return nil, fmt.Errorf("organization UUID is required")
	}

	path := "/v1/review_requests/" + orgUUID
	if opts != nil {
		query := url.Values{}
		addPagination(query, opts.ListOptions)
		addString(query, "status", opts.Status)
		addString(query, "repository", opts.Repository)
		if len(query) > 0 {
			path += "?" + query.Encode()
		}
	}

	req, err := s.client.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result ReviewRequestList
	if err := s.client.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func addPagination(query url.Values, opts ListOptions) {
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(opts.PerPage))
	}
}

func addString(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}

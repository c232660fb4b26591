package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/strata/internal/cloud"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerCloudTools registers the cloud API tools. Only called when an
// API key is configured.
func registerCloudTools(s *mcp.Server, h *handler) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "stack_organizations",
		Description: `List the cloud organizations the configured API key belongs to.

API keys are organization-bound, so this typically returns a single entry.
Use the returned UUID as org_uuid for the other cloud tools.`,
	}, h.organizationsHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "stack_list",
		Description: `List cloud stacks for an organization, or fetch one stack by ID.

Supports filtering by status (ok, drifted, failed, unknown), repository,
and a free-text search term. Results are paginated.`,
	}, h.stacksHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "stack_drifts",
		Description: "List the drift detection runs recorded for one stack.",
	}, h.driftsHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "stack_deployments",
		Description: "List the deployments recorded for one stack.",
	}, h.deploymentsHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "stack_review_requests",
		Description: `List the review requests known to the cloud for an organization.

Supports filtering by status (open, merged, closed) and repository.`,
	}, h.reviewRequestsHandler)
}

type organizationsParams struct{}

func (h *handler) organizationsHandler(ctx context.Context, req *mcp.CallToolRequest, params organizationsParams) (*mcp.CallToolResult, any, error) {
	memberships, err := h.cloud.Organizations.List(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("listing organizations: %v", err))
	}
	if len(memberships) == 0 {
		return textResult("No organization memberships found for this API key.")
	}

	var b strings.Builder
	for i, m := range memberships {
		if i > 0 {
			b.WriteString("---\n")
		}
		fmt.Fprintf(&b, "Organization: %s\n", m.OrgDisplayName)
		fmt.Fprintf(&b, "Short Name: %s\n", m.OrgName)
		fmt.Fprintf(&b, "UUID: %s\n", m.OrgUUID)
		fmt.Fprintf(&b, "Role: %s\n", m.Role)
		fmt.Fprintf(&b, "Status: %s\n", m.Status)
	}
	return textResult(b.String())
}

type stacksParams struct {
	OrgUUID    string `json:"org_uuid" jsonschema:"Organization UUID from stack_organizations."`
	StackID    int    `json:"stack_id,omitempty" jsonschema:"Fetch one stack by ID instead of listing."`
	Status     string `json:"status,omitempty" jsonschema:"Filter by stack status (ok, drifted, failed, unknown)."`
	Repository string `json:"repository,omitempty" jsonschema:"Filter by repository."`
	Search     string `json:"search,omitempty" jsonschema:"Search term matching stack name, description, or path."`
	Page       int    `json:"page,omitempty" jsonschema:"Page number, starting at 1."`
	PerPage    int    `json:"per_page,omitempty" jsonschema:"Items per page."`
}

func (h *handler) stacksHandler(ctx context.Context, req *mcp.CallToolRequest, params stacksParams) (*mcp.CallToolResult, any, error) {
	if params.StackID > 0 {
		stack, err := h.cloud.Stacks.Get(ctx, params.OrgUUID, params.StackID)
		if err != nil {
			return errorResult(fmt.Sprintf("fetching stack %d: %v", params.StackID, err))
		}
		return textResult(formatStack(stack))
	}

	res, err := h.cloud.Stacks.List(ctx, params.OrgUUID, &cloud.StackListOptions{
		ListOptions: cloud.ListOptions{Page: params.Page, PerPage: params.PerPage},
		Status:      params.Status,
		Repository:  params.Repository,
		Search:      params.Search,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("listing stacks: %v", err))
	}
	if len(res.Stacks) == 0 {
		return textResult("No stacks found.")
	}

	var b strings.Builder
	for i := range res.Stacks {
		if i > 0 {
			b.WriteString("---\n")
		}
		b.WriteString(formatStack(&res.Stacks[i]))
	}
	writePageFooter(&b, res.PaginatedResult)
	return textResult(b.String())
}

func formatStack(s *cloud.Stack) string {
	var b strings.Builder
	name := s.MetaName
	if name == "" {
		name = "Unnamed"
	}
	fmt.Fprintf(&b, "Stack: %s (ID: %d)\n", name, s.StackID)
	fmt.Fprintf(&b, "Repository: %s\n", s.Repository)
	fmt.Fprintf(&b, "Path: %s\n", s.Path)
	fmt.Fprintf(&b, "Status: %s\n", s.Status)
	if s.Target != "" {
		fmt.Fprintf(&b, "Target: %s\n", s.Target)
	}
	if s.MetaDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", s.MetaDescription)
	}
	if len(s.MetaTags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(s.MetaTags, ", "))
	}
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "Updated: %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return b.String()
}

type driftsParams struct {
	OrgUUID string `json:"org_uuid" jsonschema:"Organization UUID from stack_organizations."`
	StackID int    `json:"stack_id" jsonschema:"Stack ID from stack_list."`
	Page    int    `json:"page,omitempty" jsonschema:"Page number, starting at 1."`
	PerPage int    `json:"per_page,omitempty" jsonschema:"Items per page."`
}

func (h *handler) driftsHandler(ctx context.Context, req *mcp.CallToolRequest, params driftsParams) (*mcp.CallToolResult, any, error) {
	res, err := h.cloud.Drifts.ListForStack(ctx, params.OrgUUID, params.StackID,
		&cloud.ListOptions{Page: params.Page, PerPage: params.PerPage})
	if err != nil {
		return errorResult(fmt.Sprintf("listing drifts: %v", err))
	}
	if len(res.Drifts) == 0 {
		return textResult("No drift runs recorded for this stack.")
	}

	var b strings.Builder
	for _, d := range res.Drifts {
		fmt.Fprintf(&b, "Drift %d: %s", d.ID, d.Status)
		if !d.CreatedAt.IsZero() {
			fmt.Fprintf(&b, " (%s)", d.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		}
		b.WriteString("\n")
	}
	writePageFooter(&b, res.PaginatedResult)
	return textResult(b.String())
}

type deploymentsParams struct {
	OrgUUID string `json:"org_uuid" jsonschema:"Organization UUID from stack_organizations."`
	StackID int    `json:"stack_id" jsonschema:"Stack ID from stack_list."`
	Page    int    `json:"page,omitempty" jsonschema:"Page number, starting at 1."`
	PerPage int    `json:"per_page,omitempty" jsonschema:"Items per page."`
}

func (h *handler) deploymentsHandler(ctx context.Context, req *mcp.CallToolRequest, params deploymentsParams) (*mcp.CallToolResult, any, error) {
	res, err := h.cloud.Deployments.ListForStack(ctx, params.OrgUUID, params.StackID,
		&cloud.ListOptions{Page: params.Page, PerPage: params.PerPage})
	if err != nil {
		return errorResult(fmt.Sprintf("listing deployments: %v", err))
	}
	if len(res.Deployments) == 0 {
		return textResult("No deployments recorded for this stack.")
	}

	var b strings.Builder
	for _, d := range res.Deployments {
		fmt.Fprintf(&b, "Deployment %s: %s", d.UUID, d.Status)
		if !d.CreatedAt.IsZero() {
			fmt.Fprintf(&b, " (%s)", d.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		}
		b.WriteString("\n")
	}
	writePageFooter(&b, res.PaginatedResult)
	return textResult(b.String())
}

type reviewRequestsParams struct {
	OrgUUID    string `json:"org_uuid" jsonschema:"Organization UUID from stack_organizations."`
	Status     string `json:"status,omitempty" jsonschema:"Filter by status (open, merged, closed)."`
	Repository string `json:"repository,omitempty" jsonschema:"Filter by repository."`
	Page       int    `json:"page,omitempty" jsonschema:"Page number, starting at 1."`
	PerPage    int    `json:"per_page,omitempty" jsonschema:"Items per page."`
}

func (h *handler) reviewRequestsHandler(ctx context.Context, req *mcp.CallToolRequest, params reviewRequestsParams) (*mcp.CallToolResult, any, error) {
	res, err := h.cloud.ReviewRequests.List(ctx, params.OrgUUID, &cloud.ReviewRequestListOptions{
		ListOptions: cloud.ListOptions{Page: params.Page, PerPage: params.PerPage},
		Status:      params.Status,
		Repository:  params.Repository,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("listing review requests: %v", err))
	}
	if len(res.ReviewRequests) == 0 {
		return textResult("No review requests found.")
	}

	var b strings.Builder
	for _, rr := range res.ReviewRequests {
		fmt.Fprintf(&b, "#%d %s [%s]", rr.Number, rr.Title, rr.Status)
		if rr.Draft {
			b.WriteString(" (draft)")
		}
		if rr.Repository != "" {
			fmt.Fprintf(&b, " %s", rr.Repository)
		}
		b.WriteString("\n")
	}
	writePageFooter(&b, res.PaginatedResult)
	return textResult(b.String())
}

// writePageFooter appends pagination info when the response reports more
// than one page.
func writePageFooter(b *strings.Builder, p cloud.PaginatedResult) {
	if p.TotalPages() > 1 {
		fmt.Fprintf(b, "\nPage %d of %d (%d total).\n", p.Page, p.TotalPages(), p.Total)
	}
}

// Package classroom integrates the Google Classroom REST API: course
// management, announcements, assignments, and roster reads.
package classroom

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/homeroomhq/homeroom/internal/gateway"
	"github.com/homeroomhq/homeroom/internal/providers/rest"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

const defaultBaseURL = "https://classroom.googleapis.com/v1"

// Config holds the Classroom provider configuration.
type Config struct {
	AccessToken string
	BaseURL     string // override for tests
	Timeout     time.Duration
}

// Provider is the classroom capability.
type Provider struct {
	cfg    Config
	client *rest.Client
}

// New creates the classroom provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Provider{cfg: cfg, client: rest.New(cfg.BaseURL, cfg.Timeout)}
}

func (p *Provider) Name() schema.ProviderName { return schema.ProviderClassroom }

func (p *Provider) Probe() gateway.ProbeSpec {
	return gateway.ProbeSpec{Action: "getCourses", Mode: gateway.ProbeExpectSuccess}
}

func (p *Provider) Actions() []gateway.Action {
	return []gateway.Action{
		{
			Name:        "createCourse",
			Description: "Create a course owned by the authenticated teacher",
			Required:    []string{"name"},
			Handler:     p.createCourse,
		},
		{
			Name:        "postAnnouncement",
			Description: "Post an announcement to a course stream",
			Required:    []string{"courseId", "text"},
			Handler:     p.postAnnouncement,
		},
		{
			Name:        "createAssignment",
			Description: "Publish an assignment in a course",
			Required:    []string{"courseId", "title"},
			Handler:     p.createAssignment,
		},
		{
			Name:        "getCourses",
			Description: "List courses taught by the authenticated teacher",
			Handler:     p.getCourses,
		},
		{
			Name:        "getStudents",
			Description: "List students enrolled in a course",
			Required:    []string{"courseId"},
			Handler:     p.getStudents,
		},
	}
}

func (p *Provider) auth() (rest.Auth, error) {
	if p.cfg.AccessToken == "" {
		return rest.Auth{}, schema.NewError(schema.ErrCodeCredentialsMissing,
			"Google Classroom credentials missing").WithProvider(schema.ProviderClassroom)
	}
	return rest.Auth{Bearer: p.cfg.AccessToken}, nil
}

func (p *Provider) createCourse(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	auth, err := p.auth()
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"name":        gateway.StringField(payload, "name", ""),
		"ownerId":     "me",
		"courseState": "PROVISIONED",
	}
	if section := gateway.StringField(payload, "section", ""); section != "" {
		body["section"] = section
	}
	if desc := gateway.StringField(payload, "description", ""); desc != "" {
		body["description"] = desc
	}
	if room := gateway.StringField(payload, "room", ""); room != "" {
		body["room"] = room
	}

	resp, err := p.client.PostJSON(ctx, "/courses", body, auth)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"agentId":       agentID,
		"courseId":      idOrCorrelation(resp, "course"),
		"name":          body["name"],
		"alternateLink": resp["alternateLink"],
	}, nil
}

func (p *Provider) postAnnouncement(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	auth, err := p.auth()
	if err != nil {
		return nil, err
	}

	courseID := gateway.StringField(payload, "courseId", "")
	body := map[string]any{
		"text":  gateway.StringField(payload, "text", ""),
		"state": "PUBLISHED",
	}

	resp, err := p.client.PostJSON(ctx, fmt.Sprintf("/courses/%s/announcements", url.PathEscape(courseID)), body, auth)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"agentId":        agentID,
		"courseId":       courseID,
		"announcementId": idOrCorrelation(resp, "announcement"),
	}, nil
}

func (p *Provider) createAssignment(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	auth, err := p.auth()
	if err != nil {
		return nil, err
	}

	courseID := gateway.StringField(payload, "courseId", "")
	body := map[string]any{
		"title":     gateway.StringField(payload, "title", ""),
		"workType":  "ASSIGNMENT",
		"state":     "PUBLISHED",
		"maxPoints": gateway.FloatField(payload, "maxPoints", 100),
	}
	if desc := gateway.StringField(payload, "description", ""); desc != "" {
		body["description"] = desc
	}

	resp, err := p.client.PostJSON(ctx, fmt.Sprintf("/courses/%s/courseWork", url.PathEscape(courseID)), body, auth)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"agentId":      agentID,
		"courseId":     courseID,
		"assignmentId": idOrCorrelation(resp, "assignment"),
		"title":        body["title"],
	}, nil
}

func (p *Provider) getCourses(ctx context.Context, agentID string, _ map[string]any) (map[string]any, error) {
	auth, err := p.auth()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("teacherId", "me")
	query.Set("pageSize", "20")

	resp, err := p.client.GetJSON(ctx, "/courses", query, auth)
	if err != nil {
		return nil, err
	}

	courses, _ := resp["courses"].([]any)
	return map[string]any{
		"agentId": agentID,
		"courses": courses,
		"count":   len(courses),
	}, nil
}

func (p *Provider) getStudents(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	auth, err := p.auth()
	if err != nil {
		return nil, err
	}

	courseID := gateway.StringField(payload, "courseId", "")
	resp, err := p.client.GetJSON(ctx, fmt.Sprintf("/courses/%s/students", url.PathEscape(courseID)), nil, auth)
	if err != nil {
		return nil, err
	}

	students, _ := resp["students"].([]any)
	return map[string]any{
		"agentId":  agentID,
		"courseId": courseID,
		"students": students,
		"count":    len(students),
	}, nil
}

// idOrCorrelation prefers the provider-assigned id, generating a correlation
// id when the response carries none.
func idOrCorrelation(resp map[string]any, kind string) string {
	if id, ok := resp["id"].(string); ok && id != "" {
		return id
	}
	return schema.CorrelationID(kind)
}

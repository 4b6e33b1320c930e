package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/people-sdk/pkg/application"
	"github.com/iota-uz/people-sdk/pkg/httpapi"
	"github.com/iota-uz/people-sdk/pkg/policy"
)

type PolicyAPIController struct {
	app       application.Application
	policy    *policy.Service
	apiPrefix string
}

func NewPolicyAPIController(app application.Application) application.Controller {
	return &PolicyAPIController{
		app:       app,
		policy:    app.Service(policy.Service{}).(*policy.Service),
		apiPrefix: "/policy/api",
	}
}

func (c *PolicyAPIController) Key() string {
	return c.apiPrefix
}

func (c *PolicyAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/authorize", c.Authorize).Methods(http.MethodPost)
	api.HandleFunc("/people/{id}/managers", c.GetManagers).Methods(http.MethodGet)
	api.HandleFunc("/people/{id}/reports", c.GetReports).Methods(http.MethodGet)
}

type authorizeRequest struct {
	ViewerID       uuid.UUID      `json:"viewer_id"`
	SubjectID      uuid.UUID      `json:"subject_id"`
	OrganizationID *uuid.NullUUID `json:"organization_id"`
	Action         string         `json:"action"`
}

type authorizeResponse struct {
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
}

func (c *PolicyAPIController) Authorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "POLICY_INVALID_BODY", "request body is not valid JSON")
		return
	}
	action := policy.Action(req.Action)
	if !action.Valid() {
		writeBadRequest(w, r, "POLICY_UNKNOWN_ACTION", "unknown action")
		return
	}

	var orgID *uuid.UUID
	if req.OrganizationID != nil && req.OrganizationID.Valid {
		orgID = &req.OrganizationID.UUID
	}

	allowed, err := c.policy.Authorize(r.Context(), req.ViewerID, req.SubjectID, orgID, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, authorizeResponse{
		Action:  string(action),
		Allowed: allowed,
	})
}

type chainEntryResponse struct {
	PersonID string `json:"person_id"`
	FullName string `json:"full_name"`
	Level    int    `json:"level"`
	Title    string `json:"title,omitempty"`
}

func (c *PolicyAPIController) GetManagers(w http.ResponseWriter, r *http.Request) {
	c.chain(w, r, c.policy.ManagersOf)
}

func (c *PolicyAPIController) GetReports(w http.ResponseWriter, r *http.Request) {
	c.chain(w, r, c.policy.ReportsOf)
}

func (c *PolicyAPIController) chain(
	w http.ResponseWriter,
	r *http.Request,
	resolve func(ctx context.Context, personID, orgID uuid.UUID) ([]policy.Entry, error),
) {
	personID, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "POLICY_INVALID_ID", "id is not a valid uuid")
		return
	}
	orgID, err := uuid.Parse(r.URL.Query().Get("organization_id"))
	if err != nil {
		writeBadRequest(w, r, "POLICY_INVALID_QUERY", "organization_id is required")
		return
	}

	entries, err := resolve(r.Context(), personID, orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]chainEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, chainEntryResponse{
			PersonID: e.Person.ID().String(),
			FullName: e.Person.FullName(),
			Level:    e.Level,
			Title:    e.Title,
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

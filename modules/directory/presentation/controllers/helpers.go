package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/organization"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/person"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/tenure"
	"github.com/iota-uz/people-sdk/modules/directory/services"
	"github.com/iota-uz/people-sdk/pkg/composables"
	"github.com/iota-uz/people-sdk/pkg/httpapi"
	"github.com/iota-uz/people-sdk/pkg/serrors"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func errorMeta(r *http.Request) map[string]string {
	meta := map[string]string{}
	if id, ok := composables.UseRequestID(r.Context()); ok {
		meta["request_id"] = id
	}
	return meta
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		_ = httpapi.WriteError(w, svcErr.Status, svcErr.Code, svcErr.Message, errorMeta(r))
		return
	}
	var baseErr *serrors.BaseError
	if errors.As(err, &baseErr) {
		_ = httpapi.WriteError(w, http.StatusBadRequest, baseErr.Code, baseErr.Message, errorMeta(r))
		return
	}
	composables.UseLogger(r.Context()).WithError(err).Error("unhandled error in directory handler")
	_ = httpapi.WriteError(w, http.StatusInternalServerError, "DIRECTORY_INTERNAL", "internal error", errorMeta(r))
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, code, message string) {
	_ = httpapi.WriteError(w, http.StatusBadRequest, code, message, errorMeta(r))
}

type personResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	OgAdmin   bool   `json:"og_admin"`
	CreatedAt string `json:"created_at"`
}

func toPersonResponse(p person.Person) personResponse {
	return personResponse{
		ID:        p.ID().String(),
		FirstName: p.FirstName(),
		LastName:  p.LastName(),
		Email:     p.Email(),
		OgAdmin:   p.OgAdmin(),
		CreatedAt: p.CreatedAt().UTC().Format(time.RFC3339),
	}
}

type organizationResponse struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

func toOrganizationResponse(o organization.Organization) organizationResponse {
	out := organizationResponse{
		ID:   o.ID().String(),
		Kind: string(o.Kind()),
		Name: o.Name(),
	}
	if o.ParentID() != nil {
		v := o.ParentID().String()
		out.ParentID = &v
	}
	return out
}

type tenureResponse struct {
	ID                string  `json:"id"`
	TeammateID        string  `json:"teammate_id"`
	CompanyID         string  `json:"company_id"`
	ManagerTeammateID *string `json:"manager_teammate_id"`
	Title             string  `json:"title"`
	StartedAt         string  `json:"started_at"`
	EndedAt           *string `json:"ended_at"`
}

func toTenureResponse(t tenure.Tenure) tenureResponse {
	out := tenureResponse{
		ID:         t.ID().String(),
		TeammateID: t.TeammateID().String(),
		CompanyID:  t.CompanyID().String(),
		Title:      t.Title(),
		StartedAt:  t.StartedAt().UTC().Format(time.RFC3339),
	}
	if t.ManagerTeammateID() != nil {
		v := t.ManagerTeammateID().String()
		out.ManagerTeammateID = &v
	}
	if t.EndedAt() != nil {
		v := t.EndedAt().UTC().Format(time.RFC3339)
		out.EndedAt = &v
	}
	return out
}

func timeNow() time.Time {
	return time.Now().UTC()
}

func parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/people-sdk/modules/directory/services"
	"github.com/iota-uz/people-sdk/pkg/application"
	"github.com/iota-uz/people-sdk/pkg/httpapi"
)

type DirectoryAPIController struct {
	app        application.Application
	people     *services.PeopleService
	orgs       *services.OrganizationsService
	employment *services.EmploymentService
	apiPrefix  string
}

func NewDirectoryAPIController(app application.Application) application.Controller {
	return &DirectoryAPIController{
		app:        app,
		people:     app.Service(services.PeopleService{}).(*services.PeopleService),
		orgs:       app.Service(services.OrganizationsService{}).(*services.OrganizationsService),
		employment: app.Service(services.EmploymentService{}).(*services.EmploymentService),
		apiPrefix:  "/directory/api",
	}
}

func (c *DirectoryAPIController) Key() string {
	return c.apiPrefix
}

func (c *DirectoryAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/people", c.ListPeople).Methods(http.MethodGet)
	api.HandleFunc("/people", c.CreatePerson).Methods(http.MethodPost)
	api.HandleFunc("/people/{id}", c.GetPerson).Methods(http.MethodGet)
	api.HandleFunc("/people/{id}", c.DeletePerson).Methods(http.MethodDelete)

	api.HandleFunc("/organizations", c.ListOrganizations).Methods(http.MethodGet)
	api.HandleFunc("/organizations", c.CreateOrganization).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id}", c.GetOrganization).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}", c.DeleteOrganization).Methods(http.MethodDelete)
	api.HandleFunc("/organizations/{id}/ancestors", c.GetAncestors).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}/descendants", c.GetDescendants).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}:rename", c.RenameOrganization).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id}:move", c.MoveOrganization).Methods(http.MethodPost)

	api.HandleFunc("/employments", c.Employ).Methods(http.MethodPost)
	api.HandleFunc("/tenures/{id}:end", c.EndTenure).Methods(http.MethodPost)
	api.HandleFunc("/tenures/{id}:change-manager", c.ChangeManager).Methods(http.MethodPost)
	api.HandleFunc("/teammates/{id}/flags", c.SetFlags).Methods(http.MethodPut)
}

func (c *DirectoryAPIController) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := c.people.GetAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]personResponse, 0, len(people))
	for _, p := range people {
		out = append(out, toPersonResponse(p))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *DirectoryAPIController) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var dto services.PersonCreateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_BODY", "request body is not valid JSON")
		return
	}
	created, err := c.people.Create(r.Context(), &dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toPersonResponse(created))
}

func (c *DirectoryAPIController) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	p, err := c.people.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toPersonResponse(p))
}

func (c *DirectoryAPIController) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	if err := c.people.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *DirectoryAPIController) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := c.orgs.GetAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]organizationResponse, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, toOrganizationResponse(o))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *DirectoryAPIController) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var dto services.OrganizationCreateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_BODY", "request body is not valid JSON")
		return
	}
	created, err := c.orgs.Create(r.Context(), &dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toOrganizationResponse(created))
}

func (c *DirectoryAPIController) GetOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	o, err := c.orgs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toOrganizationResponse(o))
}

func (c *DirectoryAPIController) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	if err := c.orgs.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *DirectoryAPIController) GetAncestors(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	orgs, err := c.orgs.AncestorsOf(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]organizationResponse, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, toOrganizationResponse(o))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *DirectoryAPIController) GetDescendants(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	orgs, err := c.orgs.SelfAndDescendantsOf(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]organizationResponse, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, toOrganizationResponse(o))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *DirectoryAPIController) RenameOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_BODY", "request body is not valid JSON")
		return
	}
	if err := c.orgs.Rename(r.Context(), id, body.Name); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *DirectoryAPIController) MoveOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	var body struct {
		NewParentID *uuid.NullUUID `json:"new_parent_id"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_BODY", "request body is not valid JSON")
		return
	}
	var newParent *uuid.UUID
	if body.NewParentID != nil && body.NewParentID.Valid {
		newParent = &body.NewParentID.UUID
	}
	if err := c.orgs.Move(r.Context(), id, newParent); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *DirectoryAPIController) Employ(w http.ResponseWriter, r *http.Request) {
	var dto services.EmployDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_BODY", "request body is not valid JSON")
		return
	}
	opened, err := c.employment.Employ(r.Context(), &dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toTenureResponse(opened))
}

func (c *DirectoryAPIController) EndTenure(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	var body struct {
		EndedAt string `json:"ended_at"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_BODY", "request body is not valid JSON")
		return
	}
	endedAt, err := parseTimestamp(body.EndedAt)
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_TIMESTAMP", "ended_at must be RFC3339")
		return
	}
	if endedAt.IsZero() {
		endedAt = timeNow()
	}
	if err := c.employment.EndTenure(r.Context(), id, endedAt); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *DirectoryAPIController) ChangeManager(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	var body struct {
		ManagerTeammateID *uuid.NullUUID `json:"manager_teammate_id"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_BODY", "request body is not valid JSON")
		return
	}
	var manager *uuid.UUID
	if body.ManagerTeammateID != nil && body.ManagerTeammateID.Valid {
		manager = &body.ManagerTeammateID.UUID
	}
	opened, err := c.employment.ChangeManager(r.Context(), id, manager)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toTenureResponse(opened))
}

func (c *DirectoryAPIController) SetFlags(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_ID", "id is not a valid uuid")
		return
	}
	var body struct {
		CanManageEmployment bool `json:"can_manage_employment"`
		CanCreateEmployment bool `json:"can_create_employment"`
		CanManageMAAP       bool `json:"can_manage_maap"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		writeBadRequest(w, r, "DIRECTORY_INVALID_BODY", "request body is not valid JSON")
		return
	}
	if err := c.employment.SetFlags(r.Context(), id, body.CanManageEmployment, body.CanCreateEmployment, body.CanManageMAAP); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

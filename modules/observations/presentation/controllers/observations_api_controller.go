package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/people-sdk/modules/observations/domain/aggregates/observation"
	"github.com/iota-uz/people-sdk/modules/observations/services"
	"github.com/iota-uz/people-sdk/pkg/application"
	"github.com/iota-uz/people-sdk/pkg/composables"
	"github.com/iota-uz/people-sdk/pkg/httpapi"
)

type ObservationsAPIController struct {
	app          application.Application
	observations *services.ObservationsService
	apiPrefix    string
}

func NewObservationsAPIController(app application.Application) application.Controller {
	return &ObservationsAPIController{
		app:          app,
		observations: app.Service(services.ObservationsService{}).(*services.ObservationsService),
		apiPrefix:    "/observations/api",
	}
}

func (c *ObservationsAPIController) Key() string {
	return c.apiPrefix
}

func (c *ObservationsAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/observations", c.List).Methods(http.MethodGet)
	api.HandleFunc("/observations", c.CreateDraft).Methods(http.MethodPost)
	api.HandleFunc("/observations/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/observations/{id}", c.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/observations/{id}:publish", c.Publish).Methods(http.MethodPost)
	api.HandleFunc("/observations/{id}/visibility", c.Visibility).Methods(http.MethodGet)
	api.HandleFunc("/observations/{id}/ratings", c.AddRating).Methods(http.MethodPost)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

type viewerQuery struct {
	ViewerID uuid.UUID `form:"viewer_id"`
}

func viewerID(r *http.Request) (uuid.UUID, error) {
	q, err := composables.UseQuery(&viewerQuery{}, r)
	if err != nil {
		return uuid.Nil, err
	}
	if q.ViewerID == uuid.Nil {
		return uuid.Nil, errors.New("viewer_id is required")
	}
	return q.ViewerID, nil
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
	composables.UseLogger(r.Context()).WithError(err).Error("unhandled error in observations handler")
	_ = httpapi.WriteError(w, http.StatusInternalServerError, "OBSERVATIONS_INTERNAL", "internal error", errorMeta(r))
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, code, message string) {
	_ = httpapi.WriteError(w, http.StatusBadRequest, code, message, errorMeta(r))
}

type ratingResponse struct {
	ID      string `json:"id"`
	RaterID string `json:"rater_id"`
	Value   string `json:"value"`
}

type observationResponse struct {
	ID          string           `json:"id"`
	ObserverID  string           `json:"observer_id"`
	CompanyID   string           `json:"company_id"`
	Privacy     string           `json:"privacy"`
	Body        string           `json:"body"`
	Draft       bool             `json:"draft"`
	PublishedAt *string          `json:"published_at"`
	ObserveeIDs []string         `json:"observee_ids"`
	Ratings     []ratingResponse `json:"ratings"`
	CreatedAt   string           `json:"created_at"`
}

func toObservationResponse(o observation.Observation) observationResponse {
	out := observationResponse{
		ID:          o.ID().String(),
		ObserverID:  o.ObserverID().String(),
		CompanyID:   o.CompanyID().String(),
		Privacy:     string(o.Privacy()),
		Body:        o.Body(),
		Draft:       o.Draft(),
		ObserveeIDs: make([]string, 0, len(o.ObserveeIDs())),
		Ratings:     make([]ratingResponse, 0, len(o.Ratings())),
		CreatedAt:   o.CreatedAt().UTC().Format(time.RFC3339),
	}
	if o.PublishedAt() != nil {
		v := o.PublishedAt().UTC().Format(time.RFC3339)
		out.PublishedAt = &v
	}
	for _, id := range o.ObserveeIDs() {
		out.ObserveeIDs = append(out.ObserveeIDs, id.String())
	}
	for _, rt := range o.Ratings() {
		out.Ratings = append(out.Ratings, ratingResponse{
			ID:      rt.ID().String(),
			RaterID: rt.RaterID().String(),
			Value:   string(rt.Value()),
		})
	}
	return out
}

type listQuery struct {
	ViewerID  uuid.UUID `form:"viewer_id"`
	CompanyID uuid.UUID `form:"company_id"`
	Limit     int       `form:"limit"`
	Offset    int       `form:"offset"`
}

func (c *ObservationsAPIController) List(w http.ResponseWriter, r *http.Request) {
	q, err := composables.UseQuery(&listQuery{}, r)
	if err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_QUERY", "query parameters are invalid")
		return
	}
	if q.ViewerID == uuid.Nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_QUERY", "viewer_id is required")
		return
	}
	if q.CompanyID == uuid.Nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_QUERY", "company_id is required")
		return
	}

	records, err := c.observations.VisibleObservations(r.Context(), q.ViewerID, q.CompanyID, q.Limit, q.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]observationResponse, 0, len(records))
	for _, o := range records {
		out = append(out, toObservationResponse(o))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *ObservationsAPIController) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var dto services.ObservationCreateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_BODY", "request body is not valid JSON")
		return
	}
	created, err := c.observations.CreateDraft(r.Context(), &dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toObservationResponse(created))
}

func (c *ObservationsAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_ID", "id is not a valid uuid")
		return
	}
	viewer, err := viewerID(r)
	if err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_QUERY", "viewer_id is required")
		return
	}
	o, err := c.observations.GetVisibleByID(r.Context(), viewer, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toObservationResponse(o))
}

func (c *ObservationsAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_ID", "id is not a valid uuid")
		return
	}
	actor, err := uuid.Parse(r.URL.Query().Get("actor_id"))
	if err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_QUERY", "actor_id is required")
		return
	}
	if err := c.observations.SoftDelete(r.Context(), id, actor); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ObservationsAPIController) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_ID", "id is not a valid uuid")
		return
	}
	var body struct {
		ActorID uuid.UUID `json:"actor_id"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_BODY", "request body is not valid JSON")
		return
	}
	published, err := c.observations.Publish(r.Context(), id, body.ActorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toObservationResponse(published))
}

type visibilityResponse struct {
	Visible                bool `json:"visible"`
	CanViewNegativeRatings bool `json:"can_view_negative_ratings"`
}

func (c *ObservationsAPIController) Visibility(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_ID", "id is not a valid uuid")
		return
	}
	viewer, err := viewerID(r)
	if err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_QUERY", "viewer_id is required")
		return
	}
	visible, err := c.observations.IsObservationVisible(r.Context(), viewer, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	negatives := false
	if visible {
		negatives, err = c.observations.CanViewNegativeRatings(r.Context(), viewer, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, visibilityResponse{
		Visible:                visible,
		CanViewNegativeRatings: negatives,
	})
}

func (c *ObservationsAPIController) AddRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_ID", "id is not a valid uuid")
		return
	}
	var body struct {
		RaterID uuid.UUID `json:"rater_id"`
		Value   string    `json:"value"`
	}
	if err := decodeJSON(r.Body, &body); err != nil {
		writeBadRequest(w, r, "OBSERVATIONS_INVALID_BODY", "request body is not valid JSON")
		return
	}
	rated, err := c.observations.AddRating(r.Context(), id, body.RaterID, observation.RatingValue(body.Value))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, ratingResponse{
		ID:      rated.ID().String(),
		RaterID: rated.RaterID().String(),
		Value:   string(rated.Value()),
	})
}

package composables_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/people-sdk/pkg/composables"
)

type testQuery struct {
	ViewerID  uuid.UUID `form:"viewer_id"`
	CompanyID uuid.UUID `form:"company_id"`
	Limit     int       `form:"limit"`
	Offset    int       `form:"offset"`
}

func TestUseQuery(t *testing.T) {
	viewer := uuid.New()
	company := uuid.New()

	r, err := http.NewRequest(http.MethodGet, "/observations?viewer_id="+viewer.String()+
		"&company_id="+company.String()+"&limit=25&offset=50", nil)
	require.NoError(t, err)

	q, err := composables.UseQuery(&testQuery{}, r)
	require.NoError(t, err)
	require.Equal(t, viewer, q.ViewerID)
	require.Equal(t, company, q.CompanyID)
	require.Equal(t, 25, q.Limit)
	require.Equal(t, 50, q.Offset)
}

func TestUseQuery_MissingFieldsStayZero(t *testing.T) {
	r, err := http.NewRequest(http.MethodGet, "/observations?limit=10", nil)
	require.NoError(t, err)

	q, err := composables.UseQuery(&testQuery{}, r)
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, q.ViewerID)
	require.Equal(t, 10, q.Limit)
	require.Zero(t, q.Offset)
}

func TestUseQuery_RejectsMalformedUUID(t *testing.T) {
	r, err := http.NewRequest(http.MethodGet, "/observations?viewer_id=not-a-uuid", nil)
	require.NoError(t, err)

	_, err = composables.UseQuery(&testQuery{}, r)
	require.Error(t, err)
}

func TestUseForm(t *testing.T) {
	viewer := uuid.New()
	body := url.Values{"viewer_id": {viewer.String()}, "limit": {"5"}}

	r, err := http.NewRequest(http.MethodPost, "/observations", strings.NewReader(body.Encode()))
	require.NoError(t, err)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	q, err := composables.UseForm(&testQuery{}, r)
	require.NoError(t, err)
	require.Equal(t, viewer, q.ViewerID)
	require.Equal(t, 5, q.Limit)
}

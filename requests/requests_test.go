package requests

import (
	"net/http"
	"regexp"
	"strconv"
	"testing"
	"time"

	"chefbazar/internal/testutil"
	"chefbazar/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	applicant = "cook@example.com"
	admin     = "admin@example.com"
)

func newService(t *testing.T) (*RequestService, *testutil.MemStore) {
	t.Helper()
	store := testutil.NewMemStore()
	store.AddUser(models.User{Email: applicant, Name: "Mita"})
	store.AddUser(models.User{Email: admin, Role: models.RoleAdmin})
	return NewRequestService(store), store
}

func apply(t *testing.T, svc *RequestService, kind, email string) (int, string) {
	t.Helper()
	h := svc.BecomeChef
	if kind == models.RequestAdmin {
		h = svc.BecomeAdmin
	}
	rec := testutil.Serve(h, testutil.Request(t, http.MethodPost, "/become-"+kind, email, map[string]any{"userName": "Mita"}))
	body := testutil.Decode[map[string]string](t, rec)
	return rec.Code, body["insertedId"]
}

func decide(t *testing.T, svc *RequestService, action, kind, id string) int {
	t.Helper()
	h := svc.AcceptRequest
	if action == "reject" {
		h = svc.RejectRequest
	}
	rec := testutil.Serve(h,
		testutil.Request(t, http.MethodPatch, "/admin/requests/"+action+"/"+kind+"/"+id, admin, nil),
		testutil.Param("type", kind), testutil.Param("id", id))
	return rec.Code
}

func TestApplyOncePerRoleWhilePending(t *testing.T) {
	svc, _ := newService(t)

	code, chefReq := apply(t, svc, models.RequestChef, applicant)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, chefReq)

	code, _ = apply(t, svc, models.RequestChef, applicant)
	assert.Equal(t, http.StatusConflict, code)

	// a different role is a separate queue
	code, _ = apply(t, svc, models.RequestAdmin, applicant)
	assert.Equal(t, http.StatusCreated, code)

	require.Equal(t, http.StatusOK, decide(t, svc, "reject", models.RequestChef, chefReq))

	// resolved requests no longer block a new one
	code, _ = apply(t, svc, models.RequestChef, applicant)
	assert.Equal(t, http.StatusCreated, code)
}

func TestApplyWithoutBody(t *testing.T) {
	svc, store := newService(t)

	rec := testutil.Serve(svc.BecomeChef, testutil.Request(t, http.MethodPost, "/become-chef", applicant, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, store.Requests[models.RequestChef], 1)
}

func TestAcceptChefRequest(t *testing.T) {
	svc, store := newService(t)
	_, id := apply(t, svc, models.RequestChef, applicant)

	rec := testutil.Serve(svc.AcceptRequest,
		testutil.Request(t, http.MethodPatch, "/admin/requests/accept/chef/"+id, admin, nil),
		testutil.Param("type", models.RequestChef), testutil.Param("id", id))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u := store.User(applicant)
	assert.Equal(t, models.RoleChef, u.Role)
	m := regexp.MustCompile(`^chef-(\d{4})$`).FindStringSubmatch(u.ChefID)
	require.Len(t, m, 2, u.ChefID)
	n, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1000)
	assert.LessOrEqual(t, n, 9999)
	assert.Equal(t, u.ChefID, testutil.Decode[map[string]string](t, rec)["chefId"])

	// a resolved request cannot be decided again
	assert.Equal(t, http.StatusConflict, decide(t, svc, "accept", models.RequestChef, id))
	assert.Equal(t, http.StatusConflict, decide(t, svc, "reject", models.RequestChef, id))
}

func TestAcceptAdminRequest(t *testing.T) {
	svc, store := newService(t)
	_, id := apply(t, svc, models.RequestAdmin, applicant)

	require.Equal(t, http.StatusOK, decide(t, svc, "accept", models.RequestAdmin, id))
	u := store.User(applicant)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Empty(t, u.ChefID)
}

func TestRejectLeavesUserAlone(t *testing.T) {
	svc, store := newService(t)
	_, id := apply(t, svc, models.RequestChef, applicant)

	require.Equal(t, http.StatusOK, decide(t, svc, "reject", models.RequestChef, id))
	assert.Equal(t, models.RoleUser, store.User(applicant).Role)
}

func TestDecideErrors(t *testing.T) {
	svc, _ := newService(t)
	_, id := apply(t, svc, models.RequestChef, applicant)

	assert.Equal(t, http.StatusBadRequest, decide(t, svc, "accept", "superuser", id))
	assert.Equal(t, http.StatusBadRequest, decide(t, svc, "reject", "superuser", id))
	assert.Equal(t, http.StatusNotFound, decide(t, svc, "accept", models.RequestChef, "65f000000000000000000000"))
	// the id exists but in the other collection
	assert.Equal(t, http.StatusNotFound, decide(t, svc, "accept", models.RequestAdmin, id))
}

func TestAcceptForUnknownUser(t *testing.T) {
	svc, store := newService(t)
	_, id := apply(t, svc, models.RequestChef, "ghost@example.com")

	assert.Equal(t, http.StatusNotFound, decide(t, svc, "accept", models.RequestChef, id))
	for _, rq := range store.Requests[models.RequestChef] {
		assert.Equal(t, models.RequestPending, rq.RequestStatus)
	}
}

func TestListRequestsMergesNewestFirst(t *testing.T) {
	svc, _ := newService(t)
	clock := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	apply(t, svc, models.RequestChef, "a@example.com")
	apply(t, svc, models.RequestAdmin, "b@example.com")
	apply(t, svc, models.RequestChef, "c@example.com")

	rec := testutil.Serve(svc.ListRequests, testutil.Request(t, http.MethodGet, "/admin/requests", admin, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	got := testutil.Decode[[]models.PromotionRequest](t, rec)
	require.Len(t, got, 3)
	assert.Equal(t, "c@example.com", got[0].UserEmail)
	assert.Equal(t, models.RequestAdmin, got[1].RequestType)
	assert.Equal(t, "a@example.com", got[2].UserEmail)
	assert.Equal(t, models.RequestChef, got[2].RequestType)
}

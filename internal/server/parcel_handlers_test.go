package server

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postmat-dev/postmat/internal/models"
)

// steppingClock advances one second per reading so history entries order deterministically
func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Now()
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func TestParcelLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.now = steppingClock()

	biz := registerBusiness(t, s, "sender@postmat.test")
	other := registerAndLogin(t, s, "other@postmat.test")
	admin := loginAs(t, s, testAdminEmail, testAdminPassword)

	rec := serve(t, s, http.MethodPost, "/api/business/magazines", CreateMagazineRequest{Name: "Hub", Address: "Main 1"}, biz)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	magazine := decode[models.Magazine](t, rec)

	rec = serve(t, s, http.MethodPost, "/api/business/packages", CreatePackageRequest{
		MagazineID:      magazine.ID,
		ReceiverName:    "Jan Kowalski",
		ReceiverAddress: "Krakowska 5",
		Size:            models.SizeSmall,
		Weight:          1,
	}, biz)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pkg := decode[models.Package](t, rec)

	rec = serve(t, s, http.MethodGet, "/api/packages/user/", nil, biz)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Package](t, rec), 1)

	rec = serve(t, s, http.MethodGet, "/api/packages/user/", nil, other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(t, s, http.MethodGet, "/api/packages/user/", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	pickup := func(contact, code string) *httpResult {
		rec := serve(t, s, http.MethodPost, "/api/packages/public/pickup/", PickupRequest{Contact: contact, UnlockCode: code}, nil)
		return &httpResult{code: rec.Code, body: rec.Body.String()}
	}

	got := pickup("Jan Kowalski", pkg.PickupCode)
	assert.Equal(t, http.StatusBadRequest, got.code)
	assert.Contains(t, got.body, "Package is not ready for pickup.")

	setStatus := func(id, status string, cookie *http.Cookie) *httpResult {
		rec := serve(t, s, http.MethodPost, "/api/admin/packages/"+id+"/update_status/", UpdateStatusRequest{Status: status}, cookie)
		return &httpResult{code: rec.Code, body: rec.Body.String()}
	}

	assert.Equal(t, http.StatusForbidden, setStatus(pkg.ID, models.StatusInLocker, biz).code)
	assert.Equal(t, http.StatusNotFound, setStatus("nope", models.StatusInLocker, admin).code)
	assert.Equal(t, http.StatusBadRequest, setStatus(pkg.ID, "LOST", admin).code)

	got = setStatus(pkg.ID, models.StatusInTransit, admin)
	require.Equal(t, http.StatusOK, got.code, got.body)
	got = setStatus(pkg.ID, models.StatusInLocker, admin)
	require.Equal(t, http.StatusOK, got.code, got.body)
	assert.JSONEq(t, `{"message":"Status updated successfully","status":"IN_LOCKER","status_display":"Ready for pickup"}`, got.body)

	assert.Equal(t, http.StatusBadRequest, pickup("Jan Kowalski", "12345").code)

	got = pickup("Anna Nowak", pkg.PickupCode)
	assert.Equal(t, http.StatusBadRequest, got.code)
	assert.Contains(t, got.body, "Invalid contact or unlock code.")

	got = pickup("  jan kowalski ", pkg.PickupCode)
	require.Equal(t, http.StatusOK, got.code, got.body)
	assert.Contains(t, got.body, "The locker is open")

	got = pickup("Jan Kowalski", pkg.PickupCode)
	assert.Equal(t, http.StatusBadRequest, got.code)

	rec = serve(t, s, http.MethodGet, "/api/packages/public/track/"+pkg.ID+"/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tracked := decode[TrackingResponse](t, rec)
	assert.Equal(t, models.StatusDelivered, tracked.Status)

	statuses := make([]string, 0, len(tracked.History))
	for _, event := range tracked.History {
		statuses = append(statuses, event.Status)
	}
	assert.Equal(t, []string{models.StatusCreated, models.StatusInTransit, models.StatusInLocker, models.StatusDelivered}, statuses)
	assert.Equal(t, "Ready for pickup", tracked.History[2].StatusDisplay)
}

type httpResult struct {
	code int
	body string
}

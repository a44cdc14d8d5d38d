package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"disaster-relief-api-server/config"
	"disaster-relief-api-server/internal/auth"
	"disaster-relief-api-server/internal/contact"
	"disaster-relief-api-server/internal/inventory"
	"disaster-relief-api-server/internal/lifecycle"
	"disaster-relief-api-server/internal/mailer"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/notify"
	"disaster-relief-api-server/internal/replenishment"
	"disaster-relief-api-server/internal/reporting"
	"disaster-relief-api-server/internal/socket"
	"disaster-relief-api-server/internal/store"
	"disaster-relief-api-server/internal/testutil"
	"disaster-relief-api-server/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) UploadFile(_ context.Context, r io.Reader, key, _ string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.org/" + key, nil
}

type sentMail struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (m *sentMail) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *sentMail) sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.msgs...)
}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	store    store.Store
	tokens   *auth.Tokens
	events   *notify.Recorder
	uploader *fakeUploader
	mail     *sentMail
	contact  *contact.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.BcryptCost = bcrypt.MinCost

	st := testutil.NewStore()
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	rec := &notify.Recorder{}
	up := &fakeUploader{}
	manager := lifecycle.NewManager(st, rec, lifecycle.WithUploader(up))
	userSvc := users.NewService(st.Users(), tokens, mailer.Nop{}, time.Second)
	mail := &sentMail{}
	contactSvc := contact.NewService(st.Contacts(), mail, "support@example.org", time.Second)
	t.Cleanup(func() {
		manager.Wait()
		userSvc.Wait()
		contactSvc.Wait()
	})

	router := SetupRouter(Deps{
		Cfg:           config.Config{Server: config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}}},
		Store:         st,
		Tokens:        tokens,
		Hub:           socket.NewHub(),
		Lifecycle:     manager,
		Inventory:     inventory.NewService(st, rec),
		Replenishment: replenishment.NewService(st, rec),
		Reports:       reporting.NewService(st),
		Users:         userSvc,
		Contact:       contactSvc,
	})
	return &testServer{
		t: t, router: router, store: st, tokens: tokens, events: rec, uploader: up,
		mail: mail, contact: contactSvc,
	}
}

func (s *testServer) token(u *models.User) string {
	s.t.Helper()
	tok, err := s.tokens.Generate(u)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/users/register", "", gin.H{
		"name": "Relief Org", "email": "Ops@Relief.org", "password": "secret1", "role": "NGO",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "ops@relief.org", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session users.Session
	decode(t, w, &session)
	assert.Equal(t, models.RoleNGO, session.Role)
	assert.NotEmpty(t, session.Token)

	w = s.do(http.MethodGet, "/api/ngo-resources", session.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "ops@relief.org", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRequestJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/requests", "", gin.H{
		"name": "Asha", "contact": "555-0100", "location": "Riverside",
		"description": "Family stranded", "people": 4, "priority": "High",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Message   string             `json:"message"`
		RequestID string             `json:"requestId"`
		Request   models.HelpRequest `json:"request"`
	}
	decode(t, w, &body)
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, models.StatusPending, body.Request.Status)
	assert.Equal(t, []string{notify.EventNewRequest}, s.events.Events())

	w = s.do(http.MethodGet, "/api/requests/"+body.RequestID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateRequestValidationShape(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/requests", "", gin.H{"requestType": "Help"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	decode(t, w, &body)
	assert.NotEmpty(t, body.Message)
	assert.Contains(t, body.Fields, "description")
	assert.Contains(t, body.Fields, "location")
}

func TestCreateRequestMultipartWithPhoto(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"name": "Ravi", "contact": "555-0101", "location": "Hill Road",
		"description": "Roof collapsed", "people": "2",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("currentPhoto", "damage.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/requests", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Request models.HelpRequest `json:"request"`
	}
	decode(t, w, &body)
	require.Len(t, s.uploader.keys, 1)
	assert.Equal(t, "https://cdn.example.org/"+s.uploader.keys[0], body.Request.CurrentPhoto)
	assert.Equal(t, 2, body.Request.People)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	ngo := testutil.User(t, s.store, "Field NGO", models.RoleNGO)

	w := s.do(http.MethodGet, "/api/resources/warehouse", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/resources/warehouse", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/resources/warehouse", s.token(ngo), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]string
	decode(t, w, &body)
	assert.NotEmpty(t, body["message"])
}

func TestBlockedUserIsRejected(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.User(t, s.store, "Admin One", models.RoleAdmin)
	ngo := testutil.User(t, s.store, "Blocked NGO", models.RoleNGO)
	tok := s.token(ngo)

	w := s.do(http.MethodPut, "/api/users/"+ngo.ID+"/toggle-block", s.token(admin), gin.H{"isBlocked": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/ngo-resources", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWarehouseAssignAndReplenishFlow(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.User(t, s.store, "Admin One", models.RoleAdmin)
	ngo := testutil.User(t, s.store, "Field NGO", models.RoleNGO)
	adminTok, ngoTok := s.token(admin), s.token(ngo)

	w := s.do(http.MethodPost, "/api/resources/warehouse", adminTok, gin.H{
		"resourceName": "Water Bottles", "category": "Water", "totalQuantity": 100,
		"unit": "bottles", "location": "Depot A",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item models.WarehouseItem
	decode(t, w, &item)

	w = s.do(http.MethodPost, "/api/resources/warehouse", adminTok, gin.H{
		"resourceName": "water bottles", "category": "Water", "totalQuantity": 5,
		"unit": "bottles", "location": "Depot B",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assign := gin.H{"centralResourceId": item.ID, "ngoId": ngo.ID, "quantity": 30}
	w = s.do(http.MethodPost, "/api/ngo-resources/assign", adminTok, assign)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var holding models.NgoResource
	decode(t, w, &holding)
	assert.Equal(t, 30, holding.Quantity)

	w = s.do(http.MethodPost, "/api/ngo-resources/assign", adminTok, assign)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 40, testutil.Quantity(t, s.store, item.ID))

	w = s.do(http.MethodPost, "/api/ngo-resources/assign", adminTok, gin.H{
		"centralResourceId": item.ID, "ngoId": ngo.ID, "quantity": 500,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40, testutil.Quantity(t, s.store, item.ID))

	w = s.do(http.MethodPost, "/api/resources/request-replenishment", ngoTok, gin.H{
		"resourceId": holding.ID, "resourceName": holding.Name, "ngoId": ngo.ID, "quantity": 25,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var repl models.ReplenishmentRequest
	decode(t, w, &repl)

	w = s.do(http.MethodGet, "/api/resources/replenishment-requests", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []models.ReplenishmentRequest
	decode(t, w, &pending)
	assert.Len(t, pending, 1)

	w = s.do(http.MethodPut, "/api/resources/replenishment-requests/"+repl.ID, adminTok, gin.H{"status": "Approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 15, testutil.Quantity(t, s.store, item.ID))

	w = s.do(http.MethodPut, "/api/resources/replenishment-requests/"+repl.ID, adminTok, gin.H{"status": "Approved"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 15, testutil.Quantity(t, s.store, item.ID))

	w = s.do(http.MethodGet, "/api/ngo-resources", ngoTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.NgoResource
	decode(t, w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, 85, mine[0].Quantity)
}

func TestNgoResourceOwnership(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.User(t, s.store, "Admin One", models.RoleAdmin)
	owner := testutil.User(t, s.store, "Owner NGO", models.RoleNGO)
	other := testutil.User(t, s.store, "Other NGO", models.RoleNGO)
	item := testutil.WarehouseItem(t, s.store, "RES001", "Blankets", 50)

	w := s.do(http.MethodPost, "/api/ngo-resources/assign", s.token(admin), gin.H{
		"centralResourceId": item.ID, "ngoId": owner.ID, "quantity": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var holding models.NgoResource
	decode(t, w, &holding)

	w = s.do(http.MethodPut, "/api/ngo-resources/"+holding.ID+"/deploy", s.token(other), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/ngo-resources/"+holding.ID+"/deploy", s.token(owner), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res inventory.DeployResult
	decode(t, w, &res)
	assert.Equal(t, models.ResourceDeployed, res.UpdatedResource.Status)
	assert.EqualValues(t, 1, res.UpdatedStats.ResourcesDeployed)
}

func TestNgoAcceptAndDashboard(t *testing.T) {
	s := newTestServer(t)
	ngo := testutil.User(t, s.store, "Field NGO", models.RoleNGO)
	other := testutil.User(t, s.store, "Other NGO", models.RoleNGO)
	req := testutil.Request(t, s.store, models.RequestTypeResource, models.PriorityHigh)
	legacy := testutil.Request(t, s.store, models.RequestTypeHelp, models.PriorityMedium)

	w := s.do(http.MethodPut, "/api/ngos/"+ngo.ID+"/requests/"+req.ID+"/accept", s.token(other), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/ngos/"+ngo.ID+"/requests/"+req.ID+"/accept", s.token(ngo), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var accepted models.HelpRequest
	decode(t, w, &accepted)
	assert.Equal(t, models.StatusAssigned, accepted.Status)
	assert.Equal(t, ngo.ID, accepted.ManagedBy)

	w = s.do(http.MethodPut, "/api/ngos/tasks/"+legacy.ID+"/accept", s.token(ngo), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/ngos/"+ngo.ID+"/requests", s.token(ngo), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var managed []models.HelpRequest
	decode(t, w, &managed)
	assert.Len(t, managed, 2)

	w = s.do(http.MethodGet, "/api/ngos/"+ngo.ID+"/dashboard", s.token(other), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/ngos/"+ngo.ID+"/dashboard", s.token(ngo), nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestStatusLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.User(t, s.store, "Admin One", models.RoleAdmin)
	vol := testutil.User(t, s.store, "Helper", models.RoleVolunteer)
	req := testutil.Request(t, s.store, models.RequestTypeHelp, models.PriorityMedium)

	w := s.do(http.MethodPut, "/api/requests/"+req.ID+"/assign", s.token(admin), gin.H{"volunteerId": vol.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, "/api/requests/"+req.ID+"/status", "", gin.H{"status": "InProgress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, "/api/requests/"+req.ID+"/status", "", gin.H{"status": "Completed", "notes": "done"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, "/api/requests/"+req.ID+"/status", "", gin.H{"status": "Pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/requests/report", s.token(admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report reporting.RequestsReport
	decode(t, w, &report)
	assert.EqualValues(t, 1, report.TotalRequests)

	w = s.do(http.MethodGet, "/api/requests/stats/last7days", s.token(admin), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/analytics/all", s.token(admin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRequestIs404(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/requests/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContactQueryFlow(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.User(t, s.store, "Admin", models.RoleAdmin)
	vol := testutil.User(t, s.store, "Ravi", models.RoleVolunteer)

	w := s.do(http.MethodPost, "/api/contact/send", "", gin.H{"name": "Asha", "email": "asha@example.org"})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	var invalid struct {
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	decode(t, w, &invalid)
	assert.Equal(t, "All required fields must be filled.", invalid.Message)
	assert.Contains(t, invalid.Fields, "subject")

	w = s.do(http.MethodPost, "/api/contact/send", "", gin.H{
		"name": "Asha", "email": "asha@example.org", "queryType": "Volunteer",
		"subject": "Joining", "message": "How do I sign up?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sent struct {
		Message string              `json:"message"`
		Query   models.ContactQuery `json:"query"`
	}
	decode(t, w, &sent)
	assert.Equal(t, "Message sent and query saved successfully!", sent.Message)
	assert.Equal(t, models.ContactPending, sent.Query.Status)
	s.contact.Wait()
	require.Len(t, s.mail.sent(), 1)
	assert.Equal(t, "support@example.org", s.mail.sent()[0].To)

	w = s.do(http.MethodGet, "/api/contact/queries", s.token(vol), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/contact/queries", s.token(admin), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var queries []models.ContactQuery
	decode(t, w, &queries)
	require.Len(t, queries, 1)

	path := "/api/contact/queries/" + sent.Query.ID
	w = s.do(http.MethodPut, path, s.token(admin), gin.H{"status": "Closed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path+"/reply", s.token(admin), gin.H{"replyMessage": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path+"/reply", s.token(admin), gin.H{"replyMessage": "Use the register page."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var replied struct {
		Query models.ContactQuery `json:"query"`
	}
	decode(t, w, &replied)
	assert.Equal(t, models.ContactResolved, replied.Query.Status)
	msgs := s.mail.sent()
	require.Len(t, msgs, 2)
	assert.Equal(t, "asha@example.org", msgs[1].To)
	assert.Equal(t, "Re: Joining", msgs[1].Subject)

	w = s.do(http.MethodPut, "/api/contact/queries/missing", s.token(admin), gin.H{"status": "Resolved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVolunteerAndEmergencyDashboards(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	vol := testutil.User(t, s.store, "Ravi", models.RoleVolunteer)
	now := time.Now().UTC()
	for _, r := range []models.HelpRequest{
		{Status: models.StatusPending, Priority: models.PriorityCritical, Description: "roof collapse", People: 3},
		{Status: models.StatusAssigned, Priority: models.PriorityHigh, Description: "insulin", AssignedVolunteer: vol.ID},
		{Status: models.StatusCompleted, Priority: models.PriorityMedium, Description: "water", People: 4},
	} {
		r.RequestType = models.RequestTypeHelp
		r.CreatedAt, r.UpdatedAt = now, now
		require.NoError(t, s.store.Requests().Insert(ctx, &r))
	}

	w := s.do(http.MethodGet, "/api/dashboard/volunteer/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats reporting.VolunteerStats
	decode(t, w, &stats)
	require.Len(t, stats.Metrics, 3)
	assert.EqualValues(t, 1, stats.Metrics[0].Value)
	assert.EqualValues(t, 4, stats.Metrics[1].Value)

	w = s.do(http.MethodGet, "/api/dashboard/volunteer/tasks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []reporting.VolunteerTask
	decode(t, w, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, "critical", tasks[0].Severity)

	w = s.do(http.MethodGet, "/api/dashboard/volunteer/assigned-tasks?volunteerId="+vol.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var assigned []reporting.AssignedTask
	decode(t, w, &assigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, "insulin", assigned[0].Title)

	w = s.do(http.MethodGet, "/api/dashboard/emergency-overview", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/dashboard/emergency-overview", s.token(vol), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var overview reporting.EmergencyOverview
	decode(t, w, &overview)
	assert.EqualValues(t, 2, overview.Stats.TotalSOS)
	assert.EqualValues(t, 4, overview.Stats.PeopleHelped)

	w = s.do(http.MethodGet, "/api/dashboard/volunteers", s.token(vol), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var volunteers []models.User
	decode(t, w, &volunteers)
	require.Len(t, volunteers, 1)
	assert.Equal(t, vol.ID, volunteers[0].ID)
}

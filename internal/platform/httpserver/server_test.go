package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	workshopservice "ideaforge/contexts/ideation/workshop-service"
	sqliteadapter "ideaforge/contexts/ideation/workshop-service/adapters/sqlite"
	workshophttp "ideaforge/contexts/ideation/workshop-service/transport/http"
	"ideaforge/internal/platform/metrics"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	monitor := metrics.NewWorkshop("ideaforge")
	module, store, err := workshopservice.NewSQLiteModule(sqliteadapter.MemoryPath, monitor, slog.Default())
	if err != nil {
		t.Fatalf("open sqlite module: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(module, Options{Addr: ":0", Metrics: monitor, Logger: slog.Default()})
}

func doRequest(t *testing.T, server *Server, method string, path string, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rr.Body.String())
	}
	return out
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected %d, got %d body=%s", want, rr.Code, rr.Body.String())
	}
}

func expectErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rr, status)
	resp := decode[workshophttp.ErrorResponse](t, rr)
	if resp.Code != code {
		t.Fatalf("expected error code %q, got %q", code, resp.Code)
	}
}

// seedVotingSession creates a session with one locked topic, lets bob submit
// an idea and moves the session into voting. It returns the session id and
// bob's contribution id.
func seedVotingSession(t *testing.T, server *Server) (string, string) {
	t.Helper()
	created := doRequest(t, server, http.MethodPost, "/v1/sessions", "alice@example.com", workshophttp.CreateSessionRequest{Name: "Roadmap"})
	expectStatus(t, created, http.StatusCreated)
	sessionID := decode[workshophttp.SessionResponse](t, created).Session.SessionID

	topicResp := doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/topics", "alice@example.com",
		workshophttp.AddTopicRequest{Domain: "Ops", Name: "Onboarding"})
	expectStatus(t, topicResp, http.StatusCreated)
	topicID := decode[workshophttp.TopicResponse](t, topicResp).Topic.TopicID

	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/topics/"+topicID+"/lock", "alice@example.com", nil), http.StatusOK)
	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/state", "alice@example.com",
		workshophttp.SetStateRequest{State: "published"}), http.StatusOK)

	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/participants", "bob@example.com",
		workshophttp.JoinRequest{DisplayName: "Bob"}), http.StatusCreated)
	submitted := doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/contributions", "bob@example.com",
		workshophttp.SubmitContributionsRequest{Items: []workshophttp.ContributionItemDTO{{
			TopicID:       topicID,
			CurrentStatus: "manual",
			MinorImpact:   "checklist",
			Disruption:    "self-serve",
			Reimagination: "zero onboarding",
		}}})
	expectStatus(t, submitted, http.StatusOK)
	if saved := decode[workshophttp.SubmitContributionsResponse](t, submitted).Saved; saved != 1 {
		t.Fatalf("expected 1 saved item, got %d", saved)
	}

	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/state", "alice@example.com",
		workshophttp.SetStateRequest{State: "voting"}), http.StatusOK)

	listed := doRequest(t, server, http.MethodGet, "/v1/sessions/"+sessionID+"/contributions?voting=true", "alice@example.com", nil)
	expectStatus(t, listed, http.StatusOK)
	groups := decode[workshophttp.ListContributionsResponse](t, listed).Items
	if len(groups) != 1 || len(groups[0].Contributions) != 1 {
		t.Fatalf("expected one topic with one contribution, got %+v", groups)
	}
	return sessionID, groups[0].Contributions[0].ContributionID
}

func TestCreateSessionRequiresUserHeader(t *testing.T) {
	server := newTestServer(t)
	rr := doRequest(t, server, http.MethodPost, "/v1/sessions", "", workshophttp.CreateSessionRequest{Name: "Roadmap"})
	expectErrorCode(t, rr, http.StatusUnauthorized, "missing_user")
}

func TestCreateSessionRejectsMalformedBody(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader("{"))
	req.Header.Set("X-User-Id", "alice@example.com")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	expectErrorCode(t, rr, http.StatusBadRequest, "invalid_json")
}

func TestGetUnknownSessionReturnsNotFound(t *testing.T) {
	server := newTestServer(t)
	rr := doRequest(t, server, http.MethodGet, "/v1/sessions/missing", "", nil)
	expectErrorCode(t, rr, http.StatusNotFound, "session_not_found")
}

func TestPublishRequiresLockedTopics(t *testing.T) {
	server := newTestServer(t)
	created := doRequest(t, server, http.MethodPost, "/v1/sessions", "alice@example.com", workshophttp.CreateSessionRequest{Name: "Roadmap"})
	expectStatus(t, created, http.StatusCreated)
	sessionID := decode[workshophttp.SessionResponse](t, created).Session.SessionID

	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/topics", "alice@example.com",
		workshophttp.AddTopicRequest{Name: "Onboarding"}), http.StatusCreated)

	rr := doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/state", "alice@example.com",
		workshophttp.SetStateRequest{State: "published"})
	expectErrorCode(t, rr, http.StatusBadRequest, "topics_not_locked")
}

func TestStateChangeRequiresModerator(t *testing.T) {
	server := newTestServer(t)
	created := doRequest(t, server, http.MethodPost, "/v1/sessions", "alice@example.com", workshophttp.CreateSessionRequest{Name: "Roadmap"})
	sessionID := decode[workshophttp.SessionResponse](t, created).Session.SessionID

	rr := doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/state", "mallory@example.com",
		workshophttp.SetStateRequest{State: "published"})
	expectErrorCode(t, rr, http.StatusForbidden, "not_authorized")
}

func TestUnknownStateIsRejected(t *testing.T) {
	server := newTestServer(t)
	created := doRequest(t, server, http.MethodPost, "/v1/sessions", "alice@example.com", workshophttp.CreateSessionRequest{Name: "Roadmap"})
	sessionID := decode[workshophttp.SessionResponse](t, created).Session.SessionID

	rr := doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/state", "alice@example.com",
		workshophttp.SetStateRequest{State: "archived"})
	expectErrorCode(t, rr, http.StatusBadRequest, "unknown_state")
}

func TestVotingFlow(t *testing.T) {
	server := newTestServer(t)
	sessionID, contributionID := seedVotingSession(t, server)
	votePath := "/v1/sessions/" + sessionID + "/contributions/" + contributionID + "/votes"

	expectErrorCode(t, doRequest(t, server, http.MethodPost, votePath, "bob@example.com", nil),
		http.StatusForbidden, "self_vote_forbidden")
	expectErrorCode(t, doRequest(t, server, http.MethodPost, votePath, "carol@example.com", nil),
		http.StatusForbidden, "not_a_participant")

	first := doRequest(t, server, http.MethodPost, votePath, "alice@example.com", nil)
	expectStatus(t, first, http.StatusOK)
	if votes := decode[workshophttp.VoteResponse](t, first).Votes; votes != 1 {
		t.Fatalf("expected 1 vote, got %d", votes)
	}
	expectErrorCode(t, doRequest(t, server, http.MethodPost, votePath, "alice@example.com", nil),
		http.StatusConflict, "duplicate_vote")

	count := doRequest(t, server, http.MethodGet, votePath, "", nil)
	expectStatus(t, count, http.StatusOK)
	if votes := decode[workshophttp.VoteResponse](t, count).Votes; votes != 1 {
		t.Fatalf("expected live count 1, got %d", votes)
	}
	if strings.Contains(count.Body.String(), "alice@example.com") {
		t.Fatalf("vote count leaked voter identity: %s", count.Body.String())
	}
}

func TestSubmissionClosedOutsidePublished(t *testing.T) {
	server := newTestServer(t)
	sessionID, _ := seedVotingSession(t, server)

	rr := doRequest(t, server, http.MethodPost, "/v1/sessions/"+sessionID+"/contributions", "bob@example.com",
		workshophttp.SubmitContributionsRequest{Items: []workshophttp.ContributionItemDTO{{TopicID: "any"}}})
	expectErrorCode(t, rr, http.StatusBadRequest, "invalid_session_state")
}

func TestReportFormats(t *testing.T) {
	server := newTestServer(t)
	sessionID, contributionID := seedVotingSession(t, server)
	expectStatus(t, doRequest(t, server, http.MethodPost,
		"/v1/sessions/"+sessionID+"/contributions/"+contributionID+"/votes", "alice@example.com", nil), http.StatusOK)

	csvResp := doRequest(t, server, http.MethodGet, "/v1/sessions/"+sessionID+"/report?format=csv", "", nil)
	expectStatus(t, csvResp, http.StatusOK)
	if got := csvResp.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("expected csv content type, got %q", got)
	}
	if got := csvResp.Header().Get("Content-Disposition"); !strings.Contains(got, "workshop-"+sessionID+".csv") {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if !strings.Contains(csvResp.Body.String(), "zero onboarding") {
		t.Fatalf("csv report misses contribution: %s", csvResp.Body.String())
	}

	jsonResp := doRequest(t, server, http.MethodGet, "/v1/sessions/"+sessionID+"/report", "", nil)
	expectStatus(t, jsonResp, http.StatusOK)
	if jsonResp.Header().Get("Content-Disposition") != "" {
		t.Fatalf("json report should be inline")
	}
	if strings.Contains(jsonResp.Body.String(), "bob@example.com") || strings.Contains(jsonResp.Body.String(), "alice@example.com") {
		t.Fatalf("report leaked participant identities: %s", jsonResp.Body.String())
	}

	bad := doRequest(t, server, http.MethodGet, "/v1/sessions/"+sessionID+"/report?format=pdf", "", nil)
	expectErrorCode(t, bad, http.StatusBadRequest, "invalid_format")
}

func TestDeleteSessionCascades(t *testing.T) {
	server := newTestServer(t)
	sessionID, contributionID := seedVotingSession(t, server)

	expectErrorCode(t, doRequest(t, server, http.MethodDelete, "/v1/sessions/"+sessionID, "bob@example.com", nil),
		http.StatusForbidden, "not_authorized")
	expectStatus(t, doRequest(t, server, http.MethodDelete, "/v1/sessions/"+sessionID, "alice@example.com", nil),
		http.StatusNoContent)

	expectErrorCode(t, doRequest(t, server, http.MethodGet, "/v1/sessions/"+sessionID, "", nil),
		http.StatusNotFound, "session_not_found")
	expectErrorCode(t, doRequest(t, server, http.MethodGet,
		"/v1/sessions/"+sessionID+"/contributions/"+contributionID+"/votes", "", nil),
		http.StatusNotFound, "contribution_not_found")
}

func TestMetricsEndpointExposesWorkshopCounters(t *testing.T) {
	server := newTestServer(t)
	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/sessions", "alice@example.com",
		workshophttp.CreateSessionRequest{Name: "Roadmap"}), http.StatusCreated)

	rr := doRequest(t, server, http.MethodGet, "/metrics", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "sessions_created_total") {
		t.Fatalf("metrics output misses session counter")
	}
}

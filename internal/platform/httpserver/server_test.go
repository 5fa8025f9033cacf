package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	negotiationservice "trueque/contexts/exchange/negotiation-service"
	negotiationhttp "trueque/contexts/exchange/negotiation-service/transport/http"
)

func newTestServer() *Server {
	module := negotiationservice.NewInMemoryModule(nil, nil)
	return New(module, nil, ":0", time.Second)
}

func doRequest(s *Server, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func createPublication(t *testing.T, s *Server, ownerID string) string {
	t.Helper()
	rec := doRequest(s, http.MethodPost, "/v1/publications", ownerID, `{"article_name":"mountain bike"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create publication: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp negotiationhttp.CreatePublicationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.Publication.PublicationID
}

func TestServerPublicationAndOfferFlow(t *testing.T) {
	s := newTestServer()
	publicationID := createPublication(t, s, "owner-1")

	rec := doRequest(s, http.MethodPost, "/v1/publications/"+publicationID+"/offers", "bidder-1", `{"item_name":"camping tent"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit offer: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var offerResp negotiationhttp.SubmitOfferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &offerResp); err != nil {
		t.Fatalf("decode offer response: %v", err)
	}

	rec = doRequest(s, http.MethodPost,
		"/v1/publications/"+publicationID+"/offers/"+offerResp.Offer.OfferID+"/accept", "owner-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("accept offer: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/v1/publications/"+publicationID+"/summary", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", rec.Code)
	}
	var summary negotiationhttp.SummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Publication.State != "negotiating" || summary.Accepted != 1 {
		t.Fatalf("unexpected summary: state=%s accepted=%d", summary.Publication.State, summary.Accepted)
	}
}

func TestServerRequiresIdentityForMutations(t *testing.T) {
	s := newTestServer()

	rec := doRequest(s, http.MethodPost, "/v1/publications", "", `{"article_name":"mountain bike"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestServerErrorMapping(t *testing.T) {
	s := newTestServer()
	publicationID := createPublication(t, s, "owner-1")

	cases := []struct {
		name   string
		method string
		path   string
		userID string
		body   string
		status int
		code   string
	}{
		{
			name:   "unknown publication",
			method: http.MethodGet,
			path:   "/v1/publications/missing",
			status: http.StatusNotFound,
			code:   "publication_not_found",
		},
		{
			name:   "unknown offer",
			method: http.MethodPost,
			path:   "/v1/publications/" + publicationID + "/offers/missing/accept",
			userID: "owner-1",
			status: http.StatusNotFound,
			code:   "offer_not_found",
		},
		{
			name:   "stranger moderation",
			method: http.MethodPost,
			path:   "/v1/publications/" + publicationID + "/pause",
			userID: "bidder-9",
			status: http.StatusForbidden,
			code:   "forbidden",
		},
		{
			name:   "owner bidding on own listing",
			method: http.MethodPost,
			path:   "/v1/publications/" + publicationID + "/offers",
			userID: "owner-1",
			body:   `{"item_name":"camping tent"}`,
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "close before any acceptance",
			method: http.MethodPost,
			path:   "/v1/publications/" + publicationID + "/close",
			userID: "owner-1",
			status: http.StatusConflict,
			code:   "invalid_state_transition",
		},
		{
			name:   "malformed body",
			method: http.MethodPost,
			path:   "/v1/publications/" + publicationID + "/offers",
			userID: "bidder-1",
			body:   "{not json",
			status: http.StatusBadRequest,
			code:   "invalid_body",
		},
	}
	for _, tc := range cases {
		rec := doRequest(s, tc.method, tc.path, tc.userID, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.status, rec.Code, rec.Body.String())
		}
		var errResp negotiationhttp.ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
			t.Fatalf("%s: decode error response: %v", tc.name, err)
		}
		if errResp.Code != tc.code {
			t.Fatalf("%s: expected code %s, got %s", tc.name, tc.code, errResp.Code)
		}
	}
}

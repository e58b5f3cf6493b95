package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	analyticsstore "github.com/UltraQuamfy/contentify/internal/analytics/store"
	"github.com/UltraQuamfy/contentify/internal/cheqd"
	"github.com/UltraQuamfy/contentify/internal/credential/service"
	"github.com/UltraQuamfy/contentify/internal/credential/service/mocks"
	credstore "github.com/UltraQuamfy/contentify/internal/credential/store"
	"github.com/UltraQuamfy/contentify/internal/identity"
	outboxstore "github.com/UltraQuamfy/contentify/internal/outbox/store"
	"github.com/UltraQuamfy/contentify/internal/platform/middleware"
	providerstore "github.com/UltraQuamfy/contentify/internal/provider/store"
	"github.com/UltraQuamfy/contentify/internal/statuslist"
	usermodels "github.com/UltraQuamfy/contentify/internal/user/models"
	userstore "github.com/UltraQuamfy/contentify/internal/user/store"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
)

const (
	testBaseURL  = "https://api.contentify.test"
	testCheqdKey = "cheqd-studio-key-4242"
	testDID      = "did:cheqd:testnet:zHgE3o9iJWb"
	testListURL  = "https://resolver.cheqd.net/1.0/identifiers/" + testDID + "/resources/res-1"
	chromeUA     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// HandlerSuite drives the full credential API through the router: real
// service, memory stores, mocked hosted clients. Assertions run against
// the raw JSON envelopes because clients of the original API match on
// exact shapes and messages.
type HandlerSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	identityAPI   *mocks.MockIdentityClient
	statusListAPI *mocks.MockStatusListClient
	users         *userstore.InMemory
	router        chi.Router
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.identityAPI = mocks.NewMockIdentityClient(s.ctrl)
	s.statusListAPI = mocks.NewMockStatusListClient(s.ctrl)

	s.users = userstore.NewInMemory()
	providers := providerstore.NewInMemory()
	credentials := credstore.NewInMemory(credstore.WithJoins(providers.FindByID, s.users.FindByID))
	s.Require().NoError(providerstore.Seed(context.Background(), providers))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewService(service.Deps{
		Users:       s.users,
		Providers:   providers,
		Credentials: credentials,
		Analytics:   analyticsstore.NewInMemory(),
		Outbox:      outboxstore.NewInMemory(),
		Identity:    s.identityAPI,
		StatusLists: s.statusListAPI,
	}, logger, service.WithPublicBaseURL(testBaseURL))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientMetadata)
	New(svc, logger).Register(router)
	s.router = router
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var payload map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func (s *HandlerSuite) expectMint() {
	s.identityAPI.EXPECT().
		CreateKeypair(gomock.Any(), testCheqdKey).
		Return(&identity.Keypair{Kid: "kid-1", PublicKeyHex: "a1b2"}, nil)
	s.identityAPI.EXPECT().
		CreateDID(gomock.Any(), testCheqdKey, gomock.Any()).
		Return(&identity.DID{DID: testDID, ControllerKeyID: "kid-1"}, nil)
}

func (s *HandlerSuite) expectStatusList() *gomock.Call {
	return s.statusListAPI.EXPECT().
		Create(gomock.Any(), testCheqdKey, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&statuslist.StatusList{
			URL:            testListURL,
			ResourceID:     "res-1",
			PaymentAddress: "cheqd1payment0address0disabled",
			StatusPurpose:  "revocation",
		}, nil)
}

func createBody() map[string]any {
	return map[string]any{
		"content":       "This report was generated by an AI assistant.\n\n# Findings\n1. All good.",
		"aiProvider":    "openai",
		"paymentAmount": 2.5,
		"cheqdApiKey":   testCheqdKey,
	}
}

// createOne issues one credential through the API and returns its id.
func (s *HandlerSuite) createOne() (credentialID string, response map[string]any) {
	rec := s.do(http.MethodPost, "/api/credentials/create", createBody(), nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	response = s.decode(rec)
	credential, ok := response["credential"].(map[string]any)
	s.Require().True(ok)
	credentialID, ok = credential["id"].(string)
	s.Require().True(ok)
	return credentialID, response
}

func (s *HandlerSuite) TestCreateCredential_Envelope() {
	s.expectMint()
	s.expectStatusList()

	_, response := s.createOne()

	s.Equal(true, response["success"])
	s.True(strings.HasPrefix(response["qrCode"].(string), "data:image/png;base64,"))

	credential := response["credential"].(map[string]any)
	s.True(strings.HasPrefix(credential["id"].(string), "urn:uuid:"))
	s.Equal(testDID, credential["issuerDID"])
	s.Equal("OpenAI", credential["issuerName"])
	s.Len(credential["contentHash"].(string), 64)
	s.GreaterOrEqual(credential["authenticityScore"].(float64), float64(70))
	s.Equal(testListURL, credential["statusListUrl"])
	s.Equal(testBaseURL+"/api/credentials/"+credential["id"].(string), credential["verificationUrl"])

	rails := credential["paymentRails"].(map[string]any)
	s.Equal(false, rails["enabled"])
	s.Equal("CHEQ", rails["currency"])

	full := response["fullCredential"].(map[string]any)
	contexts := full["@context"].([]any)
	s.Equal("https://www.w3.org/2018/credentials/v1", contexts[0])
	s.Equal(testDID, full["issuer"])
	subject := full["credentialSubject"].(map[string]any)
	s.Equal("openai", subject["aiProvider"])
}

func (s *HandlerSuite) TestCreateCredential_Rejections() {
	s.Run("missing content", func() {
		body := createBody()
		body["content"] = ""
		rec := s.do(http.MethodPost, "/api/credentials/create", body, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.JSONEq(`{"error":"Content is required"}`, rec.Body.String())
	})

	s.Run("payment amount out of range", func() {
		body := createBody()
		body["paymentAmount"] = 250
		rec := s.do(http.MethodPost, "/api/credentials/create", body, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.JSONEq(`{"error":"Payment amount must be between 0.1 and 100 CHEQ"}`, rec.Body.String())
	})

	s.Run("missing cheqd api key", func() {
		body := createBody()
		delete(body, "cheqdApiKey")
		rec := s.do(http.MethodPost, "/api/credentials/create", body, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.NotEmpty(s.decode(rec)["error"])
	})

	s.Run("unsupported provider", func() {
		body := createBody()
		body["aiProvider"] = "gemini"
		rec := s.do(http.MethodPost, "/api/credentials/create", body, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(s.decode(rec)["error"], "Unsupported AI provider: gemini")
	})

	s.Run("malformed json body", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/credentials/create", strings.NewReader("{nope"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.JSONEq(`{"error":"Invalid request body"}`, rec.Body.String())
	})
}

// TestCreateCredential_ProviderNameNormalized verifies mixed-case provider
// names resolve to the catalog row.
func (s *HandlerSuite) TestCreateCredential_ProviderNameNormalized() {
	s.expectMint()
	s.expectStatusList()

	body := createBody()
	body["aiProvider"] = "  OpenAI "
	rec := s.do(http.MethodPost, "/api/credentials/create", body, nil)

	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	credential := s.decode(rec)["credential"].(map[string]any)
	s.Equal("OpenAI", credential["issuerName"])
}

func (s *HandlerSuite) TestCreateCredential_DownstreamFailures() {
	s.Run("remote rejection surfaces as 500 with remote message", func() {
		s.identityAPI.EXPECT().
			CreateKeypair(gomock.Any(), testCheqdKey).
			Return(nil, cheqd.NewAPIError(cheqd.ErrorAuthentication, "createKeypair", "Invalid API key provided", nil))

		rec := s.do(http.MethodPost, "/api/credentials/create", createBody(), nil)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.JSONEq(`{"error":"Invalid API key provided"}`, rec.Body.String())
	})

	s.Run("open breaker surfaces as 503", func() {
		s.identityAPI.EXPECT().
			CreateKeypair(gomock.Any(), testCheqdKey).
			Return(nil, cheqd.ErrCircuitOpen)

		rec := s.do(http.MethodPost, "/api/credentials/create", createBody(), nil)
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.JSONEq(`{"error":"Identity service temporarily unavailable"}`, rec.Body.String())
	})
}

func (s *HandlerSuite) TestGetCredential() {
	s.Run("unknown id", func() {
		rec := s.do(http.MethodGet, "/api/credentials/urn:uuid:0188b2a4-58ff-47cb-b8e7-3c3fd1a0a111", nil, nil)
		s.Equal(http.StatusNotFound, rec.Code)
		s.JSONEq(`{"error":"Credential not found"}`, rec.Body.String())
	})

	s.Run("malformed id", func() {
		rec := s.do(http.MethodGet, "/api/credentials/whatever", nil, nil)
		s.Equal(http.StatusNotFound, rec.Code)
		s.JSONEq(`{"error":"Credential not found"}`, rec.Body.String())
	})

	s.Run("stored credential", func() {
		s.expectMint()
		s.expectStatusList()
		credentialID, _ := s.createOne()

		rec := s.do(http.MethodGet, "/api/credentials/"+credentialID, nil, nil)
		s.Equal(http.StatusOK, rec.Code)

		response := s.decode(rec)
		s.Equal(true, response["success"])
		credential := response["credential"].(map[string]any)
		s.Equal(credentialID, credential["id"])
		s.Equal("active", credential["status"])
		s.Equal(float64(0), credential["verificationCount"])
		s.Equal("OpenAI", credential["issuerName"])
		s.NotNil(response["fullCredential"])
	})
}

func (s *HandlerSuite) TestVerifyCredential() {
	s.Run("missing verifier address", func() {
		rec := s.do(http.MethodPost, "/api/credentials/urn:uuid:0188b2a4-58ff-47cb-b8e7-3c3fd1a0a111/verify",
			map[string]any{}, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.JSONEq(`{"error":"Verifier address is required"}`, rec.Body.String())
	})

	s.Run("unknown credential", func() {
		rec := s.do(http.MethodPost, "/api/credentials/urn:uuid:0188b2a4-58ff-47cb-b8e7-3c3fd1a0a111/verify",
			map[string]any{"verifierAddress": "cheqd1qverifier"}, nil)
		s.Equal(http.StatusNotFound, rec.Code)
		s.JSONEq(`{"error":"Credential not found"}`, rec.Body.String())
	})

	s.Run("records verification with device summary", func() {
		s.expectMint()
		s.expectStatusList()
		credentialID, _ := s.createOne()

		header := http.Header{}
		header.Set("User-Agent", chromeUA)
		rec := s.do(http.MethodPost, "/api/credentials/"+credentialID+"/verify",
			map[string]any{"verifierAddress": "cheqd1qverifier", "paymentTxHash": "0xabc123"}, header)

		s.Equal(http.StatusOK, rec.Code, rec.Body.String())
		response := s.decode(rec)
		s.Equal(true, response["success"])

		verification := response["verification"].(map[string]any)
		s.Equal(credentialID, verification["credentialId"])
		s.Equal("cheqd1qverifier", verification["verifierAddress"])
		s.Equal("0xabc123", verification["paymentTxHash"])
		s.Equal(float64(1), verification["verificationCount"])
		s.InDelta(2.5, verification["paymentAmount"].(float64), 1e-9)
		s.InDelta(2.5, verification["revenueEarned"].(float64), 1e-9)
		s.Contains(verification["verifierDevice"], "Chrome")

		// The stored counters move with the verification.
		rec = s.do(http.MethodGet, "/api/credentials/"+credentialID, nil, nil)
		s.Equal(http.StatusOK, rec.Code)
		credential := s.decode(rec)["credential"].(map[string]any)
		s.Equal(float64(1), credential["verificationCount"])
		s.InDelta(2.5, credential["revenueEarned"].(float64), 1e-9)
	})
}

func (s *HandlerSuite) TestUserCredentials() {
	s.Run("missing api key", func() {
		rec := s.do(http.MethodGet, "/api/user/credentials", nil, nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.JSONEq(`{"error":"API key required"}`, rec.Body.String())
	})

	s.Run("unknown api key", func() {
		rec := s.do(http.MethodGet, "/api/user/credentials?apiKey=ck_nobody", nil, nil)
		s.Equal(http.StatusNotFound, rec.Code)
		s.JSONEq(`{"error":"User not found"}`, rec.Body.String())
	})

	s.Run("account dashboard", func() {
		account := &usermodels.User{
			ID:               id.UserID(uuid.New()),
			Email:            "owner@contentify.test",
			APIKey:           "ck_dashboard",
			SubscriptionTier: usermodels.TierFree,
			CreditsRemaining: 10,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		s.Require().NoError(s.users.Create(context.Background(), account))

		s.expectMint()
		s.expectStatusList()
		body := createBody()
		body["userApiKey"] = "ck_dashboard"
		rec := s.do(http.MethodPost, "/api/credentials/create", body, nil)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		credentialID := s.decode(rec)["credential"].(map[string]any)["id"].(string)

		rec = s.do(http.MethodGet, "/api/user/credentials?apiKey=ck_dashboard", nil, nil)
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())

		response := s.decode(rec)
		user := response["user"].(map[string]any)
		s.Equal("owner@contentify.test", user["email"])
		s.Equal("free", user["subscriptionTier"])
		s.Equal(float64(9), user["creditsRemaining"])

		stats := response["stats"].(map[string]any)
		s.Equal(float64(1), stats["totalCredentials"])
		s.Equal(float64(0), stats["totalVerifications"])

		credentials := response["credentials"].([]any)
		s.Require().Len(credentials, 1)
		s.Equal(credentialID, credentials[0].(map[string]any)["id"])
	})
}

func (s *HandlerSuite) TestStats() {
	s.Run("empty state", func() {
		rec := s.do(http.MethodGet, "/api/stats", nil, nil)
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"totalCredentials":0,"totalVerifications":0,"totalProviders":5,"totalRevenue":0}`, rec.Body.String())
	})

	s.Run("after issuance and verification", func() {
		s.expectMint()
		s.expectStatusList()
		credentialID, _ := s.createOne()
		rec := s.do(http.MethodPost, "/api/credentials/"+credentialID+"/verify",
			map[string]any{"verifierAddress": "cheqd1qverifier"}, nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		rec = s.do(http.MethodGet, "/api/stats", nil, nil)
		s.Equal(http.StatusOK, rec.Code)
		response := s.decode(rec)
		s.Equal(float64(1), response["totalCredentials"])
		s.Equal(float64(1), response["totalVerifications"])
		s.Equal(float64(5), response["totalProviders"])
		s.InDelta(2.5, response["totalRevenue"].(float64), 1e-9)
	})
}

func (s *HandlerSuite) TestListProviders() {
	rec := s.do(http.MethodGet, "/api/providers", nil, nil)
	s.Equal(http.StatusOK, rec.Code)

	providers := s.decode(rec)["providers"].([]any)
	s.Require().Len(providers, 5)

	first := providers[0].(map[string]any)
	s.Equal("anthropic", first["name"])
	s.Equal("Anthropic", first["displayName"])
	s.Equal(false, first["hasDID"])

	s.expectMint()
	s.expectStatusList()
	s.createOne()

	rec = s.do(http.MethodGet, "/api/providers", nil, nil)
	providers = s.decode(rec)["providers"].([]any)
	for _, entry := range providers {
		p := entry.(map[string]any)
		if p["name"] == "openai" {
			s.Equal(true, p["hasDID"])
		} else {
			s.Equal(false, p["hasDID"])
		}
	}
}

// Package service orchestrates credential issuance, verification and reads.
//
// All crypto is delegated: the hosted cheqd API mints keypairs, DIDs and
// status lists. What lives here is validation, scoring, document assembly
// and bookkeeping.
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	analyticsmodels "github.com/UltraQuamfy/contentify/internal/analytics/models"
	credmodels "github.com/UltraQuamfy/contentify/internal/credential/models"
	"github.com/UltraQuamfy/contentify/internal/identity"
	"github.com/UltraQuamfy/contentify/internal/outbox"
	"github.com/UltraQuamfy/contentify/internal/platform/metrics"
	providermodels "github.com/UltraQuamfy/contentify/internal/provider/models"
	"github.com/UltraQuamfy/contentify/internal/statuslist"
	usermodels "github.com/UltraQuamfy/contentify/internal/user/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	"github.com/UltraQuamfy/contentify/pkg/platform/tx"
)

// UserStore persists accounts.
// Error contract: FindByAPIKey reports sentinel.ErrNotFound for unknown keys.
type UserStore interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*usermodels.User, error)
	Create(ctx context.Context, user *usermodels.User) error
	DecrementCredits(ctx context.Context, userID id.UserID) error
}

// ProviderStore persists the issuer catalog.
// Error contract: FindByName reports sentinel.ErrNotFound for unknown names;
// AttachDID reports sentinel.ErrConflict when a DID is already attached.
type ProviderStore interface {
	FindByName(ctx context.Context, name string) (*providermodels.Provider, error)
	List(ctx context.Context) ([]*providermodels.Provider, error)
	AttachDID(ctx context.Context, providerID id.ProviderID, did, keypairID string) error
	Count(ctx context.Context) (int64, error)
}

// CredentialStore persists credentials and their verification history.
type CredentialStore interface {
	Insert(ctx context.Context, credential *credmodels.Credential) error
	FindByID(ctx context.Context, credentialID id.CredentialID) (*credmodels.EnrichedCredential, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*credmodels.EnrichedCredential, error)
	BumpVerification(ctx context.Context, credentialID id.CredentialID) (count int, revenue float64, err error)
	InsertVerification(ctx context.Context, verification *credmodels.Verification) error
	Totals(ctx context.Context) (credentials, verifications int64, revenue float64, err error)
}

// CredentialCache holds enriched reads. Optional; nil disables caching.
type CredentialCache interface {
	Find(ctx context.Context, credentialID id.CredentialID) (*credmodels.EnrichedCredential, error)
	Save(ctx context.Context, enriched *credmodels.EnrichedCredential) error
	Invalidate(ctx context.Context, credentialID id.CredentialID) error
}

// AnalyticsStore records analytics events.
type AnalyticsStore interface {
	Append(ctx context.Context, event *analyticsmodels.Event) error
}

// OutboxStore appends events for asynchronous publication.
type OutboxStore interface {
	Append(ctx context.Context, entry *outbox.Entry) error
}

// IdentityClient mints keypairs and DIDs through the hosted API.
type IdentityClient interface {
	CreateKeypair(ctx context.Context, apiKey string) (*identity.Keypair, error)
	CreateDID(ctx context.Context, apiKey string, params identity.CreateDIDParams) (*identity.DID, error)
}

// StatusListClient creates hosted revocation status lists.
type StatusListClient interface {
	Create(ctx context.Context, apiKey, did, name string, paymentAmount float64) (*statuslist.StatusList, error)
}

// TxRunner runs fn as one atomic persistence unit. Stores joining the
// context transaction commit or roll back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service is the credential application service.
type Service struct {
	users       UserStore
	providers   ProviderStore
	credentials CredentialStore
	cache       CredentialCache
	analytics   AnalyticsStore
	outbox      OutboxStore
	identity    IdentityClient
	statusLists StatusListClient
	txRunner    TxRunner
	metrics     *metrics.Metrics
	logger      *slog.Logger

	// didMints collapses concurrent first-issuance DID creation per issuer
	// so the hosted API sees at most one mint in flight.
	didMints singleflight.Group

	publicBaseURL  string
	network        string
	initialCredits int
}

// Option configures the service.
type Option func(*Service)

// Deps bundles the service's required collaborators.
type Deps struct {
	Users       UserStore
	Providers   ProviderStore
	Credentials CredentialStore
	Analytics   AnalyticsStore
	Outbox      OutboxStore
	Identity    IdentityClient
	StatusLists StatusListClient
}

// NewService constructs the credential service.
func NewService(deps Deps, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		users:          deps.Users,
		providers:      deps.Providers,
		credentials:    deps.Credentials,
		analytics:      deps.Analytics,
		outbox:         deps.Outbox,
		identity:       deps.Identity,
		statusLists:    deps.StatusLists,
		txRunner:       tx.Passthrough{},
		logger:         logger,
		publicBaseURL:  "http://localhost:8080",
		network:        "testnet",
		initialCredits: usermodels.FreeTierCredits,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithTxRunner sets the transactional boundary implementation.
func WithTxRunner(runner TxRunner) Option {
	return func(s *Service) {
		if runner != nil {
			s.txRunner = runner
		}
	}
}

// WithCache enables the credential read cache.
func WithCache(cache CredentialCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPublicBaseURL sets the externally reachable base URL embedded in
// verification links.
func WithPublicBaseURL(baseURL string) Option {
	return func(s *Service) {
		if baseURL != "" {
			s.publicBaseURL = baseURL
		}
	}
}

// WithNetwork sets the ledger network recorded in issued documents.
func WithNetwork(network string) Option {
	return func(s *Service) {
		if network != "" {
			s.network = network
		}
	}
}

// WithInitialCredits sets the allowance granted to new accounts.
func WithInitialCredits(credits int) Option {
	return func(s *Service) {
		if credits >= 0 {
			s.initialCredits = credits
		}
	}
}

package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/auth"
	"github.com/masseurmatch/masseurmatch/internal/email"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/integration/stripe"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

// NoopTransactioner runs fn directly
type NoopTransactioner struct{}

var _ postgres.Transactioner = NoopTransactioner{}

func (NoopTransactioner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// FakeClock is a settable clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now.UTC()}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now.UTC()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FakeEmailSender records template sends. Err, when set, is returned from every send.
type FakeEmailSender struct {
	mu   sync.Mutex
	sent []email.SendTemplateRequest
	Err  error
}

var _ email.Sender = (*FakeEmailSender)(nil)

func NewFakeEmailSender() *FakeEmailSender {
	return &FakeEmailSender{}
}

func (f *FakeEmailSender) SendTemplate(ctx context.Context, req email.SendTemplateRequest) (*email.SendEmailResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.sent = append(f.sent, req)
	return &email.SendEmailResponse{MessageID: types.GenerateUUID(), Success: true}, nil
}

// Sent returns a copy of the recorded sends
func (f *FakeEmailSender) Sent() []email.SendTemplateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]email.SendTemplateRequest(nil), f.sent...)
}

// FakeUserDirectory resolves users from a fixed map
type FakeUserDirectory struct {
	mu    sync.RWMutex
	users map[string]*auth.User
}

var _ auth.UserDirectory = (*FakeUserDirectory)(nil)

func NewFakeUserDirectory() *FakeUserDirectory {
	return &FakeUserDirectory{users: make(map[string]*auth.User)}
}

func (d *FakeUserDirectory) AddUser(id, address string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[id] = &auth.User{ID: id, Email: address}
}

func (d *FakeUserDirectory) GetUser(ctx context.Context, userID string) (*auth.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return nil, ierr.NewError("user not found").
			WithHint("User not found").
			Mark(ierr.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

// FakeStripeGateway records outbound session requests
type FakeStripeGateway struct {
	mu             sync.Mutex
	Checkouts      []stripe.CheckoutRequest
	PortalCustomer []string
	IdentityUsers  []string
	Err            error
}

var _ stripe.Gateway = (*FakeStripeGateway)(nil)

func NewFakeStripeGateway() *FakeStripeGateway {
	return &FakeStripeGateway{}
}

func (g *FakeStripeGateway) CreateCheckoutSession(ctx context.Context, req stripe.CheckoutRequest) (*stripe.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.Checkouts = append(g.Checkouts, req)
	return &stripe.Session{ID: "cs_test_" + types.GenerateUUID(), URL: "https://checkout.stripe.test/session"}, nil
}

func (g *FakeStripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.PortalCustomer = append(g.PortalCustomer, customerID)
	return &stripe.Session{ID: "bps_test_" + types.GenerateUUID(), URL: "https://billing.stripe.test/session"}, nil
}

func (g *FakeStripeGateway) CreateIdentitySession(ctx context.Context, userID, returnURL string) (*stripe.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.IdentityUsers = append(g.IdentityUsers, userID)
	return &stripe.Session{ID: "vs_test_" + types.GenerateUUID(), URL: "https://verify.stripe.test/session"}, nil
}

package testfixtures

import (
	"log/slog"
	"time"

	"github.com/c4sa/Unido-sub000/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Policy      application.BookingPolicy
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Policy:      application.DefaultBookingPolicy(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithPolicy overrides the booking policy handed to booking services.
func WithPolicy(policy application.BookingPolicy) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Policy = policy
	}
}

// RoomServiceDeps captures dependencies for constructing a room service.
type RoomServiceDeps struct {
	Rooms       application.RoomRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewRoomService builds a room service using the supplied dependencies.
func (f *ServiceFactory) NewRoomService(deps RoomServiceDeps) *application.RoomService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewRoomServiceWithLogger(deps.Rooms, idGen, now, deps.Logger)
}

// NewBookingService builds a booking service, filling the ID generator, clock
// and policy from the factory when deps leaves them unset.
func (f *ServiceFactory) NewBookingService(deps application.BookingDeps) *application.BookingService {
	if deps.IDGenerator == nil {
		deps.IDGenerator = f.IDGenerator.NextFunc()
	}
	if deps.Now == nil {
		deps.Now = f.Clock.NowFunc()
	}
	if deps.Policy.Location == nil {
		deps.Policy = f.Policy
	}
	return application.NewBookingService(deps)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials     application.CredentialStore
	SecretGenerator func() (string, error)
	Now             func() time.Time
	Logger          *slog.Logger
}

// NewAuthService builds an auth service with cheap hashing parameters and
// secrets drawn from the factory's ID generator.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	secrets := deps.SecretGenerator
	if secrets == nil {
		next := f.IDGenerator.NextFunc()
		secrets = func() (string, error) { return "secret-" + next(), nil }
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAuthServiceWithLogger(deps.Credentials, nil, secrets, now, deps.Logger).
		WithHashParams(FastHashParams())
}

// FastHashParams keeps token hashing cheap in tests.
func FastHashParams() application.Argon2idParams {
	return application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
}

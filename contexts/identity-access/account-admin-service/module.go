package accountadmin

import (
	"log/slog"

	httpadapter "dealerdesk/contexts/identity-access/account-admin-service/adapters/http"
	"dealerdesk/contexts/identity-access/account-admin-service/adapters/memory"
	"dealerdesk/contexts/identity-access/account-admin-service/application"
	"dealerdesk/contexts/identity-access/account-admin-service/application/commands"
	"dealerdesk/contexts/identity-access/account-admin-service/application/queries"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
)

// Module is the account-admin composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Identity     ports.IdentityStore
	Profiles     ports.ProfileStore
	Audit        ports.AuditSink
	SyncFailures ports.SyncFailureStore
	Outbox       ports.OutboxRepository
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

// NewModule wires the role/status use cases and transport handler from
// explicit ports. Every mutation path flows through the validator, the
// guards, and the audit logger; nothing writes around them.
func NewModule(deps Dependencies) Module {
	validator := application.AccessValidator{
		Identity: deps.Identity,
		Profiles: deps.Profiles,
		Logger:   deps.Logger,
	}
	guard := application.ManagerCountGuard{
		Profiles: deps.Profiles,
	}
	audit := application.AuditLogger{
		Sink:        deps.Audit,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}

	setRole := commands.SetManagerRoleUseCase{
		Identity:     deps.Identity,
		Profiles:     deps.Profiles,
		SyncFailures: deps.SyncFailures,
		Outbox:       deps.Outbox,
		Validator:    validator,
		Guard:        guard,
		Audit:        audit,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	setStatus := commands.SetAccountDisabledUseCase{
		Identity:     deps.Identity,
		Profiles:     deps.Profiles,
		SyncFailures: deps.SyncFailures,
		Outbox:       deps.Outbox,
		Validator:    validator,
		Audit:        audit,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	listAudit := queries.ListAuditEntriesUseCase{
		Audit:     deps.Audit,
		Validator: validator,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			SetManagerRole:     setRole,
			SetAccountDisabled: setStatus,
			ListAuditEntries:   listAudit,
			Logger:             deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters, including the identity-provider fake.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Identity:     store,
		Profiles:     store,
		Audit:        store,
		SyncFailures: store,
		Outbox:       store,
		Clock:        store,
		IDGenerator:  store,
		Logger:       logger,
	})
	module.Store = store
	return module
}

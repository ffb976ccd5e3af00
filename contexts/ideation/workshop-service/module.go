package workshopservice

import (
	"log/slog"

	httpadapter "ideaforge/contexts/ideation/workshop-service/adapters/http"
	postgresadapter "ideaforge/contexts/ideation/workshop-service/adapters/postgres"
	sqliteadapter "ideaforge/contexts/ideation/workshop-service/adapters/sqlite"
	"ideaforge/contexts/ideation/workshop-service/application/commands"
	"ideaforge/contexts/ideation/workshop-service/application/queries"
	"ideaforge/contexts/ideation/workshop-service/ports"

	"gorm.io/gorm"
)

type Module struct {
	Handler httpadapter.Handler
	Store   ports.Store
	Outbox  ports.OutboxRepository
}

type Dependencies struct {
	Store       ports.Store
	Outbox      ports.OutboxRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	clock := deps.Clock
	if clock == nil {
		clock = postgresadapter.SystemClock{}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = postgresadapter.UUIDGenerator{}
	}

	sessions := commands.SessionUseCase{
		Store:   deps.Store,
		Clock:   clock,
		IDGen:   idGen,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}
	topics := commands.TopicUseCase{
		Store:  deps.Store,
		Clock:  clock,
		IDGen:  idGen,
		Logger: deps.Logger,
	}
	roster := commands.RosterUseCase{
		Store:  deps.Store,
		Clock:  clock,
		Logger: deps.Logger,
	}
	submissions := commands.ContributionUseCase{
		Store:   deps.Store,
		Clock:   clock,
		IDGen:   idGen,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}
	votes := commands.VoteUseCase{
		Store:   deps.Store,
		Clock:   clock,
		IDGen:   idGen,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}

	getSession := queries.GetSessionUseCase{
		Sessions: deps.Store,
		Logger:   deps.Logger,
	}
	listTopics := queries.ListTopicsUseCase{
		Sessions: deps.Store,
		Topics:   deps.Store,
		Logger:   deps.Logger,
	}
	rosterStatus := queries.RosterStatusUseCase{
		Sessions:     deps.Store,
		Participants: deps.Store,
		Logger:       deps.Logger,
	}
	contributions := queries.ContributionsUseCase{
		Sessions:      deps.Store,
		Topics:        deps.Store,
		Contributions: deps.Store,
		Logger:        deps.Logger,
	}
	voteCounts := queries.VoteCountUseCase{
		Contributions: deps.Store,
		Votes:         deps.Store,
		Logger:        deps.Logger,
	}
	reports := queries.ReportUseCase{
		Sessions:      deps.Store,
		Topics:        deps.Store,
		Contributions: deps.Store,
		Clock:         clock,
		Logger:        deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Sessions:      sessions,
			Topics:        topics,
			Roster:        roster,
			Submissions:   submissions,
			Votes:         votes,
			GetSession:    getSession,
			ListTopics:    listTopics,
			RosterStatus:  rosterStatus,
			Contributions: contributions,
			VoteCounts:    voteCounts,
			Reports:       reports,
			Logger:        deps.Logger,
		},
		Store:  deps.Store,
		Outbox: deps.Outbox,
	}
}

// NewPostgresModule wires the module against a migrated Postgres database.
func NewPostgresModule(db *gorm.DB, metrics ports.Metrics, logger *slog.Logger) Module {
	repository := postgresadapter.NewRepository(db, logger)
	return NewModule(Dependencies{
		Store:       repository,
		Outbox:      repository,
		Clock:       postgresadapter.SystemClock{},
		IDGenerator: postgresadapter.UUIDGenerator{},
		Metrics:     metrics,
		Logger:      logger,
	})
}

// NewSQLiteModule wires the module against an embedded database at path.
// Pass sqliteadapter.MemoryPath for a throwaway store. The caller closes the
// returned store.
func NewSQLiteModule(path string, metrics ports.Metrics, logger *slog.Logger) (Module, *sqliteadapter.Store, error) {
	store, err := sqliteadapter.Open(path, logger)
	if err != nil {
		return Module{}, nil, err
	}
	module := NewModule(Dependencies{
		Store:       store,
		Outbox:      store,
		Clock:       postgresadapter.SystemClock{},
		IDGenerator: postgresadapter.UUIDGenerator{},
		Metrics:     metrics,
		Logger:      logger,
	})
	return module, store, nil
}

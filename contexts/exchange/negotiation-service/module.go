package negotiationservice

import (
	"log/slog"

	httpadapter "trueque/contexts/exchange/negotiation-service/adapters/http"
	"trueque/contexts/exchange/negotiation-service/adapters/memory"
	"trueque/contexts/exchange/negotiation-service/application/commands"
	"trueque/contexts/exchange/negotiation-service/application/queries"
	"trueque/contexts/exchange/negotiation-service/domain/entities"
	"trueque/contexts/exchange/negotiation-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createPublication := commands.CreatePublicationUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	submitOffer := commands.SubmitOfferUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	respondOffer := commands.RespondOfferUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	closeNegotiation := commands.CloseNegotiationUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	pausePublication := commands.PausePublicationUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreatePublication: createPublication,
			SubmitOffer:       submitOffer,
			RespondOffer:      respondOffer,
			CloseNegotiation:  closeNegotiation,
			PausePublication:  pausePublication,
			Queries:           queryUseCase,
			Logger:            deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Publication, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

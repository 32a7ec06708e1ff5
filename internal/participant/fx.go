package participant

import (
	"github.com/smallbiznis/roomledger/internal/participant/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("participant.repository",
	fx.Provide(repository.Provide),
)

package agent

import (
	"github.com/smallbiznis/roomledger/internal/agent/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("agent.repository",
	fx.Provide(repository.Provide),
)

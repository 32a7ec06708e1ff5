package reconciler

import (
	"github.com/smallbiznis/roomledger/internal/reconciler/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconciler.service",
	fx.Provide(service.New),
)

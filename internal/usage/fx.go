package usage

import (
	"github.com/smallbiznis/roomledger/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.aggregator",
	fx.Provide(service.Provide),
)

package track

import (
	"github.com/smallbiznis/roomledger/internal/track/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("track.repository",
	fx.Provide(repository.Provide),
)

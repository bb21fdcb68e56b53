package campus

import (
	"google.golang.org/grpc"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/notify"
)

// Registrar ties the Campus service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
	center *notify.Center
}

// NewRegistrar creates a new Registrar for the Campus service
func NewRegistrar(appCtx *app.AppContext, center *notify.Center) *Registrar {
	return &Registrar{appCtx: appCtx, center: center}
}

// Register attaches the Campus service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	RegisterCampusServiceServer(s, NewCampusService(r.appCtx, r.center))
}

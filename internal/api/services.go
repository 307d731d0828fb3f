package api

import (
	"context"

	"github.com/hiveapp/hive-server/internal/service"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services holds the service layer the handlers call into.
type Services struct {
	Admission *service.AdmissionService
	Hive      *service.HiveService
	Database  Pinger
}

package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sampleapi/users-service/internal/pagination"
	"github.com/sampleapi/users-service/internal/service"
)

// Deps is everything Register needs. Users and Authn may be nil, in which case only
// health and docs routes are mounted.
type Deps struct {
	Storage        Pinger
	Users          service.UserService
	Authn          gin.HandlerFunc
	Pagination     pagination.Bounds
	RequestTimeout time.Duration
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, d Deps) {
	h := NewHealthHandler(d.Storage)

	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	RegisterDocs(r)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		if d.Users != nil && d.Authn != nil {
			NewUserHandler(d.Users, d.Pagination, d.RequestTimeout).Register(api, d.Authn)
		}
	}
}

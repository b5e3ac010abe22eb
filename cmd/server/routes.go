package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lu2a-dev/dayplaner/internal/db"
	"github.com/lu2a-dev/dayplaner/internal/http/api"
	authapi "github.com/lu2a-dev/dayplaner/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/lu2a-dev/dayplaner/internal/http/api/admin/control/endpoints"
	displayapi "github.com/lu2a-dev/dayplaner/internal/http/api/display/endpoints"
	publicapi "github.com/lu2a-dev/dayplaner/internal/http/api/public/endpoints"
	"github.com/lu2a-dev/dayplaner/internal/mail"
	"github.com/lu2a-dev/dayplaner/internal/pairing"
	"github.com/lu2a-dev/dayplaner/internal/storage"
)

// RegisterRoutes sets up all application routes.
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, files storage.Storage, mailer *mail.Mailer, pairingService *pairing.Service) {
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// account endpoints that need no session
	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.AuthPublicModule(env.SecretKey, store, mailer, env.FrontendURL),
	)

	// operator endpoints behind JWT auth
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
		Users:     store,
	},
		authapi.AuthSessionModule(env.SecretKey, store, mailer, env.FrontendURL),
		adminapi.OrganisationModule(store, mailer, files, env.FrontendURL),
		adminapi.EventModule(store),
		adminapi.ShareModule(store, env.FrontendURL),
		adminapi.DisplayModule(pairingService),
	)

	// device pairing protocol and public share viewer
	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		displayapi.PairingModule(pairingService),
		publicapi.SharedPlanModule(store),
	)

	if !env.UseSpaces {
		r.Static("/uploads", "./uploads")
	}
}

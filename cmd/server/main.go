package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hakobgh/socialmedia/auth"
	"github.com/hakobgh/socialmedia/server"
	"github.com/hakobgh/socialmedia/server/middlewares"
	"github.com/hakobgh/socialmedia/storage"
	"github.com/hakobgh/socialmedia/store"
	. "github.com/hakobgh/socialmedia/utils"
	"github.com/hakobgh/socialmedia/utils/dotenv"
	. "github.com/hakobgh/socialmedia/utils/flag"
	. "github.com/hakobgh/socialmedia/utils/log"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func cleanup() {
	CloseProfiler()
	CloseTracer()
	Log.Info("api server shutdown")
}

func main() {
	defer cleanup()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect to database: ", err)
	}
	DatabaseSetupAndMigration(db)

	provider, err := auth.NewCognitoProvider()
	if err != nil {
		Log.Fatal("fail to setup auth provider: ", err)
	}

	sessions, err := GetRedisSessionStore()
	if err != nil {
		// The session cache is an optimization, handlers fall back to the
		// profile store when it is absent.
		Log.Warn("session cache unavailable: ", err)
	}

	postImages, err := storage.NewS3ImageStore(storage.PostImageBucket)
	if err != nil {
		Log.Fatal("fail to setup post image store: ", err)
	}
	profileImages, err := storage.NewS3ImageStore(storage.ProfileImageBucket)
	if err != nil {
		Log.Fatal("fail to setup profile image store: ", err)
	}

	bus := store.NewGoChannelChangeBus()

	srv := &server.Server{
		Auth:          provider,
		Users:         store.NewGormUserStore(db),
		Posts:         store.NewGormPostStore(db, bus),
		Bus:           bus,
		PostImages:    postImages,
		ProfileImages: profileImages,
		Sessions:      sessions,
	}

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(ServiceName))

	authenticated := router.Group("/")
	if !ByPassAuth {
		authenticated.Use(middlewares.JWT(provider))
	}
	srv.RegisterRoutes(router, authenticated)

	Log.Info("api server starts up")
	router.Run(":8080")
}

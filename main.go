package main

import (
	"github.com/freedeaths/SUT-OpenAPI-Blog/config"
	"github.com/freedeaths/SUT-OpenAPI-Blog/engine"
	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/routes"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage/gormstore"
	"github.com/freedeaths/SUT-OpenAPI-Blog/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Reply{},
		&models.Reaction{},
		&models.Tag{},
		&models.PostTag{},
	)

	store := gormstore.New(db)
	eng := engine.New(store, engine.WithLogger(utils.Logger))

	r := routes.SetupRouter(store, eng)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

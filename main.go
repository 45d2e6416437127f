package main

import (
	"cedarhill/portal-api/app"
	"cedarhill/portal-api/config"
	"cedarhill/portal-api/db"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	app.SetupLogger()

	if viper.GetBool("migrate-only") {
		if _, err := db.New(); err != nil {
			zap.L().Fatal("Migrations failed", zap.Error(err))
		}

		zap.L().Info("Migrations applied")
		return
	}

	router, err := app.NewRouter()
	if err != nil {
		panic(err)
	}

	zap.L().Info("Server starting", zap.Int("port", viper.GetInt("host.port")))

	addr := fmt.Sprintf(":%d", viper.GetInt("host.port"))

	if viper.GetBool("host.ssl.enabled") {
		err = router.RunTLS(addr,
			viper.GetString("host.ssl.certificate_path"),
			viper.GetString("host.ssl.certificate_key_path"),
		)
	} else {
		err = router.Run(addr)
	}

	if err != nil {
		panic(err)
	}
}

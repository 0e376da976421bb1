package main

import (
	"fmt"
	"os"

	"landrop/share-api/app"
	"landrop/share-api/config"
	"landrop/share-api/pkg/security"

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

	if *config.PrintIdentity {
		id, err := security.LoadOrCreateIdentity(
			viper.GetString("identity.path"),
			viper.GetString("identity.name"),
		)
		if err != nil {
			panic(err)
		}

		fmt.Printf("%s\t%s\t%s\n", id.DeviceID, id.DeviceName, id.Fingerprint())
		os.Exit(0)
	}

	router, err := app.NewRouter()
	if err != nil {
		panic(err)
	}

	addr := fmt.Sprintf(":%d", viper.GetInt("host.port"))
	zap.L().Info("Server starting", zap.String("addr", addr))

	if viper.GetBool("host.ssl.enabled") {
		err = router.RunTLS(
			addr,
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

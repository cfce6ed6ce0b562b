// Command signin runs the sign-in portal and its account tooling.
package main

import (
	"os"

	"github.com/99minutos/signin-portal/internal/cli"
)

// @title                       Sign-in Portal API
// @version                     1.0
// @description                 Email/password sign-in against a backend-as-a-service account API.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

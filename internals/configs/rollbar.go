package configs

import (
	"log"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
)

// InitRollbar enables error reporting when ROLLBAR_TOKEN is present.
func InitRollbar() bool {
	token := GetEnv("ROLLBAR_TOKEN")
	if token == "" {
		rollbar.SetEnabled(false)
		return false
	}
	host, _ := os.Hostname()
	rollbar.SetToken(token)
	rollbar.SetEnvironment(GetEnv("APP_ENV"))
	rollbar.SetServerHost(host)
	rollbar.SetCodeVersion(GetEnv("BUILD_VERSION", "dev"))
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(true)
	log.Println("[INFO] rollbar reporting enabled")
	return true
}

// ReportError forwards err with request context; no-op when disabled.
func ReportError(err error, extras map[string]interface{}) {
	if err == nil {
		return
	}
	rollbar.Error(err, extras)
}

func CloseRollbar() {
	rollbar.Close()
}

// README: Process-wide logrus setup.
package infra

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger configures logrus for structured output. JSON formatting is
// enabled outside development so log collectors can parse fields.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if os.Getenv("SOUQ_ENV") == "development" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// Package version хранит сведения о сборке, заполняемые через -ldflags:
//
//	go build -ldflags "-X github.com/vladislavdragonenkov/qms/internal/version.version=v1.2.0"
package version

import "fmt"

// ServiceName: имя сервиса в логах и health-ответах.
const ServiceName = "quotation-service"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// GetCommit возвращает хеш коммита сборки.
func GetCommit() string { return commit }

// GetDate возвращает дату сборки.
func GetDate() string { return date }

// Fields возвращает сведения о сборке для структурированного лога.
func Fields() map[string]any {
	return map[string]any{
		"service": ServiceName,
		"version": version,
		"commit":  commit,
		"date":    date,
	}
}

// String: однострочное описание сборки для логов.
func String() string {
	return fmt.Sprintf("%s version=%s commit=%s date=%s", ServiceName, version, commit, date)
}

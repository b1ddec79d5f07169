package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info returns version information populated via -ldflags.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// GetCommit возвращает хеш коммита сборки.
func GetCommit() string { return commit }

// GetDate возвращает дату сборки.
func GetDate() string { return date }

// CacheTag возвращает тег для имени офлайн-кеша витрины.
// Для dev-сборок используется "v1", чтобы кеш не сбрасывался при каждом запуске.
func CacheTag() string {
	if version == "dev" || version == "" {
		return "v1"
	}
	return version
}

// UserAgent возвращает User-Agent для исходящих HTTP-запросов.
func UserAgent() string {
	return "doceeser-orderboard/" + version
}

func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}

//go:build sqlite_cgo

package profilestore

// Built with -tags sqlite_cgo when a deployment already pays the cgo cost
// elsewhere and wants mattn/go-sqlite3's driver instead of the default
// pure-Go one (e.g. to share its SQLite build with another cgo dependency).
import _ "github.com/mattn/go-sqlite3"

const sqliteDriverName = "sqlite3"

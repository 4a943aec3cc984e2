//go:build !sqlite_cgo

package profilestore

// modernc.org/sqlite is the default backing driver: pure Go, no cgo, so a
// plain `go build` of sentra never needs a C toolchain just to get a local
// profile cache.
import _ "modernc.org/sqlite"

const sqliteDriverName = "sqlite"

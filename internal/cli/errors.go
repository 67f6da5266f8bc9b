package cli

import "errors"

var (
	errNoProfiles    = errors.New("no profiles given: pass usernames as arguments or use --file")
	errNotSQLBackend = errors.New("flags_backend is not a SQL backend")
)

package cache

import "errors"

// ErrCacheNotFound is returned by Open when the database does not exist and
// Options.CreateIfNotExists is false.
var ErrCacheNotFound = errors.New("cache database not found")

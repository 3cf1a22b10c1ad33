package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Info describes the backend a connection string resolves to.
type Info struct {
	Name   string `json:"name"`
	Scheme string `json:"scheme"`
	Host   string `json:"host,omitempty"`
}

// Detect resolves a connection string to a backend tag without dialing.
func Detect(rawURL string) (Info, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Info{}, fmt.Errorf("parse backend url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	info := Info{Scheme: scheme, Host: u.Host}
	switch scheme {
	case "redis", "rediss", "unix":
		info.Name = NameRedis
	case "postgres", "postgresql":
		info.Name = NamePostgres
	case "sqlite", "sqlite3":
		info.Name = NameSQLite
	default:
		return Info{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return info, nil
}

// Open builds the backend for rawURL. No implementation dials here;
// the first connection happens on the selector's handshake.
// keyPrefix scopes every key the backend writes.
func Open(ctx context.Context, rawURL, keyPrefix string) (Backend, error) {
	info, err := Detect(rawURL)
	if err != nil {
		return nil, err
	}
	switch info.Name {
	case NameRedis:
		return NewRedisFromURL(rawURL, keyPrefix)
	case NameSQLite:
		u, _ := url.Parse(rawURL)
		return NewSQLite(sqlitePath(u), keyPrefix)
	default:
		return NewPostgres(ctx, rawURL, keyPrefix)
	}
}

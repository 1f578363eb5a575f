// Package context holds the keys of values the service attaches to a
// request context and the helpers that turn them into log fields.
package context

import (
	"context"
)

type Key string

func (c Key) String() string {
	return string(c)
}

const (
	RequestIDKey      = Key("request-id")
	RepositoryKey     = Key("repository")
	InstallationIDKey = Key("installation-id")
	SessionKey        = Key("session")
	DeliveryIDKey     = Key("delivery-id")
	ErrKey            = Key("err")
)

// Keys are pulled from the context in this order when building log fields.
var logKeys = []Key{
	RequestIDKey,
	RepositoryKey,
	InstallationIDKey,
	SessionKey,
	DeliveryIDKey,
}

// ExtractFields returns every known key present on ctx.
func ExtractFields(ctx context.Context) map[string]interface{} {
	fields := make(map[string]interface{})
	for _, k := range logKeys {
		if v := ctx.Value(k); v != nil {
			fields[k.String()] = v
		}
	}
	return fields
}

// CopyFields attaches the known keys of src onto dst. Used when work outlives
// the request that scheduled it.
func CopyFields(dst context.Context, src context.Context) context.Context {
	for _, k := range logKeys {
		if v := src.Value(k); v != nil {
			dst = context.WithValue(dst, k, v)
		}
	}
	return dst
}

package common

import (
	"context"
	"time"
)

// Principal is the authenticated caller of an admin route.
type Principal struct {
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type principalKey struct{}

type principalSlotKey struct{}

type principalSlot struct {
	p Principal
}

// TrackPrincipal lets an outer middleware see a principal that an inner
// handler attaches with WithPrincipal.
func TrackPrincipal(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalSlotKey{}, &principalSlot{})
}

// WithPrincipal stores p on ctx and in any slot installed by TrackPrincipal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if slot, ok := ctx.Value(principalSlotKey{}).(*principalSlot); ok {
		slot.p = p
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by the admin guard, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok && p.Subject != "" {
		return p, true
	}
	if slot, ok := ctx.Value(principalSlotKey{}).(*principalSlot); ok && slot.p.Subject != "" {
		return slot.p, true
	}
	return Principal{}, false
}

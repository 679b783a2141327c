package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"comanda/backend/internal/domain"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type pinEntry struct {
	hash []byte
	role domain.Role
}

// PINGate resolves a four-digit PIN to the role it unlocks. PINs are kept
// only as bcrypt hashes.
type PINGate struct {
	entries []pinEntry
}

func NewPINGate(pins map[string]domain.Role, cost int) (*PINGate, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	gate := &PINGate{entries: make([]pinEntry, 0, len(pins))}
	for pin, role := range pins {
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role %q", role)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
		if err != nil {
			return nil, fmt.Errorf("hash PIN for %s: %w", role, err)
		}
		gate.entries = append(gate.entries, pinEntry{hash: hash, role: role})
	}
	return gate, nil
}

func (g *PINGate) Resolve(pin string) (domain.Role, bool) {
	input := strings.TrimSpace(pin)
	if g == nil || input == "" {
		return domain.RoleNone, false
	}
	for _, entry := range g.entries {
		if bcrypt.CompareHashAndPassword(entry.hash, []byte(input)) == nil {
			return entry.role, true
		}
	}
	return domain.RoleNone, false
}

// authorize checks the capability table for the role carried in ctx.
func authorize(ctx context.Context, capability domain.Capability) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || !actor.Role.Can(capability) {
		return domain.Fail(domain.ReasonForbidden, "%s requires an unlocked role", capability)
	}
	return nil
}

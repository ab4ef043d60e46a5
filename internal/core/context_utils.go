package core

import (
	"fmt"

	"github.com/diarycardhq/diarycard/internal/accesscontrol"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
)

// AuthSession is what the identity provider yields per request: a durable
// user id and the authenticated email address.
type AuthSession interface {
	GetUserID() uuid.UUID
	GetEmail() string
}

func GetSession(ctx Context) AuthSession {
	return ctx.Get("session").(AuthSession)
}

func SetSession(ctx Context, session AuthSession) {
	ctx.Set("session", session)
}

func SetOrg(ctx Context, org models.Org) {
	ctx.Set("organization", org)
}

func GetOrg(ctx Context) models.Org {
	return ctx.Get("organization").(models.Org)
}

func HasOrg(ctx Context) bool {
	_, ok := ctx.Get("organization").(models.Org)
	return ok
}

// SetMembership stores the caller's own membership in the request context.
// It is resolved fresh on every request; role and manager assignment can
// change between requests, so it is never cached beyond that.
func SetMembership(ctx Context, membership models.Membership) {
	ctx.Set("membership", membership)
}

func GetMembership(ctx Context) models.Membership {
	return ctx.Get("membership").(models.Membership)
}

func MaybeGetMembership(ctx Context) (models.Membership, error) {
	membership, ok := ctx.Get("membership").(models.Membership)
	if !ok {
		return models.Membership{}, fmt.Errorf("no membership in context")
	}
	return membership, nil
}

func SetRBAC(ctx Context, rbac accesscontrol.AccessControl) {
	ctx.Set("rbac", rbac)
}

func GetRBAC(ctx Context) accesscontrol.AccessControl {
	return ctx.Get("rbac").(accesscontrol.AccessControl)
}

func GetParam(ctx Context, param string) string {
	v := ctx.Param(param)
	if v == "" {
		fallback := ctx.Get(param)
		if fallback == nil {
			return ""
		}
		return fallback.(string)
	}
	return v
}

func GetUUIDParam(ctx Context, param string) (uuid.UUID, error) {
	v := GetParam(ctx, param)
	if v == "" {
		return uuid.Nil, fmt.Errorf("could not get %s", param)
	}
	return uuid.Parse(v)
}

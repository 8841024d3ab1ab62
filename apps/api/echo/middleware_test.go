package echoapi

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func Test_ipRateLimiter(t *testing.T) {
	now := time.Date(2021, 1, 1, 8, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(1, 2)
	l.nowFunc = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"), "burst exhausted")
	assert.True(t, l.allow("10.0.0.2"), "buckets are per ip")

	now = now.Add(time.Second)
	assert.True(t, l.allow("10.0.0.1"), "refilled")

	now = now.Add(visitorIdleTimeout + time.Second)
	l.allow("10.0.0.3")
	l.mu.Lock()
	assert.Len(t, l.visitors, 1, "idle visitors are swept")
	l.mu.Unlock()
}

func Test_contextHasAnyRole(t *testing.T) {
	newCtx := func(roles ...string) echo.Context {
		ctx := echo.New().NewContext(nil, nil)
		ctx.Set(contextTokenKey, &jwt.Token{Claims: &Claims{IsAdmin: true, Roles: roles}})
		return ctx
	}

	tests := []struct {
		name  string
		ctx   echo.Context
		roles []string
		want  bool
	}{
		{name: "no roles required", ctx: newCtx(), want: true},
		{name: "has role", ctx: newCtx("b", RoleResourceManager), roles: []string{RoleResourceManager}, want: true},
		{name: "has one of", ctx: newCtx("x"), roles: []string{RoleResourceManager, "x"}, want: true},
		{name: "missing role", ctx: newCtx("x"), roles: []string{RoleResourceManager}, want: false},
		{name: "no token", ctx: echo.New().NewContext(nil, nil), roles: []string{RoleResourceManager}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contextHasAnyRole(tt.ctx, tt.roles))
		})
	}
}

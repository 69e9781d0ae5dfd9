package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/villagio/backend/internal/tenantctx"
	"github.com/villagio/backend/pkg/response"
)

// RequirePermission returns a middleware that allows the request only when
// the validated membership's effective permission set grants the key. Must
// run after TenantContext.
func RequirePermission(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := MustMembership(c)
		if !tenantctx.Check(m, key) {
			response.Forbidden(c, "missing permission: "+key)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnyPermission allows the request when at least one of the keys is
// granted, evaluated on a single resolved snapshot.
func RequireAnyPermission(keys ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := MustMembership(c)
		granted := tenantctx.CheckMany(m, keys)
		for _, key := range keys {
			if granted[key] {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}

package router

import "github.com/gin-gonic/gin"

// Module mounts one feature's routes (posts, users, auth, debug) on the /api group.
// Modules own their auth and rate-limit middleware.
type Module interface {
	Register(api *gin.RouterGroup)
}

package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler mounts a group of routes under Root on the public and admin
// API groups.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup)
}

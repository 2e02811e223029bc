package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/groph-wallet/internal/transport/api/middlewares"
)

// getUserIDFromContext возвращает id текущего пользователя, записанный
// middleware авторизации. Вызывается только из обработчиков за AuthRequired.
func getUserIDFromContext(c *gin.Context) int64 {
	return c.GetInt64(middlewares.CurrentUserIDKey)
}

package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/chatapp/web-server/internal/utils"
)

// AsyncMiddleware 异步处理中间件
// 把请求处理提交到 Worker Pool 执行，而不是在 Gin 的 Goroutine 里直接跑，
// 借此限制并发处理的请求数量。队列满时请求排队等待而不是被拒绝。
func AsyncMiddleware(pool *utils.WorkerPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 没配 Worker Pool 时降级为同步执行
		if pool == nil {
			c.Next()
			return
		}

		done := make(chan struct{})

		// 主 Goroutine 阻塞在 <-done 上，同一时刻只有 Worker 在操作 c
		task := func() {
			defer close(done)
			c.Next()
		}

		pool.Submit(task)
		<-done
	}
}

package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/xFahim/DaamKoto"
	"github.com/xFahim/DaamKoto/messenger"

	mcpE "github.com/xFahim/DaamKoto/mcp"
)

func AddRouters(r *gin.Engine, endpoints daamkoto.EndpointSet, cfg messenger.Config, sender messenger.Sender) {
	// Messenger webhook surface
	r.GET("/webhook", VerifyWebhookHandler(cfg.VerifyToken))
	r.POST("/webhook", ReceiveWebhookHandler(endpoints.Answer, sender))

	// RESTful API routes
	api := r.Group("/api")
	{
		api.POST("/answer", AnswerHandler(endpoints.Answer))
		api.GET("/products/search", SearchProductsHandler(endpoints.SearchProducts))
		api.POST("/ingest", IngestHandler(endpoints.Ingest))
	}
}

func AddStreamableRouters(r *gin.Engine, endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) {
	mcp := r.Group("/mcp")
	{
		mcp.POST("/", MCPStreamableHandler(endpoints))
	}
}

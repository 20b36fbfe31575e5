package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"
	"go.uber.org/zap"

	"github.com/xFahim/DaamKoto"
	"github.com/xFahim/DaamKoto/messenger"
)

const replyUnsupported = "I can help you with text messages or product images! " +
	"Please send me a message or an image of a product you're looking for."

const webhookTimeout = 60 * time.Second

func VerifyWebhookHandler(verifyToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			mode      = c.Query("hub.mode")
			token     = c.Query("hub.verify_token")
			challenge = c.Query("hub.challenge")
		)

		result, ok := messenger.Verify(mode, token, challenge, verifyToken)
		if !ok {
			c.String(http.StatusForbidden, "verification failed")
			c.Abort()
			return
		}

		c.String(http.StatusOK, result)
	}
}

// ReceiveWebhookHandler acknowledges the event immediately and processes
// the messages in the background; the platform retries on slow responses.
func ReceiveWebhookHandler(answer endpoint.Endpoint, sender messenger.Sender) gin.HandlerFunc {
	log := zap.L().With(
		zap.String("transport", "http"),
		zap.String("handler", "webhook"),
	)

	return func(c *gin.Context) {
		var payload messenger.WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		go processWebhook(payload, answer, sender, log)

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func processWebhook(payload messenger.WebhookPayload, answer endpoint.Endpoint, sender messenger.Sender, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	for _, entry := range payload.Entries {
		for _, event := range entry.Messaging {
			if event.Message == nil {
				continue
			}

			log := log.With(
				zap.String("page_id", entry.ID),
				zap.String("sender_id", event.Sender.ID),
			)

			req := daamkoto.AnswerRequest{
				PageID:   entry.ID,
				Text:     event.Message.Text,
				ImageURL: event.Message.ImageURL(),
			}

			reply := replyUnsupported

			if req.Text != "" || req.ImageURL != "" {
				resp, err := answer(ctx, req)
				if err != nil {
					log.Error(err.Error())
					continue
				}

				result, ok := resp.(daamkoto.AnswerResponse)
				if !ok {
					log.Error("invalid response type")
					continue
				}

				reply = result.Reply
			}

			if err := sender.SendText(ctx, event.Sender.ID, reply); err != nil {
				log.Error(err.Error())
				continue
			}

			log.Info("reply sent")
		}
	}
}

func AnswerHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req daamkoto.AnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			c.String(http.StatusExpectationFailed, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func SearchProductsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req daamkoto.SearchProductsRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			c.String(http.StatusExpectationFailed, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

// IngestHandler accepts a catalog as a multipart JSON file upload with a
// page_id form field.
func IngestHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		pageID := c.PostForm("page_id")
		if pageID == "" {
			err := errors.New("page_id is required")
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		if !strings.HasSuffix(fileHeader.Filename, ".json") {
			err := errors.New("file must be a JSON file")
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}
		defer file.Close()

		var products []daamkoto.Product
		if err := json.NewDecoder(file).Decode(&products); err != nil {
			c.String(http.StatusBadRequest, "file must contain a JSON list of products")
			c.Error(err)
			c.Abort()
			return
		}

		req := daamkoto.IngestRequest{
			PageID:   pageID,
			Products: products,
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			c.String(http.StatusExpectationFailed, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

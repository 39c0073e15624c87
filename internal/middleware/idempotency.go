package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyLock   = 30 * time.Second
	idempotencyTTL    = 24 * time.Hour
	processing        = "PROCESSING"
)

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a state-changing request is
// retried with the same Idempotency-Key. Keys are scoped to the caller and
// the request path, so one key reused for two bookings does not collide.
// Requests without the header, and all requests while Redis is down, pass
// through.
func Idempotency(client *redis.Client, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if client == nil || key == "" || !stateChanging(c.Request.Method) {
			c.Next()
			return
		}

		userID, _, _ := CurrentUser(c)
		idemKey := fmt.Sprintf("idempotency:%s:%s:%s", userID, c.Request.URL.Path, key)
		ctx := c.Request.Context()

		val, err := client.Get(ctx, idemKey).Result()
		switch {
		case err == nil && val == processing:
			helpers.RespondWithError(c, http.StatusConflict, "A request with this idempotency key is already in progress.")
			return
		case err == nil:
			var stored storedResponse
			if jsonErr := json.Unmarshal([]byte(val), &stored); jsonErr == nil {
				c.Header("X-Idempotency-Hit", "true")
				c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
				c.Abort()
				return
			}
		case !errors.Is(err, redis.Nil):
			log.WithError(err).Warn("idempotency lookup failed")
			c.Next()
			return
		}

		acquired, err := client.SetNX(ctx, idemKey, processing, idempotencyLock).Result()
		if err != nil {
			log.WithError(err).Warn("idempotency lock failed")
			c.Next()
			return
		}
		if !acquired {
			helpers.RespondWithError(c, http.StatusConflict, "A request with this idempotency key is already in progress.")
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// Server errors are not cached so the client can retry.
		if rec.Status() >= http.StatusInternalServerError || !json.Valid(rec.body.Bytes()) {
			client.Del(ctx, idemKey)
			return
		}
		payload, _ := json.Marshal(storedResponse{Status: rec.Status(), Body: rec.body.Bytes()})
		if err := client.Set(ctx, idemKey, payload, idempotencyTTL).Err(); err != nil {
			log.WithError(err).Warn("idempotency store failed")
		}
	}
}

func stateChanging(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

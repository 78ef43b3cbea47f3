package line

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.Handler, mod func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts := Options{
		AccessToken: "tok",
		APIBase:     srv.URL,
		Timeout:     2 * time.Second,
		RetryWait:   time.Millisecond,
	}
	if mod != nil {
		mod(&opts)
	}
	return New(opts)
}

func TestReply(t *testing.T) {
	var got replyRequest
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/bot/message/reply", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Contains(t, r.Header.Get("User-Agent"), "scambot/")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("{}"))
	}), nil)

	require.NoError(t, c.Reply(context.Background(), "r-1", TextMessage("hi")))
	assert.Equal(t, "r-1", got.ReplyToken)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "text", got.Messages[0].Type)
	assert.Equal(t, "hi", got.Messages[0].Text)
}

func TestReplyNoMessages(t *testing.T) {
	c := New(Options{APIBase: "http://127.0.0.1:1"})
	assert.ErrorIs(t, c.Reply(context.Background(), "r"), ErrNoMessages)
	assert.ErrorIs(t, c.Push(context.Background(), "U"), ErrNoMessages)
}

func TestPushImage(t *testing.T) {
	var raw map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/message/push", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
	}), nil)

	require.NoError(t, c.Push(context.Background(), "U1", ImageMessage("https://x/a.jpg", "")))
	assert.Equal(t, "U1", raw["to"])
	msgs := raw["messages"].([]any)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "image", msg["type"])
	assert.Equal(t, "https://x/a.jpg", msg["originalContentUrl"])
	assert.Equal(t, "https://x/a.jpg", msg["previewImageUrl"])
}

func TestProfile(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/profile/U1", r.URL.Path)
		w.Write([]byte(`{"userId":"U1","displayName":"Amy","pictureUrl":"https://p","language":"zh-TW"}`))
	}), nil)

	p, err := c.Profile(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "Amy", p.DisplayName)
	assert.Equal(t, "https://p", p.PictureURL)
	assert.Equal(t, "zh-TW", p.Language)
}

func TestContentUsesDataBase(t *testing.T) {
	data := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/message/m-1/content", r.URL.Path)
		w.Write([]byte("jpeg-bytes"))
	}))
	defer data.Close()

	c := testClient(t, http.NotFoundHandler(), func(o *Options) { o.DataBase = data.URL })
	body, err := c.Content(context.Background(), "m-1")
	require.NoError(t, err)
	defer body.Close()
	b, _ := io.ReadAll(body)
	assert.Equal(t, "jpeg-bytes", string(b))
}

func TestNon200IsAPIError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid reply token"}`))
	}), nil)

	err := c.Reply(context.Background(), "bad", TextMessage("x"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid reply token")
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"userId":"U1"}`))
	}), func(o *Options) { o.RetryMax = 3 })

	_, err := c.Profile(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMessageSendsNotRetriedOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), func(o *Options) { o.RetryMax = 3 })

	err := c.Reply(context.Background(), "r", TextMessage("x"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())

	require.Error(t, c.Push(context.Background(), "U1", TextMessage("x")))
	assert.Equal(t, int32(2), calls.Load())
}

func TestMessageSendsRetriedOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("{}"))
	}), func(o *Options) { o.RetryMax = 2 })

	require.NoError(t, c.Push(context.Background(), "U1", TextMessage("x")))
	assert.Equal(t, int32(2), calls.Load())
}

func TestMessageSendsRetriedOnConnectionError(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if assert.NoError(t, err) {
				conn.Close()
			}
			return
		}
		w.Write([]byte("{}"))
	}), func(o *Options) { o.RetryMax = 2 })

	require.NoError(t, c.Reply(context.Background(), "r", TextMessage("x")))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryExhaustedReturnsStatus(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), func(o *Options) { o.RetryMax = 1 })

	_, err := c.Profile(context.Background(), "U1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), func(o *Options) {
		o.BreakerEnabled = true
		o.BreakerFailures = 2
		o.BreakerOpenDuration = time.Minute
	})
	ctx := context.Background()

	assert.Error(t, c.Reply(ctx, "r", TextMessage("x")))
	assert.Error(t, c.Reply(ctx, "r", TextMessage("x")))
	assert.Equal(t, "open", c.BreakerState())

	err := c.Reply(ctx, "r", TextMessage("x"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), func(o *Options) {
		o.BreakerEnabled = true
		o.BreakerFailures = 1
	})

	for i := 0; i < 3; i++ {
		_, err := c.Profile(context.Background(), "U-missing")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
	}
	assert.Equal(t, "closed", c.BreakerState())
}

func TestBreakerDisabled(t *testing.T) {
	c := New(Options{APIBase: "http://example.invalid"})
	assert.Equal(t, "disabled", c.BreakerState())
}

package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
	"github.com/chatdesk-dev/chat-desk/internal/session"
)

func newTestClient(t *testing.T, token string, h http.HandlerFunc, opts ...Option) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	sess := session.New(session.NewMemoryStore(token))
	return New(srv.URL+"/", sess, nil, opts...), sess
}

func TestNoTokenFailsWithoutCallingServer(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	_, err := c.ListRequests(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.Zero(t, hits.Load())
}

func TestBearerHeaderAndEnvelope(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(observability.RequestIDHeader))
		assert.Equal(t, "/requests", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":[{"id":1,"title":"Broken","status":"approved","userId":"u1"}]}`)
	})

	reqs, err := c.ListRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.ID("1"), reqs[0].ID)
	assert.Equal(t, domain.RequestStatusAccepted, reqs[0].Status)
}

func TestBareArrayBody(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"n1","content":"hi","read":false}]`)
	})

	list, err := c.ListNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hi", list[0].Content)
}

func TestUnauthorizedClearsToken(t *testing.T) {
	c, sess := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"code":"UNAUTHORIZED","message":"token expired"}}`)
	})

	_, err := c.ListRequests(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, "token expired", authErr.Reason)

	_, err = sess.Token(context.Background())
	assert.ErrorIs(t, err, session.ErrNoToken)
}

func TestHTTPErrorDecoding(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{"envelope", `{"error":{"code":"FORBIDDEN","message":"nope"}}`, "FORBIDDEN", "nope"},
		{"plain string", `{"error":"nope"}`, "", "nope"},
		{"message only", `{"message":"nope"}`, "", "nope"},
		{"not json", `<html>`, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, sess := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = io.WriteString(w, tc.body)
			})
			err := c.DeleteRequest(context.Background(), "r1")
			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusForbidden, httpErr.Status)
			assert.Equal(t, tc.code, httpErr.Code)
			assert.Equal(t, tc.message, httpErr.Message)
			assert.Equal(t, http.StatusForbidden, StatusOf(err))

			// only 401 clears the session
			_, err = sess.Token(context.Background())
			assert.NoError(t, err)
		})
	}
}

func TestSendMessageBody(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/requests/r%2F1/messages", r.URL.EscapedPath())
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"content": "hello", "type": "text"}, body)
		_, _ = io.WriteString(w, `{"data":{"id":"m1","requestId":"r/1","content":"hello"}}`)
	})

	msg, err := c.SendMessage(context.Background(), "r/1", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ID("m1"), msg.ID)
}

func TestLoginStoresToken(t *testing.T) {
	c, sess := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":{"user":{"id":"u1","name":"Ada"},"auth":{"token":"fresh"}}}`)
	})

	res, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.User.Name)

	token, err := sess.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
}

func TestTimeoutYieldsNetworkError(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(20*time.Millisecond))
	defer close(release)

	_, err := c.ListUsers(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMetricsRecorded(t *testing.T) {
	metrics := observability.NewMetrics()
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, WithMetrics(metrics))

	require.NoError(t, c.MarkNotificationRead(context.Background(), "n1"))
	assert.EqualValues(t, 1, metrics.Requests("/notifications/:id/read", http.MethodPatch, http.StatusNoContent))
}

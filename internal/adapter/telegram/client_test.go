package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	c := NewClient("test-token", 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = baseURL
	c.httpClient = &http.Client{Timeout: 5 * time.Second}
	return c
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, result any) {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"ok":     true,
		"result": json.RawMessage(raw),
	}))
}

func TestGetUpdates_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "getUpdates")
		assert.Equal(t, "42", r.URL.Query().Get("offset"))
		assert.Equal(t, "2", r.URL.Query().Get("timeout"))

		writeEnvelope(t, w, []Update{
			{
				UpdateID: 42,
				Message: &Message{
					MessageID: 7,
					From:      &User{ID: 99, Username: "ada", FirstName: "Ada"},
					Chat:      Chat{ID: 99},
					Text:      "/place Stockport",
					Entities:  []MessageEntity{{Type: EntityBotCommand, Offset: 0, Length: 6}},
				},
			},
		})
	}))
	defer srv.Close()

	updates, err := testClient(srv.URL).GetUpdates(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, updates, 1)

	u := updates[0]
	assert.Equal(t, int64(42), u.UpdateID)
	require.NotNil(t, u.Message)
	assert.Equal(t, "/place Stockport", u.Message.Text)
	assert.Equal(t, int64(99), u.Message.Chat.ID)
	require.Len(t, u.Message.Entities, 1)
	assert.Equal(t, EntityBotCommand, u.Message.Entities[0].Type)
}

func TestGetUpdates_EmptyPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First poll has no offset parameter.
		assert.Empty(t, r.URL.Query().Get("offset"))
		writeEnvelope(t, w, []Update{})
	}))
	defer srv.Close()

	updates, err := testClient(srv.URL).GetUpdates(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestSendMessage(t *testing.T) {
	var gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "sendMessage")
		gotChat = r.URL.Query().Get("chat_id")
		gotText = r.URL.Query().Get("text")
		writeEnvelope(t, w, Message{MessageID: 1})
	}))
	defer srv.Close()

	err := testClient(srv.URL).SendMessage(context.Background(), 99, "hello")
	require.NoError(t, err)
	assert.Equal(t, "99", gotChat)
	assert.Equal(t, "hello", gotText)
}

func TestSendPhoto_Multipart(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "0.png")
	require.NoError(t, os.WriteFile(photo, []byte("fake-png-bytes"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "sendPhoto")
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "99", r.FormValue("chat_id"))

		f, hdr, err := r.FormFile("photo")
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, "0.png", hdr.Filename)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, []byte("fake-png-bytes"), data)

		writeEnvelope(t, w, Message{MessageID: 2})
	}))
	defer srv.Close()

	err := testClient(srv.URL).SendPhoto(context.Background(), 99, photo)
	require.NoError(t, err)
}

func TestSendPhoto_MissingFile(t *testing.T) {
	err := testClient("http://unused").SendPhoto(context.Background(), 99, "does-not-exist.png")
	require.Error(t, err)
}

func TestCall_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": false, "error_code": 403, "description": "Forbidden: bot was blocked by the user"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	err := testClient(srv.URL).SendMessage(context.Background(), 99, "hello")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCall_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": false, "error_code": 400, "description": "Bad Request"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	err := testClient(srv.URL).SendMessage(context.Background(), 99, "hello")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "Bad Request")
}

func TestCall_APIErrorIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": false, "error_code": 420, "description": "Too Many Requests"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	var logs bytes.Buffer
	c := NewClient("test-token", 2*time.Second, slog.New(slog.NewTextHandler(&logs, nil)))
	c.baseURL = srv.URL
	c.httpClient = &http.Client{Timeout: 5 * time.Second}

	err := c.SendMessage(context.Background(), 99, "hello")
	require.Error(t, err)
	assert.Contains(t, logs.String(), "telegram API call rejected")
	assert.Contains(t, logs.String(), "error_code=420")
	assert.Contains(t, logs.String(), "method=sendMessage")
}

func TestCall_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := testClient(srv.URL).GetUpdates(context.Background(), 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestUser_ToDomain(t *testing.T) {
	u := &User{ID: 5, IsBot: false, FirstName: "Ada", LastName: "Lovelace", Username: "ada", LanguageCode: "en"}
	d := u.ToDomain()

	assert.Equal(t, int64(5), d.ID)
	assert.False(t, d.IsBot)
	assert.Equal(t, "Ada", d.FirstName)
	assert.Equal(t, "Lovelace", d.LastName)
	assert.Equal(t, "ada", d.Username)
	assert.Equal(t, "en", d.LanguageCode)
}

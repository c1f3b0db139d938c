package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jem-backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisStorage returns a storage backed by an in-process redis server.
func redisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	s := NewRedisStorage(config.Redis{Addr: mr.Addr()})
	require.NoError(t, s.Ping(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStorageRoundTrip(t *testing.T) {
	s, mr := redisStorage(t)

	got, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set("abc", []byte(`{"step":"REVIEW"}`), time.Minute))
	got, err = s.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, `{"step":"REVIEW"}`, string(got))
	assert.True(t, mr.Exists("jem:session:abc"))

	require.NoError(t, s.Delete("abc"))
	got, err = s.Get("abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStorageExpiry(t *testing.T) {
	s, mr := redisStorage(t)

	require.NoError(t, s.Set("short", []byte("x"), time.Minute))
	require.NoError(t, s.Set("forever", []byte("y"), 0))
	assert.Equal(t, time.Minute, mr.TTL("jem:session:short"))

	mr.FastForward(2 * time.Minute)
	got, err := s.Get("forever")
	require.NoError(t, err)
	assert.Equal(t, "y", string(got))
	got, err = s.Get("short")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStorageReset(t *testing.T) {
	s, mr := redisStorage(t)

	require.NoError(t, mr.Set("unrelated", "keep"))
	require.NoError(t, s.Set("a", []byte("1"), time.Minute))
	require.NoError(t, s.Set("b", []byte("2"), time.Minute))
	require.NoError(t, s.Reset())

	for _, k := range []string{"a", "b"} {
		got, err := s.Get(k)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.True(t, mr.Exists("unrelated"))
}

func TestStorageIgnoresEmptyKey(t *testing.T) {
	s := NewRedisStorage(config.Redis{Addr: "127.0.0.1:0"})
	defer s.Close()

	got, err := s.Get("")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, s.Set("", []byte("x"), 0))
	assert.NoError(t, s.Delete(""))
	assert.Equal(t, "jem:session:abc", s.key("abc"))
}

func TestNewStoreInMemory(t *testing.T) {
	store, storage := NewStore(config.Session{TTL: time.Hour, CookieName: "jem_session"}, config.Redis{})
	assert.NotNil(t, store)
	assert.Nil(t, storage)
}

func TestNewStoreRedis(t *testing.T) {
	store, storage := NewStore(config.Session{TTL: time.Hour, CookieName: "jem_session"}, config.Redis{Addr: "127.0.0.1:0"})
	defer storage.Close()
	assert.NotNil(t, store)
	assert.NotNil(t, storage)
}

func TestNewStoreKeepsSessionsInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, storage := NewStore(config.Session{TTL: time.Hour, CookieName: "jem_session"}, config.Redis{Addr: mr.Addr()})
	defer storage.Close()

	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set("wizard", `{"step":"SELECT_SNACKS"}`)
		return sess.Save()
	})
	app.Get("/", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		v, _ := sess.Get("wizard").(string)
		return c.SendString(v)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "jem_session" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, mr.Exists("jem:session:"+cookie.Value))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"step":"SELECT_SNACKS"}`, string(body))
}

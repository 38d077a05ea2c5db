package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtube/internal/handlers"
	"vidtube/internal/middleware"
	"vidtube/internal/repositories"
	"vidtube/internal/services"
	"vidtube/pkg/blobstore"
)

var testTokens = services.TokenConfig{
	AccessSecret:  "test_access_secret",
	AccessExpiry:  15 * time.Minute,
	RefreshSecret: "test_refresh_secret",
	RefreshExpiry: 24 * time.Hour,
}

// envelope mirrors both the success and the failure response bodies.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

// setupApp builds the full app on an in-memory SQLite database and an
// in-memory blob store.
func setupApp(t *testing.T) (*fiber.App, *blobstore.MemoryStore) {
	t.Helper()
	db, err := repositories.OpenSQL("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	store := repositories.NewGORMStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	blobs := blobstore.NewMemoryStore()
	app := handlers.NewApp(handlers.AppConfig{
		Store:   store,
		Blobs:   blobs,
		Tokens:  testTokens,
		Limiter: middleware.NewLocalLimiter(1000, time.Minute),
	})
	return app, blobs
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp, env
}

func jsonRequest(method, target, token string, payload interface{}) *http.Request {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func multipartRequest(t *testing.T, method, target, token string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, name := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out), string(env.Data))
}

type session struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

func registerAndLogin(t *testing.T, app *fiber.App, username string) session {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"fullName": "User " + username,
		"email":    username + "@example.com",
		"username": username,
		"password": "secret-" + username,
	}, map[string]string{"avatar": "avatar.png"})
	resp, _ := do(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := do(t, app, jsonRequest(http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"username": username,
		"password": "secret-" + username,
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data struct {
		User struct {
			ID string `json:"_id"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	decode(t, env, &data)
	return session{UserID: data.User.ID, AccessToken: data.AccessToken, RefreshToken: data.RefreshToken}
}

func publishVideo(t *testing.T, app *fiber.App, s session, title string) string {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/v1/videos", s.AccessToken, map[string]string{
		"title":       title,
		"description": "about " + title,
		"duration":    "12.5",
	}, map[string]string{"videoFile": "clip.mp4", "thumbnail": "thumb.jpg"})
	resp, env := do(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var video struct {
		ID string `json:"_id"`
	}
	decode(t, env, &video)
	return video.ID
}

func TestHealthcheck(t *testing.T) {
	app, _ := setupApp(t)

	resp, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/healthcheck", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusOK, env.StatusCode)
	assert.JSONEq(t, `"OK"`, string(env.Data))
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, blobs := setupApp(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"fullName": "Alice Liddell",
		"email":    "Alice@Example.com",
		"username": "Alice",
		"password": "wonderland",
	}, map[string]string{"avatar": "alice.png", "coverImage": "cover.png"})
	resp, env := do(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	assert.True(t, env.Success)
	assert.NotContains(t, string(env.Data), "wonderland")
	assert.NotContains(t, string(env.Data), "password")
	var user struct {
		ID       string `json:"_id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	decode(t, env, &user)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, 2, blobs.Len())

	t.Run("duplicate", func(t *testing.T) {
		dup := multipartRequest(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
			"fullName": "Other",
			"email":    "other@example.com",
			"username": "alice",
			"password": "x",
		}, map[string]string{"avatar": "other.png"})
		resp, env := do(t, app, dup)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.False(t, env.Success)
		assert.Equal(t, http.StatusConflict, env.StatusCode)
		assert.Equal(t, "null", string(env.Data))
		assert.NotNil(t, env.Errors)
		assert.Equal(t, 2, blobs.Len())
	})

	t.Run("missing avatar", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
			"fullName": "Bob",
			"email":    "bob@example.com",
			"username": "bob",
			"password": "builder",
		}, nil)
		resp, env := do(t, app, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.False(t, env.Success)
	})

	t.Run("login and current user", func(t *testing.T) {
		resp, env := do(t, app, jsonRequest(http.MethodPost, "/api/v1/users/login", "", map[string]string{
			"email":    "ALICE@example.com",
			"password": "wonderland",
		}))
		require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

		var accessCookie *http.Cookie
		for _, cookie := range resp.Cookies() {
			if cookie.Name == middleware.AccessTokenCookie {
				accessCookie = cookie
			}
		}
		require.NotNil(t, accessCookie)
		assert.True(t, accessCookie.HttpOnly)
		assert.True(t, accessCookie.Secure)

		withCookie := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
		withCookie.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: accessCookie.Value})
		resp, env = do(t, app, withCookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var current struct {
			ID string `json:"_id"`
		}
		decode(t, env, &current)
		assert.Equal(t, user.ID, current.ID)

		resp, _ = do(t, app, jsonRequest(http.MethodGet, "/api/v1/users/current-user", accessCookie.Value, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, env := do(t, app, jsonRequest(http.MethodPost, "/api/v1/users/login", "", map[string]string{
			"username": "alice",
			"password": "looking-glass",
		}))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.False(t, env.Success)
	})

	t.Run("anonymous current user", func(t *testing.T) {
		resp, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "null", string(env.Data))
	})
}

func TestRefreshTokenRotation(t *testing.T) {
	app, _ := setupApp(t)
	s := registerAndLogin(t, app, "carol")

	resp, env := do(t, app, jsonRequest(http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{
		"refreshToken": s.RefreshToken,
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var tokens services.Tokens
	decode(t, env, &tokens)
	assert.NotEqual(t, s.RefreshToken, tokens.RefreshToken)

	resp, _ = do(t, app, jsonRequest(http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{
		"refreshToken": s.RefreshToken,
	}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, app, jsonRequest(http.MethodPost, "/api/v1/users/logout", tokens.AccessToken, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, jsonRequest(http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{
		"refreshToken": tokens.RefreshToken,
	}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVideoLifecycle(t *testing.T) {
	app, blobs := setupApp(t)
	owner := registerAndLogin(t, app, "dave")
	viewer := registerAndLogin(t, app, "erin")

	videoID := publishVideo(t, app, owner, "first steps")
	assert.Equal(t, 4, blobs.Len())

	feed := func() int64 {
		_, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/videos?page=1&limit=5", nil))
		var page struct {
			TotalDocs int64 `json:"totalDocs"`
		}
		decode(t, env, &page)
		return page.TotalDocs
	}
	assert.Equal(t, int64(0), feed())

	resp, _ := do(t, app, jsonRequest(http.MethodGet, "/api/v1/videos/"+videoID, viewer.AccessToken, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, jsonRequest(http.MethodPatch, "/api/v1/videos/toggle/publish/"+videoID, viewer.AccessToken, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env := do(t, app, jsonRequest(http.MethodPatch, "/api/v1/videos/toggle/publish/"+videoID, owner.AccessToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"isPublished":true}`, string(env.Data))
	assert.Equal(t, int64(1), feed())

	resp, env = do(t, app, jsonRequest(http.MethodPost, "/api/v1/likes/toggle/v/"+videoID, viewer.AccessToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"isLiked":true}`, string(env.Data))

	resp, env = do(t, app, jsonRequest(http.MethodGet, "/api/v1/videos/"+videoID, viewer.AccessToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Views      int64 `json:"views"`
		LikesCount int64 `json:"likesCount"`
		IsLiked    bool  `json:"isLiked"`
		Owner      struct {
			Username     string `json:"username"`
			IsSubscribed bool   `json:"isSubscribed"`
		} `json:"owner"`
	}
	decode(t, env, &detail)
	assert.Equal(t, int64(1), detail.Views)
	assert.Equal(t, int64(1), detail.LikesCount)
	assert.True(t, detail.IsLiked)
	assert.Equal(t, "dave", detail.Owner.Username)
	assert.False(t, detail.Owner.IsSubscribed)

	resp, env = do(t, app, jsonRequest(http.MethodPost, "/api/v1/comments/"+videoID, viewer.AccessToken, map[string]string{"content": "nice"}))
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var comment struct {
		ID string `json:"_id"`
	}
	decode(t, env, &comment)

	resp, _ = do(t, app, jsonRequest(http.MethodDelete, "/api/v1/comments/"+videoID+"/"+comment.ID, owner.AccessToken, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = do(t, app, jsonRequest(http.MethodGet, "/api/v1/comments/"+videoID, "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments struct {
		TotalDocs int64 `json:"totalDocs"`
	}
	decode(t, env, &comments)
	assert.Equal(t, int64(1), comments.TotalDocs)

	resp, env = do(t, app, jsonRequest(http.MethodPost, "/api/v1/subscriptions/c/"+owner.UserID, viewer.AccessToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"subscribed":true}`, string(env.Data))

	resp, env = do(t, app, jsonRequest(http.MethodGet, "/api/v1/dashboard/stats", owner.AccessToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"totalSubscribers":1,"totalViews":1,"totalLikes":1,"totalVideos":1}`, string(env.Data))

	resp, _ = do(t, app, jsonRequest(http.MethodDelete, "/api/v1/videos/"+videoID, owner.AccessToken, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, blobs.Len())

	resp, _ = do(t, app, jsonRequest(http.MethodGet, "/api/v1/videos/"+videoID, owner.AccessToken, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlaylistOwnership(t *testing.T) {
	app, _ := setupApp(t)
	alice := registerAndLogin(t, app, "alice")
	bob := registerAndLogin(t, app, "bob")
	aliceVideo := publishVideo(t, app, alice, "alice video")

	create := func(s session, name string) string {
		resp, env := do(t, app, jsonRequest(http.MethodPost, "/api/v1/playlist", s.AccessToken, map[string]string{
			"name":        name,
			"description": "favourites",
		}))
		require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
		var playlist struct {
			ID string `json:"_id"`
		}
		decode(t, env, &playlist)
		return playlist.ID
	}
	alicePlaylist := create(alice, "alice list")
	bobPlaylist := create(bob, "bob list")

	resp, env := do(t, app, jsonRequest(http.MethodPatch, "/api/v1/playlist/add/"+aliceVideo+"/"+bobPlaylist, bob.AccessToken, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, env.Success)

	resp, _ = do(t, app, jsonRequest(http.MethodPatch, "/api/v1/playlist/add/"+aliceVideo+"/"+alicePlaylist, bob.AccessToken, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, app, jsonRequest(http.MethodPatch, "/api/v1/playlist/add/"+aliceVideo+"/"+alicePlaylist, "", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = do(t, app, jsonRequest(http.MethodPatch, "/api/v1/playlist/add/"+aliceVideo+"/"+alicePlaylist, alice.AccessToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var playlist struct {
		Videos []string `json:"videos"`
	}
	decode(t, env, &playlist)
	assert.Equal(t, []string{aliceVideo}, playlist.Videos)

	resp, _ = do(t, app, jsonRequest(http.MethodDelete, "/api/v1/playlist/"+alicePlaylist, bob.AccessToken, nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = do(t, app, jsonRequest(http.MethodGet, "/api/v1/playlist/user/"+alice.UserID, "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []struct {
		TotalVideos int64 `json:"totalVideos"`
	}
	decode(t, env, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].TotalVideos)

	resp, _ = do(t, app, jsonRequest(http.MethodGet, "/api/v1/playlist/not-an-id", "", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidationEnvelope(t *testing.T) {
	app, _ := setupApp(t)
	s := registerAndLogin(t, app, "frank")

	resp, env := do(t, app, jsonRequest(http.MethodGet, "/api/v1/videos?sortBy=rating", "", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)

	resp, env = do(t, app, jsonRequest(http.MethodPost, "/api/v1/tweets", s.AccessToken, map[string]string{"content": "  "}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)

	resp, env = do(t, app, jsonRequest(http.MethodPost, "/api/v1/tweets", s.AccessToken, map[string]string{"content": "hello"}))
	assert.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	resp, env = do(t, app, jsonRequest(http.MethodGet, "/api/v1/tweets/user/"+s.UserID, "", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tweets struct {
		Docs []struct {
			Content string `json:"content"`
		} `json:"docs"`
	}
	decode(t, env, &tweets)
	require.Len(t, tweets.Docs, 1)
	assert.Equal(t, "hello", tweets.Docs[0].Content)
}

func rawJSONRequest(method, target, token, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUpdate_OwnershipPrecedesPayload(t *testing.T) {
	app, _ := setupApp(t)
	alice := registerAndLogin(t, app, "alice")
	bob := registerAndLogin(t, app, "bob")

	videoID := publishVideo(t, app, alice, "alice video")

	created := func(target string, payload map[string]string) string {
		resp, env := do(t, app, jsonRequest(http.MethodPost, target, alice.AccessToken, payload))
		require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
		var doc struct {
			ID string `json:"_id"`
		}
		decode(t, env, &doc)
		return doc.ID
	}
	tweetID := created("/api/v1/tweets", map[string]string{"content": "hello"})
	commentID := created("/api/v1/comments/"+videoID, map[string]string{"content": "first"})
	playlistID := created("/api/v1/playlist", map[string]string{"name": "mix", "description": "favourites"})

	longContent := `{"content":"` + strings.Repeat("x", 5001) + `"}`
	longName := `{"name":"` + strings.Repeat("n", 201) + `","description":"d"}`
	malformed := `{"content":`

	cases := []struct {
		name   string
		target string
		bodies []string
	}{
		{"tweet", "/api/v1/tweets/" + tweetID, []string{longContent, malformed}},
		{"comment", "/api/v1/comments/" + videoID + "/" + commentID, []string{longContent, malformed}},
		{"playlist", "/api/v1/playlist/" + playlistID, []string{longName, malformed}},
		{"video", "/api/v1/videos/" + videoID, []string{malformed}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, body := range tc.bodies {
				resp, env := do(t, app, rawJSONRequest(http.MethodPatch, tc.target, bob.AccessToken, body))
				assert.Equal(t, http.StatusForbidden, resp.StatusCode, env.Message)
				assert.False(t, env.Success)

				resp, env = do(t, app, rawJSONRequest(http.MethodPatch, tc.target, alice.AccessToken, body))
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode, env.Message)
			}
		})
	}

	t.Run("unknown resource stays not found", func(t *testing.T) {
		resp, _ := do(t, app, rawJSONRequest(http.MethodPatch, "/api/v1/tweets/"+videoID, bob.AccessToken, malformed))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

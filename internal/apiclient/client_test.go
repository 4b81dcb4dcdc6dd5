package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/arcadescore-live/internal/display"
	"github.com/park285/arcadescore-live/internal/dragorder"
	"github.com/park285/arcadescore-live/internal/games"
	"github.com/park285/arcadescore-live/internal/players"
	"github.com/park285/arcadescore-live/internal/progress"
	"github.com/park285/arcadescore-live/internal/settings"
	"github.com/park285/arcadescore-live/internal/styles"
	"github.com/park285/arcadescore-live/internal/transfer"
	"github.com/park285/arcadescore-live/internal/wizard"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ games.Source          = (*Client)(nil)
	_ dragorder.OrderSaver  = (*Client)(nil)
	_ settings.Saver        = (*Client)(nil)
	_ settings.AdminAPI     = (*Client)(nil)
	_ styles.Source         = (*Client)(nil)
	_ styles.ActionAPI      = (*Client)(nil)
	_ players.API           = (*Client)(nil)
	_ wizard.API            = (*Client)(nil)
	_ wizard.Lister         = (*Client)(nil)
	_ transfer.API          = (*Client)(nil)
	_ progress.Downloader   = (*Client)(nil)
	_ display.Source        = (*Client)(nil)
	_ display.VisibilityAPI = (*Client)(nil)
)

func TestRoomGamesAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ada", r.URL.Path)
		assert.Equal(t, "sess-1", r.Header.Get("X-Session-Id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"gameID":42,"gameName":"Medieval Madness","GameSort":"3","Hidden":"FALSE","scores":[]}]`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithUser("ada"), WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-Session-Id": "sess-1", "X-Empty": " "}
	}))
	got, err := c.RoomGames(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scoredto.ID("42"), got[0].GameID)
	assert.Equal(t, scoredto.SortKey(3), got[0].GameSort)
}

func TestRoomGamesNeedsUser(t *testing.T) {
	_, err := New("http://127.0.0.1:1").RoomGames(context.Background())
	require.ErrorIs(t, err, errNoUser)
}

func TestSaveGameOrderBody(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/games/update-game-order", r.URL.Path)
		body, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	err := New(srv.URL).SaveGameOrder(context.Background(), []scoredto.OrderEntry{{GameID: "42", GameSort: 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"game_id":"42","game_sort":1}]`, string(body))
}

func TestStatusErrorAndErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/settings/room1" {
			_, _ = io.WriteString(w, `{"error":"invalid dateformat"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no such player")
	}))
	defer srv.Close()
	c := New(srv.URL)

	err := c.DeletePlayer(context.Background(), "9")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "no such player")

	err = c.SaveSettings(context.Background(), "room1", settings.Defaults())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusOK, se.Status)
}

func TestGetRetriesOn5xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[{"id":1,"name":"Neon"}]`)
	}))
	defer srv.Close()

	got, err := New(srv.URL).StylePresets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Neon", got[0].Name)
	assert.Equal(t, int32(3), hits.Load())
}

func TestPostIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL).StyleAction(context.Background(), styles.ActionApplyToAll, map[string]string{"presetID": "1"})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSavePlayerMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/players/7", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Ada", r.FormValue("full_name"))
		assert.Equal(t, `["ADA"]`, r.FormValue("aliases"))
		f, hdr, err := r.FormFile("player_icon_file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "ada.png", hdr.Filename)
		assert.Equal(t, "png-bytes", string(b))
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	sub, err := players.Form{FullName: "Ada", Aliases: []string{"ADA"},
		IconFile: &players.Upload{Name: "ada.png", Body: strings.NewReader("png-bytes")}}.Build()
	require.NoError(t, err)
	require.NoError(t, New(srv.URL).SavePlayer(context.Background(), "7", sub))
}

func TestExportJobOrBlob(t *testing.T) {
	blob := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("session_id"))
		if blob {
			w.Header().Set("Content-Type", "application/x-7z-compressed")
			_, _ = w.Write([]byte{0x37, 0x7a})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"task_id":"t-9"}`)
	}))
	defer srv.Close()
	c := New(srv.URL)

	got, err := c.StartExport(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "t-9", got.TaskID)

	blob = true
	got, err = c.StartExport(context.Background(), "abc")
	require.NoError(t, err)
	assert.Empty(t, got.TaskID)
	assert.Equal(t, []byte{0x37, 0x7a}, got.Blob)
}

func TestImportAndDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/import":
			_, hdr, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Imported " + hdr.Filename})
		case "/exports/a.7z":
			_, _ = io.WriteString(w, "archive")
		}
	}))
	defer srv.Close()
	c := New(srv.URL)

	res, err := c.Import(context.Background(), "dump.7z", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "Imported dump.7z", res.Message)

	var buf bytes.Buffer
	require.NoError(t, c.Download(context.Background(), "/exports/a.7z", &buf))
	assert.Equal(t, "archive", buf.String())
}

func TestFetchJSONThroughProxyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/proxy", r.URL.Path)
		assert.Equal(t, "http://vpin/api/v1/games", r.URL.Query().Get("url"))
		_, _ = io.WriteString(w, `[{"id":1,"highscoreType":"NVRam"}]`)
	}))
	defer srv.Close()

	var out []wizard.VPinGame
	target := wizard.VPinTarget("http://vpin", "api/v1/games", true)
	require.NoError(t, New(srv.URL).FetchJSON(context.Background(), target, &out))
	require.Len(t, out, 1)
}

func TestContextDeadlineBoundsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := New(srv.URL, WithRetry(1)).DeleteGame(ctx, "1")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

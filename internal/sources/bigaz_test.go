package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunecrate/pkg/models"
)

const sampleBigAzSearchJSON = `{
	"data": {
		"songs": [
			{
				"id": "4521",
				"title": "Sevgilim",
				"artist": "Röya",
				"htmlFileName": "roya-sevgilim.html",
				"fullTitle": "Röya - Sevgilim"
			},
			{
				"id": "4522",
				"title": "Unknown Upload",
				"artist": "",
				"htmlFileName": "unknown-upload.html"
			}
		],
		"hasMore": true
	}
}`

const sampleBigAzSongJSON = `{
	"data": {
		"songId": "4521",
		"title": "Sevgilim",
		"htmlFileName": "roya-sevgilim.html",
		"audioParams": {"lk": "abc123", "mh": "9f", "mr": "22", "hs": "hash-token"}
	}
}`

func TestBigAzSearch(t *testing.T) {
	var gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(sampleBigAzSearchJSON))
	}))
	defer srv.Close()

	s := NewBigAz(srv.URL, "secret")

	page, err := s.Search(context.Background(), Query{Text: "sevgilim"})
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "sevgilim", gotQuery)

	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	it := page.Items[0]
	assert.Equal(t, models.SourceScraped, it.Source)
	assert.Equal(t, "Röya", it.Artist)
	require.NotNil(t, it.Scraped)
	assert.Equal(t, "roya-sevgilim.html", it.Scraped.HTMLFileName)
	assert.True(t, it.Downloadable(false))

	assert.Equal(t, "Unknown Artist", page.Items[1].Artist)
}

func TestBigAzNotConfigured(t *testing.T) {
	s := NewBigAz("", "")

	_, err := s.Search(context.Background(), Query{Text: "sevgilim"})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Settings, "TUNECRATE_BACKEND_URL")
	assert.Contains(t, cfgErr.Settings, "TUNECRATE_BACKEND_API_KEY")

	_, err = s.Song(context.Background(), "roya-sevgilim.html")
	require.ErrorAs(t, err, &cfgErr)

	_, err = s.AudioURL(context.Background(), "4521", nil)
	require.ErrorAs(t, err, &cfgErr)
}

func TestBigAzSongDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bigaz/song/roya-sevgilim.html", r.URL.Path)
		w.Write([]byte(sampleBigAzSongJSON))
	}))
	defer srv.Close()

	s := NewBigAz(srv.URL, "secret")

	detail, err := s.Song(context.Background(), "roya-sevgilim.html")
	require.NoError(t, err)
	assert.Equal(t, "4521", detail.SongID)
	assert.Equal(t, "abc123", detail.AudioParams["lk"])
	assert.Equal(t, "hash-token", detail.AudioParams["hs"])
}

func TestBigAzAudioURLForwardsParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bigaz/audio/4521", r.URL.Path)
		// Params pass through untouched.
		assert.Equal(t, "abc123", r.URL.Query().Get("lk"))
		assert.Equal(t, "hash-token", r.URL.Query().Get("hs"))
		w.Write([]byte(`{"data": {"audioUrl": "https://cdn.example/4521.mp3?expires=123"}}`))
	}))
	defer srv.Close()

	s := NewBigAz(srv.URL, "secret")

	u, err := s.AudioURL(context.Background(), "4521", map[string]string{"lk": "abc123", "hs": "hash-token"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/4521.mp3?expires=123", u)
}

func TestBigAzAudioURLMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {}}`))
	}))
	defer srv.Close()

	s := NewBigAz(srv.URL, "secret")

	_, err := s.AudioURL(context.Background(), "4521", nil)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

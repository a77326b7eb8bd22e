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

const sampleJamendoJSON = `{
	"headers": {"status": "success", "results_count": 57},
	"results": [
		{
			"id": "1532771",
			"name": "Gentle Piano",
			"artist_name": "Aventure",
			"album_name": "Quiet Rooms",
			"album_id": "207411",
			"album_image": "https://img.example/album.jpg",
			"image": "https://img.example/track.jpg",
			"duration": 214,
			"releasedate": "2016-03-11",
			"audio": "https://audio.example/stream.mp3",
			"audiodownload": "https://audio.example/download.mp3",
			"audiodownload_allowed": true,
			"license_ccurl": "https://creativecommons.org/licenses/by/4.0/",
			"musicinfo": {"tags": {"genres": ["classical", "ambient"]}}
		},
		{
			"id": "99001",
			"name": "Night Drive",
			"artist_name": "Kavala",
			"duration": 187,
			"audio": "https://audio.example/99001.mp3",
			"audiodownload_allowed": false
		}
	]
}`

func TestJamendoSearch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"client_id": q.Get("client_id"),
			"search":    q.Get("search"),
			"limit":     q.Get("limit"),
			"offset":    q.Get("offset"),
			"order":     q.Get("order"),
		}
		w.Write([]byte(sampleJamendoJSON))
	}))
	defer srv.Close()

	s := NewJamendo("test-client")
	s.BaseURL = srv.URL

	page, err := s.Search(context.Background(), Query{Text: "piano", Limit: 20, Offset: 0})
	require.NoError(t, err)

	assert.Equal(t, "test-client", gotQuery["client_id"])
	assert.Equal(t, "piano", gotQuery["search"])
	assert.Equal(t, "20", gotQuery["limit"])
	assert.Equal(t, "0", gotQuery["offset"])
	assert.Equal(t, OrderPopular, gotQuery["order"])

	require.Len(t, page.Items, 2)
	assert.Equal(t, 57, page.TotalCount)
	assert.Equal(t, 2, page.NextOffset)
	assert.True(t, page.HasMore) // 2 of 57 seen

	it := page.Items[0]
	assert.Equal(t, "1532771", it.ID)
	assert.Equal(t, models.SourceCatalog, it.Source)
	assert.Equal(t, "Gentle Piano", it.Title)
	assert.Equal(t, "Aventure", it.Artist)
	assert.Equal(t, 214, it.Duration)
	require.NotNil(t, it.Catalog)
	assert.Equal(t, "Quiet Rooms", it.Catalog.Album)
	assert.Equal(t, "https://audio.example/download.mp3", it.Catalog.AudioDownloadURL)
	assert.True(t, it.Catalog.DownloadAllowed)
	assert.Equal(t, []string{"classical", "ambient"}, it.Catalog.Tags)
	assert.True(t, it.Downloadable(false))

	// Second item has no album image; track fields must still normalize.
	it2 := page.Items[1]
	assert.Equal(t, "Kavala", it2.Artist)
	assert.Equal(t, 187, it2.Duration)
}

func TestJamendoPaginationOffset(t *testing.T) {
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offsets = append(offsets, r.URL.Query().Get("offset"))
		w.Write([]byte(sampleJamendoJSON))
	}))
	defer srv.Close()

	s := NewJamendo("test-client")
	s.BaseURL = srv.URL

	_, err := s.Search(context.Background(), Query{Text: "piano", Limit: 20, Offset: 0})
	require.NoError(t, err)
	_, err = s.Search(context.Background(), Query{Text: "piano", Limit: 20, Offset: 20})
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "20"}, offsets)
}

func TestJamendoHasMoreUsesResultsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleJamendoJSON)) // results_count 57, 2 items
	}))
	defer srv.Close()

	s := NewJamendo("test-client")
	s.BaseURL = srv.URL

	// Short pages mid-stream must not end pagination early.
	page, err := s.Search(context.Background(), Query{Text: "piano", Limit: 20, Offset: 40})
	require.NoError(t, err)
	assert.True(t, page.HasMore) // 42 of 57 seen

	// The final page is exhausted even when it comes back full.
	page, err = s.Search(context.Background(), Query{Text: "piano", Limit: 2, Offset: 55})
	require.NoError(t, err)
	assert.False(t, page.HasMore) // 57 of 57 seen
}

func TestJamendoMissingClientID(t *testing.T) {
	s := NewJamendo("")
	s.BaseURL = "http://unreachable.invalid" // must not be contacted

	_, err := s.Search(context.Background(), Query{Text: "piano"})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Settings, "TUNECRATE_JAMENDO_CLIENT_ID")
}

func TestJamendoErrorClassification(t *testing.T) {
	for _, tc := range []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusUnauthorized, func(t *testing.T, err error) {
			var e *AuthError
			assert.ErrorAs(t, err, &e)
		}},
		{http.StatusTooManyRequests, func(t *testing.T, err error) {
			var e *RateLimitError
			assert.ErrorAs(t, err, &e)
		}},
		{http.StatusBadRequest, func(t *testing.T, err error) {
			var e *BadRequestError
			assert.ErrorAs(t, err, &e)
		}},
		{http.StatusServiceUnavailable, func(t *testing.T, err error) {
			var e *UnavailableError
			assert.ErrorAs(t, err, &e)
		}},
		{http.StatusTeapot, func(t *testing.T, err error) {
			var e *TransportError
			assert.ErrorAs(t, err, &e)
		}},
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		s := NewJamendo("test-client")
		s.BaseURL = srv.URL
		_, err := s.Search(context.Background(), Query{Text: "piano"})
		require.Error(t, err, "status %d", tc.status)
		tc.check(t, err)

		srv.Close()
	}
}

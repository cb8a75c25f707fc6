package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalDAVSource_ShouldFetchCalendar(t *testing.T) {
	s := NewCalDAVSource("Personal", "https://dav.example.com", "me", "pw", []string{"Work", "birthdays"})

	assert.True(t, s.shouldFetchCalendar("work"))
	assert.True(t, s.shouldFetchCalendar("Birthdays"))
	assert.False(t, s.shouldFetchCalendar("Holidays"))
}

func TestNewICloudSource(t *testing.T) {
	s := NewICloudSource("iCloud", "me@icloud.com", "app-pw", nil).WithTimeout(5 * time.Second)
	assert.Equal(t, "iCloud", s.Name())
	assert.Equal(t, iCloudCalDAVURL, s.url)
	assert.Equal(t, 5*time.Second, s.timeout)

	s.WithTimeout(0)
	assert.Equal(t, 5*time.Second, s.timeout)
}

func TestCalDAVSource_Fetch_Unauthorized(t *testing.T) {
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewCalDAVSource("Personal", srv.URL, "me", "wrong", nil).WithTimeout(5 * time.Second)
	feeds, err := s.Fetch(context.Background(), Today(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), time.UTC))
	require.Error(t, err)
	assert.ErrorContains(t, err, "find principal")
	assert.Empty(t, feeds)

	assert.Equal(t, "me", gotUser)
	assert.Equal(t, "wrong", gotPass)
}

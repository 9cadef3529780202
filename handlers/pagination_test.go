package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func paramsForQuery(t *testing.T, query string) PaginationParams {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return ParsePagination(c)
}

func TestParsePagination(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := paramsForQuery(t, "")
		if p.Limit != DefaultLimit {
			t.Errorf("Limit = %d, want %d", p.Limit, DefaultLimit)
		}
		if p.Before != nil {
			t.Errorf("Before = %v, want nil", p.Before)
		}
	})

	t.Run("custom limit", func(t *testing.T) {
		p := paramsForQuery(t, "limit=10")
		if p.Limit != 10 {
			t.Errorf("Limit = %d, want 10", p.Limit)
		}
	})

	t.Run("limit capped", func(t *testing.T) {
		p := paramsForQuery(t, "limit=9999")
		if p.Limit != MaxLimit {
			t.Errorf("Limit = %d, want %d", p.Limit, MaxLimit)
		}
	})

	t.Run("invalid limit ignored", func(t *testing.T) {
		p := paramsForQuery(t, "limit=abc")
		if p.Limit != DefaultLimit {
			t.Errorf("Limit = %d, want %d", p.Limit, DefaultLimit)
		}
	})

	t.Run("before cursor", func(t *testing.T) {
		ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		p := paramsForQuery(t, "before="+Cursor(ts))
		if p.Before == nil || !p.Before.Equal(ts) {
			t.Errorf("Before = %v, want %v", p.Before, ts)
		}
	})

	t.Run("invalid before ignored", func(t *testing.T) {
		p := paramsForQuery(t, "before=yesterday")
		if p.Before != nil {
			t.Errorf("Before = %v, want nil", p.Before)
		}
	})
}

func TestParseWindowDays(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"default", "", 30},
		{"custom", "days=7", 7},
		{"capped", "days=1000", 365},
		{"invalid ignored", "days=soon", 30},
		{"negative ignored", "days=-3", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			if got := ParseWindowDays(c, 30, 365); got != tt.want {
				t.Errorf("ParseWindowDays = %d, want %d", got, tt.want)
			}
		})
	}
}

package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"insight-explorer/internal/config"
	"insight-explorer/internal/logger"
	"insight-explorer/internal/models"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestAnalysisClient(t *testing.T, handler http.HandlerFunc) (*AnalysisClient, *test.Hook) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		AnalysisAPIBaseURL: server.URL,
		APITimeout:         2 * time.Second,
	}

	log, hook := test.NewNullLogger()
	client := NewAnalysisClient(cfg)
	client.logger = log

	return client, hook
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNewAnalysisClient(t *testing.T) {
	cfg := &config.Config{
		AnalysisAPIBaseURL: "http://analysis.local",
		APITimeout:         30 * time.Second,
	}

	client := NewAnalysisClient(cfg)

	assert.NotNil(t, client)
	assert.Equal(t, "http://analysis.local", client.baseURL)
	assert.Equal(t, 30*time.Second, client.timeout)
	assert.NotNil(t, client.httpClient)
}

func TestAnalysisClient_Analyze_Success(t *testing.T) {
	client, _ := setupTestAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "corr-1", r.Header.Get("X-Correlation-ID"))

		body, _ := io.ReadAll(r.Body)
		var request map[string]string
		require.NoError(t, json.Unmarshal(body, &request))
		assert.Equal(t, "https://example.com/article", request["url"])
		assert.Equal(t, "article", request["inputType"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"cached":true,"analysis":{"summary_kr":"summary","key_claims":[
			{"claim_kr":"claim one","search_keywords_en":["inflation","rate"],"target_country_codes":["US","KR"]},
			"claim two"]}}`)
	})

	ctx := logger.ContextWithCorrelationID(context.Background(), "corr-1")
	analysis, err := client.Analyze(ctx, "https://example.com/article", "article")

	require.NoError(t, err)
	assert.True(t, analysis.Cached)
	assert.Equal(t, "summary", analysis.Summary)
	require.Len(t, analysis.KeyClaims, 2)
	assert.Equal(t, []string{"US", "KR"}, analysis.KeyClaims[0].TargetCountries)
	assert.Equal(t, "claim two", analysis.KeyClaims[1].Text)
}

func TestAnalysisClient_Analyze_MissingAnalysis(t *testing.T) {
	client, _ := setupTestAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true})
	})

	_, err := client.Analyze(context.Background(), "https://example.com", "article")

	require.Error(t, err)
	assert.True(t, IsService(err))
	assert.Equal(t, "could not process response data", ServiceMessage(err))
}

func TestAnalysisClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
	}{
		{
			name:            "error field",
			status:          http.StatusInternalServerError,
			body:            `{"error":"extraction backend down"}`,
			expectedMessage: "extraction backend down",
		},
		{
			name:            "message field",
			status:          http.StatusBadRequest,
			body:            `{"message":"URL is required"}`,
			expectedMessage: "URL is required",
		},
		{
			name:            "unparseable error body",
			status:          http.StatusBadGateway,
			body:            `<html>bad gateway</html>`,
			expectedMessage: "analysis failed",
		},
		{
			name:            "success false on 200",
			status:          http.StatusOK,
			body:            `{"success":false,"error":"quota exceeded"}`,
			expectedMessage: "quota exceeded",
		},
		{
			name:            "success false without message",
			status:          http.StatusOK,
			body:            `{"success":false}`,
			expectedMessage: "analysis failed",
		},
		{
			name:            "unparseable success body",
			status:          http.StatusOK,
			body:            `not json`,
			expectedMessage: "could not process response data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupTestAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.Analyze(context.Background(), "https://example.com", "article")

			require.Error(t, err)
			assert.True(t, IsService(err))
			assert.Equal(t, tt.expectedMessage, ServiceMessage(err))
		})
	}
}

func TestAnalysisClient_OptimizeQuery_ReturnsRawBody(t *testing.T) {
	client, _ := setupTestAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/optimize-query", r.URL.Path)

		var request OptimizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "Is this true in Japan?", request.UserInput)
		assert.Equal(t, "Article title", request.Context.TitleOrSummary)
		assert.Equal(t, []string{"claim one"}, request.Context.ExistingClaims)

		io.WriteString(w, `{"success":true,"data":{"searchKeywords":["japan"]}}`)
	})

	raw, err := client.OptimizeQuery(context.Background(), OptimizeRequest{
		UserInput: "Is this true in Japan?",
		Context:   models.AnalysisContext{TitleOrSummary: "Article title", ExistingClaims: []string{"claim one"}},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"searchKeywords":["japan"]}}`, string(raw))
}

func TestAnalysisClient_FindSources_Success(t *testing.T) {
	client, _ := setupTestAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/find-sources", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"url":"https://example.com/article","inputType":"article","claims_data":[
			{"claim_kr":"claim one","search_keywords_en":["inflation"],"target_country_codes":["US"]},
			{"claim_kr":"free text","search_keywords_en":[],"target_country_codes":[]}]}`, string(body))

		io.WriteString(w, `{"success":true,"articles_count":1,
			"result":{"results":[{"claim":"claim one","supporting_evidence":{"count":1,"articles":[{"source":"BBC","url":"https://bbc.co.uk/1","title":"t","country":"GB"}]},
			"opposing_evidence":{"count":0,"articles":[]},"neutral_coverage":{"count":0,"articles":[]},
			"diversity_metrics":{"total_sources":1,"stance_distribution":{"supporting":1,"opposing":0,"neutral":0}}}]},
			"articles":[{"source":"BBC","url":"https://bbc.co.uk/1","title":"t","country":"GB"}]}`)
	})

	claims := []models.ClaimDescriptor{
		models.NewClaimDescriptor("claim one", []string{"inflation"}, []string{"US"}),
		models.FreeTextDescriptor("free text"),
	}
	resp, err := client.FindSources(context.Background(), "https://example.com/article", "article", claims)

	require.NoError(t, err)
	require.Len(t, resp.Result.Results, 1)
	assert.Equal(t, 1, resp.Result.Results[0].Supporting.Count)
	assert.True(t, resp.Result.Results[0].Consistent())
	assert.Len(t, resp.Articles, 1)
}

func TestAnalysisClient_Popular(t *testing.T) {
	client, _ := setupTestAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/history/popular", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "7", r.URL.Query().Get("days"))

		io.WriteString(w, `{"success":true,"count":1,"data":[{"url":"https://example.com/a","input_type":"article","title":"A","view_count":12,
			"last_analyzed_at":{"seconds":1700000000,"nanoseconds":0}}]}`)
	})

	items, err := client.Popular(context.Background(), 10, 7)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 12, items[0].ViewCount)
	assert.Equal(t, int64(1700000000), items[0].LastAnalyzedAt.Seconds)
}

func TestAnalysisClient_Recent_EmptyResults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero count", body: `{"success":true,"count":0,"data":[{"url":"ignored"}]}`},
		{name: "missing success", body: `{"count":3,"data":[{"url":"ignored"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupTestAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/history/recent", r.URL.Path)
				assert.Equal(t, "20", r.URL.Query().Get("limit"))
				io.WriteString(w, tt.body)
			})

			items, err := client.Recent(context.Background(), 20)

			require.NoError(t, err)
			assert.Empty(t, items)
			assert.NotNil(t, items)
		})
	}
}

func TestAnalysisClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := setupTestAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	client.timeout = 50 * time.Millisecond

	_, err := client.FindSources(context.Background(), "https://example.com", "article", nil)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsTransport(err))
}

func TestAnalysisClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewAnalysisClient(&config.Config{AnalysisAPIBaseURL: baseURL, APITimeout: time.Second})
	log, _ := test.NewNullLogger()
	client.logger = log

	_, err := client.Recent(context.Background(), 5)

	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, IsTimeout(err))
}

func TestAnalysisClient_LogsServiceErrors(t *testing.T) {
	client, hook := setupTestAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})

	_, err := client.Popular(context.Background(), 5, 1)

	require.Error(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Analysis service returned an error", hook.LastEntry().Message)
	assert.Equal(t, "popular history", hook.LastEntry().Data["operation"])
	assert.Equal(t, http.StatusInternalServerError, hook.LastEntry().Data["status"])
}

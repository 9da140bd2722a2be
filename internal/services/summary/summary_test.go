package summary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"StockBrief/internal/domain/models"
	applogger "StockBrief/pkg/logger"
)

type fakeCompleter struct {
	calls  int
	prompt string
	reply  string
	err    error
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

var aapl = models.Position{
	Ticker:          "AAPL",
	Quantity:        models.Dec("10"),
	Equity:          models.Dec("1500"),
	AverageBuyPrice: models.Dec("120"),
	PercentChange:   models.Dec("5"),
}

func TestSummarizeNoNewsSkipsModel(t *testing.T) {
	fc := &fakeCompleter{reply: "unused"}
	s := New(fc, applogger.Nop())

	for _, news := range []string{"", "   \n"} {
		got := s.Summarize(context.Background(), "AAPL", aapl, models.NewsResult{Ticker: "AAPL", News: news})
		if got.Text != "No recent news found for AAPL." || got.Source != models.SummaryNoNews {
			t.Fatalf("unexpected summary %+v", got)
		}
	}
	if fc.calls != 0 {
		t.Fatalf("model must not be called, got %d calls", fc.calls)
	}
}

func TestSummarizeModelError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("quota exceeded")}
	got := New(fc, applogger.Nop()).Summarize(context.Background(), "TSLA", models.Position{}, models.NewsResult{News: "n"})
	if got.Text != "Error generating summary for TSLA: quota exceeded" || got.Source != models.SummaryError {
		t.Fatalf("unexpected summary %+v", got)
	}

	fc = &fakeCompleter{reply: "  "}
	got = New(fc, applogger.Nop()).Summarize(context.Background(), "TSLA", models.Position{}, models.NewsResult{News: "n"})
	if got.Source != models.SummaryError || !strings.HasPrefix(got.Text, "Error generating summary for TSLA: ") {
		t.Fatalf("empty reply should be an error, got %+v", got)
	}
}

func TestSummarizeSuccess(t *testing.T) {
	fc := &fakeCompleter{reply: " Apple looks fine. "}
	news := models.NewsResult{Ticker: "AAPL", News: "Apple beat earnings.", Citations: []string{"https://a"}}
	got := New(fc, applogger.Nop()).Summarize(context.Background(), "AAPL", aapl, news)

	if got.Text != "Apple looks fine." || got.Source != models.SummaryFromModel || len(got.Citations) != 1 {
		t.Fatalf("unexpected summary %+v", got)
	}
	for _, want := range []string{
		"Stock: AAPL",
		"- Current position: 10 shares",
		"- Current value: $1500",
		"- Average buy price: $120",
		"- Percent change: 5%",
		"Recent News:\nApple beat earnings.",
		"concise 2-3 paragraph summary of the current situation for AAPL",
	} {
		if !strings.Contains(fc.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, fc.prompt)
		}
	}
}

func TestBuildPromptMissingFields(t *testing.T) {
	p := BuildPrompt("X", models.Position{}, models.NewsResult{News: "n"})
	if !strings.Contains(p, "- Current value: N/A") || !strings.Contains(p, "- Percent change: N/A\n") {
		t.Fatalf("missing fields should render N/A:\n%s", p)
	}
}

func TestOpenAIRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk" {
			t.Errorf("missing bearer token")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "gpt-4o" || req.MaxTokens != 500 || req.Temperature != 0.2 {
			t.Errorf("unexpected params %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{URL: srv.URL, APIKey: "sk", MaxTokens: 500, Temperature: 0.2})
	got, err := o.Complete(context.Background(), "hello")
	if err != nil || got != "hi" {
		t.Fatalf("complete: %q %v", got, err)
	}
}

func TestOpenAIErrorBecomesSentence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := New(NewOpenAI(OpenAIConfig{URL: srv.URL, APIKey: "sk"}), applogger.Nop())
	got := s.Summarize(context.Background(), "AAPL", aapl, models.NewsResult{News: "n"})
	if got.Source != models.SummaryError || !strings.Contains(got.Text, "Error generating summary for AAPL: ") ||
		!strings.Contains(got.Text, "429") {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestGeminiComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			SystemInstruction json.RawMessage `json:"systemInstruction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.SystemInstruction) != 0 {
			t.Errorf("unexpected system instruction %s", req.SystemInstruction)
		}
		if len(req.Contents) != 1 || req.Contents[0].Role != "user" || len(req.Contents[0].Parts) != 1 || req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("expected a single user prompt, got %+v", req.Contents)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"gemini says hi"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", Model: "gemini-test", MaxTokens: 500, Temperature: 0.2, BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("new gemini: %v", err)
	}
	got, err := g.Complete(context.Background(), "hello")
	if err != nil || got != "gemini says hi" {
		t.Fatalf("complete: %q %v", got, err)
	}
}

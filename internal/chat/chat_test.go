package chat

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedDelayer struct {
	d     time.Duration
	calls int
	mu    sync.Mutex
}

func (f *fixedDelayer) Delay() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.d
}

type recorded struct {
	category string
	delay    time.Duration
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (f *fakeRecorder) ObserveChat(category string, delay time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recorded{category, delay})
}

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultLoanMarkers, DefaultErrorMarkers)

	testCases := []struct {
		Name     string
		Message  string
		Expected Category
	}{
		{"loan_inquiry", "대출 상담 받고 싶어요", CategoryLoan},
		{"interest_rate_inquiry", "요즘 금리가 어떻게 되나요?", CategoryLoan},
		{"error_simulation", "오류가 발생했어요", CategoryError},
		{"loan_wins_over_error", "대출 신청 중 오류가 났어요", CategoryLoan},
		{"loan_wins_regardless_of_position", "오류 ... 대출", CategoryLoan},
		{"default", "안녕하세요", CategoryDefault},
		{"empty", "", CategoryDefault},
		{"whitespace_only", "   ", CategoryDefault},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, c.Classify(tc.Message))
		})
	}
}

func TestClassifyCaseSensitive(t *testing.T) {
	c := NewClassifier([]string{"loan", "interest rate"}, []string{"error"})

	assert.Equal(t, CategoryLoan, c.Classify("I need a loan"))
	assert.Equal(t, CategoryDefault, c.Classify("I need a LOAN"))
	assert.Equal(t, CategoryLoan, c.Classify("what is the interest rate"))
	assert.Equal(t, CategoryDefault, c.Classify("what is the Interest Rate"))
	assert.Equal(t, CategoryError, c.Classify("an error happened"))
	assert.Equal(t, CategoryDefault, c.Classify("an Error happened"))
}

func TestClassifyIgnoresEmptyMarkers(t *testing.T) {
	c := NewClassifier([]string{""}, []string{"", "오류"})

	assert.Equal(t, CategoryDefault, c.Classify("hello"))
	assert.Equal(t, CategoryError, c.Classify("오류"))
}

func TestRenderText(t *testing.T) {
	r := NewRenderer("v1", FormatText)

	loan := r.Render(CategoryLoan, "대출 상담 받고 싶어요")
	assert.Equal(t, http.StatusOK, loan.Status)
	assert.Equal(t, LoanAdvisoryText, loan.Text)
	assert.Equal(t, slog.LevelWarn, loan.LogLevel)

	errReply := r.Render(CategoryError, "오류가 발생했어요")
	assert.Equal(t, http.StatusInternalServerError, errReply.Status)
	assert.Equal(t, ErrorText, errReply.Text)
	assert.Equal(t, slog.LevelError, errReply.LogLevel)

	def := r.Render(CategoryDefault, "<안녕>")
	assert.Equal(t, http.StatusOK, def.Status)
	assert.Equal(t, "AI 모델 v1이 답변합니다: '<안녕>'에 대한 안내입니다.", def.Text)
	assert.Equal(t, slog.LevelInfo, def.LogLevel)

	empty := r.Render(CategoryDefault, "")
	assert.Equal(t, "AI 모델 v1이 답변합니다: ''에 대한 안내입니다.", empty.Text)
}

func TestRenderHTML(t *testing.T) {
	r := NewRenderer("v2", "HTML")
	require.Equal(t, FormatHTML, r.Format())

	loan := r.Render(CategoryLoan, "대출")
	assert.Contains(t, loan.Text, LoanAdvisoryText)
	assert.True(t, strings.HasPrefix(loan.Text, "<div"))

	def := r.Render(CategoryDefault, "<script>")
	assert.Contains(t, def.Text, "&lt;script&gt;")
	assert.NotContains(t, def.Text, "<script>")
	assert.Contains(t, def.Text, "AI 모델 v2이")
}

func TestRenderUnknownFormatFallsBackToText(t *testing.T) {
	r := NewRenderer("v1", "xml")
	assert.Equal(t, FormatText, r.Format())
}

func TestServiceHandle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	delayer := &fixedDelayer{d: 120 * time.Millisecond}
	recorder := &fakeRecorder{}

	svc := NewService(
		NewClassifier(DefaultLoanMarkers, DefaultErrorMarkers),
		NewRenderer("v1", FormatText),
		delayer,
		WithRecorder(recorder),
		WithLogger(logger),
	)

	reply := svc.Handle(context.Background(), "오류가 발생했어요")
	assert.Equal(t, CategoryError, reply.Category)
	assert.Equal(t, http.StatusInternalServerError, reply.Status)
	assert.Equal(t, 1, delayer.calls)

	require.Len(t, recorder.seen, 1)
	assert.Equal(t, "error", recorder.seen[0].category)
	assert.Equal(t, 120*time.Millisecond, recorder.seen[0].delay)

	logs := buf.String()
	assert.Contains(t, logs, "level=INFO msg=\"User request\"")
	assert.Contains(t, logs, "level=ERROR msg=\"Model Inference Error: Unknown Token\"")
	assert.Contains(t, logs, "delayMs=120")
}

func TestServiceHandleLogLevels(t *testing.T) {
	testCases := []struct {
		Name    string
		Message string
		Level   string
	}{
		{"loan_warns", "대출", "level=WARN msg=\"Loan inquiry detected - Risk Check Required\""},
		{"default_info", "hello", "level=INFO msg=\"Default answer generated\""},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			var buf bytes.Buffer
			svc := NewService(
				NewClassifier(DefaultLoanMarkers, DefaultErrorMarkers),
				NewRenderer("v1", FormatText),
				&fixedDelayer{},
				WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
			)
			svc.Handle(context.Background(), tc.Message)
			assert.Contains(t, buf.String(), tc.Level)
		})
	}
}

func TestServiceUsesContextLogger(t *testing.T) {
	var base, scoped bytes.Buffer
	svc := NewService(
		NewClassifier(DefaultLoanMarkers, DefaultErrorMarkers),
		NewRenderer("v1", FormatText),
		nil,
		WithLogger(slog.New(slog.NewTextHandler(&base, nil))),
	)

	ctx := ContextWithLogger(context.Background(),
		slog.New(slog.NewTextHandler(&scoped, nil)).With("requestId", "abc"))
	svc.Handle(ctx, "hello")

	assert.Empty(t, base.String())
	assert.Contains(t, scoped.String(), "requestId=abc")
}

func TestServiceIdempotent(t *testing.T) {
	svc := NewService(
		NewClassifier(DefaultLoanMarkers, DefaultErrorMarkers),
		NewRenderer("v1", FormatText),
		&fixedDelayer{},
	)

	for _, msg := range []string{"대출 상담 받고 싶어요", "오류가 발생했어요", "", "그냥 질문"} {
		first := svc.Handle(context.Background(), msg)
		second := svc.Handle(context.Background(), msg)
		assert.Equal(t, first, second, "message %q", msg)
	}
}

func TestServiceClassifySkipsDelay(t *testing.T) {
	delayer := &fixedDelayer{d: time.Second}
	svc := NewService(
		NewClassifier(DefaultLoanMarkers, DefaultErrorMarkers),
		NewRenderer("v1", FormatText),
		delayer,
	)

	reply := svc.Classify("금리 문의")
	assert.Equal(t, CategoryLoan, reply.Category)
	assert.Equal(t, 0, delayer.calls)
}

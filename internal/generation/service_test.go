package generation

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hyperjump/gyojeong/internal/filter"
	"github.com/hyperjump/gyojeong/internal/llm"
	"github.com/hyperjump/gyojeong/internal/models"
	"github.com/hyperjump/gyojeong/internal/rag"
)

type fakeExamples struct {
	block string
	err   error
	calls int
	k     int
}

func (f *fakeExamples) BuildExampleBlock(_ context.Context, _ string, k int) (string, error) {
	f.calls++
	f.k = k
	return f.block, f.err
}

func TestCorrect(t *testing.T) {
	gen := &llm.StubGenerator{Reply: "  학교에 가고 싶어요.\n"}
	ex := &fakeExamples{block: "다음은 한국어 문장 교정 예시들입니다:\n\n"}
	s := NewService(gen, ex, nil)

	got, err := s.Correct(context.Background(), "학교에 가고싶어요", models.StyleFormal)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rejected || got.Text != "학교에 가고 싶어요." {
		t.Errorf("Correct() = %+v", got)
	}
	if ex.k != DefaultTopK {
		t.Errorf("retrieved k = %d, want %d", ex.k, DefaultTopK)
	}
	if p := gen.Prompts()[0]; !strings.Contains(p, "교정할 문장: 학교에 가고싶어요") || !strings.Contains(p, "교정 예시들") {
		t.Errorf("unexpected prompt:\n%s", p)
	}
}

func TestCorrect_unsafeInputSkipsModel(t *testing.T) {
	gen := &llm.StubGenerator{Reply: "unused"}
	ex := &fakeExamples{}
	s := NewService(gen, ex, nil)

	got, err := s.Correct(context.Background(), "이 shit 문장", models.StyleFormal)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Rejected || got.Text != filter.ApologyMessage {
		t.Errorf("Correct() = %+v", got)
	}
	if gen.Calls() != 0 {
		t.Errorf("model called %d times for unsafe input", gen.Calls())
	}
	if ex.calls != 0 {
		t.Error("retrieval should be skipped for unsafe input")
	}
}

func TestCorrect_filtersModelOutput(t *testing.T) {
	gen := &llm.StubGenerator{Reply: "이건 Damn 좋아요"}
	s := NewService(gen, &fakeExamples{}, nil)

	got, err := s.Correct(context.Background(), "이거 좋아요", models.StyleCasual)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "이건 **** 좋아요" {
		t.Errorf("Correct() = %q", got.Text)
	}
}

func TestCorrect_retrievalError(t *testing.T) {
	gen := &llm.StubGenerator{Reply: "x"}
	s := NewService(gen, &fakeExamples{err: rag.ErrIndexUnavailable}, nil)

	_, err := s.Correct(context.Background(), "안녕하세요", models.StyleFormal)
	if !errors.Is(err, rag.ErrIndexUnavailable) {
		t.Errorf("err = %v, want ErrIndexUnavailable", err)
	}
	if gen.Calls() != 0 {
		t.Error("model should not be called when retrieval fails")
	}
}

func TestCorrect_modelError(t *testing.T) {
	upstream := errors.New("boom")
	s := NewService(&llm.StubGenerator{Err: upstream}, &fakeExamples{}, nil)

	_, err := s.Correct(context.Background(), "안녕하세요", models.StyleFormal)
	if !errors.Is(err, ErrGeneration) || !errors.Is(err, upstream) {
		t.Errorf("err = %v, want ErrGeneration wrapping upstream", err)
	}
}

func TestWithTopK(t *testing.T) {
	ex := &fakeExamples{}
	s := NewService(&llm.StubGenerator{Reply: "x"}, ex, nil, WithTopK(5))
	if _, err := s.Correct(context.Background(), "안녕", models.StyleFormal); err != nil {
		t.Fatal(err)
	}
	if ex.k != 5 {
		t.Errorf("k = %d, want 5", ex.k)
	}
}

func TestReply(t *testing.T) {
	gen := &llm.StubGenerator{Reply: " 좋아요! 어떤 학교에 다니세요? "}
	s := NewService(gen, &fakeExamples{}, nil)
	history := []models.ContextTurn{{RefinedText: "안녕하세요", ReplyText: "반가워요"}}

	got, err := s.Reply(context.Background(), "학교에 가고 싶어요", models.StyleFormal, history)
	if err != nil {
		t.Fatal(err)
	}
	if got != "좋아요! 어떤 학교에 다니세요?" {
		t.Errorf("Reply() = %q", got)
	}
	if p := gen.Prompts()[0]; !strings.Contains(p, "사용자: 안녕하세요\n봇: 반가워요\n") {
		t.Errorf("history missing from prompt:\n%s", p)
	}
}

func collect(t *testing.T, rs *ReplyStream) []string {
	t.Helper()
	defer rs.Close()
	var out []string
	for {
		chunk, err := rs.Recv()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, chunk)
	}
}

func TestStreamReply(t *testing.T) {
	gen := &llm.StubGenerator{Chunks: []string{"좋", "", "아요 ", "shit", "!"}}
	s := NewService(gen, &fakeExamples{}, filter.New())

	rs, err := s.StreamReply(context.Background(), "안녕", models.StyleFormal, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := collect(t, rs)
	want := []string{"좋", "아요 ", "****", "!"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("chunks = %q, want %q", got, want)
	}
	if _, err := rs.Recv(); !errors.Is(err, io.EOF) {
		t.Error("stream should stay exhausted")
	}
}

func TestStreamReply_perChunkFilterMissesSplitTerm(t *testing.T) {
	gen := &llm.StubGenerator{Chunks: []string{"sh", "it"}}
	s := NewService(gen, &fakeExamples{}, nil)
	rs, err := s.StreamReply(context.Background(), "x", models.StyleFormal, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(collect(t, rs), ""); got != "shit" {
		t.Errorf("joined = %q", got)
	}
}

func TestStreamReply_windowCatchesSplitTerm(t *testing.T) {
	gen := &llm.StubGenerator{Chunks: []string{"oh sh", "it happens"}}
	s := NewService(gen, &fakeExamples{}, nil, WithStreamFilterWindow(true))
	rs, err := s.StreamReply(context.Background(), "x", models.StyleFormal, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(collect(t, rs), ""); got != "oh **** happens" {
		t.Errorf("joined = %q", got)
	}
}

func TestStreamReply_error(t *testing.T) {
	s := NewService(&llm.StubGenerator{Err: errors.New("down")}, &fakeExamples{}, nil)
	if _, err := s.StreamReply(context.Background(), "x", models.StyleFormal, nil); !errors.Is(err, ErrGeneration) {
		t.Errorf("err = %v, want ErrGeneration", err)
	}
}

package generation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/gyojeong/internal/models"
)

func TestCorrectionPrompt(t *testing.T) {
	p := CorrectionPrompt("학교에 가고싶어요", "예시 블록\n\n", models.StyleCasual)
	for _, want := range []string{
		"당신은 한국어 문장 교정 전문가입니다.",
		"예시 블록",
		"1. 자연스럽고 친근한 말투로 교정해주세요",
		"5. 교정된 문장만 출력하세요 (설명 없이)",
		"교정할 문장: 학교에 가고싶어요",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(p, "교정된 문장:") {
		t.Error("prompt should end with the answer cue")
	}
}

func TestCorrectionPrompt_styles(t *testing.T) {
	tests := []struct {
		style models.Style
		want  string
	}{
		{models.StyleFormal, "존댓말과 정중한 표현을 사용하여"},
		{models.StyleCasual, "자연스럽고 친근한 말투로"},
		{"unknown", "존댓말과 정중한 표현을 사용하여"},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			if p := CorrectionPrompt("x", "", tt.style); !strings.Contains(p, tt.want) {
				t.Errorf("prompt for %q missing %q", tt.style, tt.want)
			}
		})
	}
}

func TestReplyPrompt_noHistory(t *testing.T) {
	p := ReplyPrompt("학교에 가고 싶어요", models.StyleFormal, nil)
	if strings.Contains(p, "이전 대화 내용") {
		t.Error("empty history should not render a transcript")
	}
	if !strings.Contains(p, "\n\n사용자가 교정된 문장으로 대화를 시작했습니다. 정중하고 도움이 되는 존댓말로 자연스럽게 응답해주세요.") {
		t.Errorf("unexpected prompt:\n%s", p)
	}
	if !strings.Contains(p, "사용자 메시지: 학교에 가고 싶어요\n\n응답:") {
		t.Error("prompt should end with the current message and answer cue")
	}
}

func TestReplyPrompt_keepsLastFiveTurns(t *testing.T) {
	var history []models.ContextTurn
	for i := 1; i <= 7; i++ {
		history = append(history, models.ContextTurn{
			RefinedText: fmt.Sprintf("질문%d", i),
			ReplyText:   fmt.Sprintf("답변%d", i),
		})
	}
	p := ReplyPrompt("지금", models.StyleCasual, history)

	if strings.Contains(p, "질문1\n") || strings.Contains(p, "질문2\n") {
		t.Error("turns older than the last five should be dropped")
	}
	want := "이전 대화 내용:\n사용자: 질문3\n봇: 답변3\n"
	if !strings.Contains(p, want) {
		t.Errorf("transcript should start at turn 3:\n%s", p)
	}
	if strings.Index(p, "질문3") > strings.Index(p, "질문7") {
		t.Error("transcript should be oldest first")
	}
	if !strings.Contains(p, "봇: 답변7\n\n사용자가") {
		t.Error("transcript should be followed by a blank line")
	}
	if !strings.Contains(p, "친근하고 자연스러운 말투로") {
		t.Error("casual reply style missing")
	}
}

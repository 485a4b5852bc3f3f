package generation

import (
	"fmt"
	"strings"

	"github.com/hyperjump/gyojeong/internal/models"
)

// MaxContextTurns is the number of most recent turns included in a reply prompt.
const MaxContextTurns = 5

var correctionStyle = map[models.Style]string{
	models.StyleFormal: "존댓말과 정중한 표현을 사용하여",
	models.StyleCasual: "자연스럽고 친근한 말투로",
}

var replyStyle = map[models.Style]string{
	models.StyleFormal: "정중하고 도움이 되는 존댓말로",
	models.StyleCasual: "친근하고 자연스러운 말투로",
}

// CorrectionPrompt builds the correction prompt for text. examples is the rendered example
// block and may be empty.
func CorrectionPrompt(text, examples string, style models.Style) string {
	return fmt.Sprintf(`당신은 한국어 문장 교정 전문가입니다. 유학생이 작성한 한국어 문장을 자연스럽게 교정해주세요.

%s

교정 지침:
1. %s 교정해주세요
2. 맞춤법, 띄어쓰기, 문법을 정확하게 수정
3. 자연스러운 한국어 표현으로 개선
4. 원래 의미는 그대로 유지
5. 교정된 문장만 출력하세요 (설명 없이)

교정할 문장: %s

교정된 문장:`, examples, correctionStyle[models.StyleOrDefault(string(style))], text)
}

// ReplyPrompt builds the conversational reply prompt. Only the last MaxContextTurns entries
// of history are rendered, oldest first.
func ReplyPrompt(corrected string, style models.Style, history []models.ContextTurn) string {
	return fmt.Sprintf(`당신은 유학생을 도와주는 친근한 한국어 대화 파트너입니다.

%s사용자가 교정된 문장으로 대화를 시작했습니다. %s 자연스럽게 응답해주세요.

응답 지침:
1. 상황에 맞는 적절한 반응
2. 대화를 이어갈 수 있는 내용
3. 유학생에게 도움이 되는 방향
4. 너무 길지 않게 (2-3문장 정도)
5. 한국 문화나 언어에 대한 팁이 있다면 자연스럽게 포함

사용자 메시지: %s

응답:`, historyBlock(history), replyStyle[models.StyleOrDefault(string(style))], corrected)
}

func historyBlock(history []models.ContextTurn) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > MaxContextTurns {
		history = history[len(history)-MaxContextTurns:]
	}
	var b strings.Builder
	b.WriteString("이전 대화 내용:\n")
	for _, t := range history {
		fmt.Fprintf(&b, "사용자: %s\n봇: %s\n", t.RefinedText, t.ReplyText)
	}
	b.WriteString("\n")
	return b.String()
}

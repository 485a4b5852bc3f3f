package embedding

import (
	"testing"
)

func TestSyllableTokenizer_Tokenize(t *testing.T) {
	tok := &SyllableTokenizer{}
	ids, attn := tok.Tokenize("학교에 가요", 10)
	if len(ids) != 10 || len(attn) != 10 {
		t.Fatalf("len(ids)=%d len(attn)=%d", len(ids), len(attn))
	}
	if ids[0] != clsTokenID {
		t.Errorf("expected <s> %d, got %d", clsTokenID, ids[0])
	}
	// 5 syllables + <s> + </s>
	if ids[6] != sepTokenID || attn[6] != 1 {
		t.Errorf("expected </s> at 6, got %d", ids[6])
	}
	if ids[7] != padTokenID || attn[7] != 0 {
		t.Error("remaining positions should be padding")
	}
}

func TestSyllableTokenizer_Truncates(t *testing.T) {
	tok := &SyllableTokenizer{}
	ids, _ := tok.Tokenize("가나다라마바사아자차카타파하", 6)
	if ids[5] != sepTokenID {
		t.Errorf("last position should be </s>, got %d", ids[5])
	}
}

func TestPieces(t *testing.T) {
	got := Pieces("  학교 가  ")
	want := []string{"▁학", "교", "▁가"}
	if len(got) != len(want) {
		t.Fatalf("Pieces = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("piece %d = %q, want %q", i, got[i], want[i])
		}
	}
	if Pieces("") != nil {
		t.Error("empty string should return nil")
	}
}

func TestTokenHash(t *testing.T) {
	if TokenHash("학") != TokenHash("학") {
		t.Error("hash should be deterministic")
	}
	if TokenHash("학") == TokenHash("교") {
		t.Error("different pieces should hash differently")
	}
}

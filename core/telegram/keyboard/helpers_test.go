package keyboard

import "testing"

func TestChunkLabels(t *testing.T) {
	rows := ChunkLabels([]string{"a", "b", "c"}, 2)
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("rows = %v", rows)
	}
	if rows := ChunkLabels([]string{"a", "b"}, 0); len(rows) != 2 {
		t.Fatalf("n<1 must place one label per row, got %v", rows)
	}
}

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"Пляж", "Экскурсии"}, []string{"Активный отдых"})
	if len(m.ReplyKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.ReplyKeyboard))
	}
	if got := m.ReplyKeyboard[1][0].Text; got != "Активный отдых" {
		t.Fatalf("label = %q", got)
	}
	if !m.ResizeKeyboard {
		t.Fatalf("keyboard must be resized")
	}
}

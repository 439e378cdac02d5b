package history

import (
	"reflect"
	"testing"

	"github.com/vihome-ai/advisor-core/pkg/core/types"
)

func user(text string) types.Message {
	return types.Message{Role: types.RoleUser, Text: text}
}

func model(text string) types.Message {
	return types.Message{Role: types.RoleModel, Text: text}
}

func turnText(t *testing.T, turn types.Turn) string {
	t.Helper()
	if len(turn.Parts) != 1 {
		t.Fatalf("len(turn.Parts) = %d, want 1", len(turn.Parts))
	}
	return turn.Parts[0].Text
}

func TestEncodeAlternates(t *testing.T) {
	transcript := []types.Message{
		user("Xin chào"),
		model("Chào anh/chị!"),
		user("Tôi muốn tìm căn hộ 2 phòng ngủ"),
	}
	turns := Encode(transcript)
	if len(turns) != 3 {
		t.Fatalf("len(turns) = %d, want 3", len(turns))
	}
	wantRoles := []types.Role{types.RoleUser, types.RoleModel, types.RoleUser}
	for i, turn := range turns {
		if turn.Role != wantRoles[i] {
			t.Fatalf("turns[%d].Role = %s, want %s", i, turn.Role, wantRoles[i])
		}
	}
}

func TestEncodeMergesSameRoleRuns(t *testing.T) {
	transcript := []types.Message{
		user("Xin chào"),
		model("Chào anh/chị"),
		model("Anh/chị cần tìm khu vực nào?"),
		user("Quận 7"),
	}
	turns := Encode(transcript)
	if len(turns) != 3 {
		t.Fatalf("len(turns) = %d, want 3", len(turns))
	}
	want := "Chào anh/chị\nAnh/chị cần tìm khu vực nào?"
	if got := turnText(t, turns[1]); got != want {
		t.Fatalf("merged turn text = %q, want %q", got, want)
	}
}

func TestEncodeDropsLeadingModelGreeting(t *testing.T) {
	transcript := []types.Message{
		model("Xin chào, em là trợ lý nhà đất"),
		user("Chào em"),
		model("Anh/chị cần gì ạ?"),
	}
	turns := Encode(transcript)
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Role != types.RoleUser {
		t.Fatalf("turns[0].Role = %s, want %s", turns[0].Role, types.RoleUser)
	}
}

func TestEncodeEmptyMessagePlaceholder(t *testing.T) {
	transcript := []types.Message{
		user("  "),
		model("Anh/chị muốn hỏi gì ạ?"),
	}
	turns := Encode(transcript)
	if got := turnText(t, turns[0]); got != Placeholder {
		t.Fatalf("empty turn text = %q, want %q", got, Placeholder)
	}
}

func TestEncodePlaceholderYieldsToRealText(t *testing.T) {
	transcript := []types.Message{
		user(""),
		user("Tôi quan tâm dự án ven sông"),
	}
	turns := Encode(transcript)
	if len(turns) != 1 {
		t.Fatalf("len(turns) = %d, want 1", len(turns))
	}
	if got, want := turnText(t, turns[0]), "Tôi quan tâm dự án ven sông"; got != want {
		t.Fatalf("turn text = %q, want %q", got, want)
	}
}

func TestEncodeToolMarker(t *testing.T) {
	transcript := []types.Message{
		user("Số của tôi là 0971132378"),
		{
			Role: types.RoleModel,
			Text: "Em đã lưu thông tin của anh/chị.",
			Tool: &types.ToolExchangeRecord{Name: "capture_lead", OK: true},
		},
	}
	turns := Encode(transcript)
	want := "Em đã lưu thông tin của anh/chị.\n[tool name=capture_lead status=ok]"
	if got := turnText(t, turns[1]); got != want {
		t.Fatalf("tool turn text = %q, want %q", got, want)
	}
}

func TestEncodeKeepsMediaParts(t *testing.T) {
	img := &types.Media{MIME: "image/jpeg", Data: []byte{0xff, 0xd8}}
	transcript := []types.Message{
		{Role: types.RoleUser, Text: "Căn này giá bao nhiêu?", Image: img},
	}
	turns := Encode(transcript)
	if len(turns[0].Parts) != 2 {
		t.Fatalf("len(parts) = %d, want 2", len(turns[0].Parts))
	}
	if turns[0].Parts[0].Media == nil {
		t.Fatalf("parts[0].Media = nil, want inline image")
	}
	if got, want := turns[0].Parts[1].Text, "Căn này giá bao nhiêu?"; got != want {
		t.Fatalf("parts[1].Text = %q, want %q", got, want)
	}
}

func TestEncodePureAndIdempotent(t *testing.T) {
	transcript := []types.Message{
		model("chào"),
		user("hi"),
		user("tìm nhà"),
		model("dạ"),
	}
	before := make([]types.Message, len(transcript))
	copy(before, transcript)

	first := Encode(transcript)
	second := Encode(transcript)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Encode not deterministic: %#v vs %#v", first, second)
	}
	if !reflect.DeepEqual(transcript, before) {
		t.Fatalf("Encode mutated its input: %#v", transcript)
	}
}

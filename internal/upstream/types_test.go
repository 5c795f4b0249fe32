package upstream

import (
	"encoding/json"
	"testing"
)

func TestParseMode(t *testing.T) {
	testCases := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"images", ModeImages, false},
		{"chat", ModeChat, false},
		{"auto", ModeAuto, false},
		{"", ModeAuto, false},
		{" Images ", ModeImages, false},
		{"CHAT", ModeChat, false},
		{"grpc", "", true},
	}
	for _, tc := range testCases {
		got, err := ParseMode(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error, got %q", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestOutputModeString(t *testing.T) {
	if got := OutputPath.String(); got != "path" {
		t.Errorf("OutputPath.String() = %q", got)
	}
	if got := OutputInline.String(); got != "inline" {
		t.Errorf("OutputInline.String() = %q", got)
	}
}

func TestChatImagePayloadPriority(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "image_url object wins",
			raw:  `{"image_url":{"url":"https://a.example/1.png"},"url":"loser","b64_json":"loser","data":"loser"}`,
			want: "https://a.example/1.png",
		},
		{
			name: "image_url as bare string",
			raw:  `{"image_url":"data:image/png;base64,AAAA"}`,
			want: "data:image/png;base64,AAAA",
		},
		{
			name: "url field",
			raw:  `{"url":"https://a.example/2.png","b64_json":"loser"}`,
			want: "https://a.example/2.png",
		},
		{
			name: "b64_json field",
			raw:  `{"b64_json":"QUJD","data":"loser"}`,
			want: "QUJD",
		},
		{
			name: "data field last",
			raw:  `{"data":"QUJD"}`,
			want: "QUJD",
		},
		{
			name: "empty image_url object falls through",
			raw:  `{"image_url":{},"url":"https://a.example/3.png"}`,
			want: "https://a.example/3.png",
		},
		{
			name: "nothing set",
			raw:  `{"type":"image_url"}`,
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var img chatImage
			if err := json.Unmarshal([]byte(tc.raw), &img); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := img.payload(); got != tc.want {
				t.Errorf("payload() = %q, want %q", got, tc.want)
			}
		})
	}
}

package m3u

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_FullEntry(t *testing.T) {
	input := `#EXTINF:-1 tvg-id="a" tvg-logo="l.png" group-title="News",Channel A
http://x/a.m3u8`

	channels := ParseString(input, "Sports")

	if len(channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(channels))
	}

	want := Channel{
		ID:             "a",
		Name:           "Channel A",
		LogoURL:        "l.png",
		Group:          "News",
		StreamURL:      "http://x/a.m3u8",
		SourcePlaylist: "Sports",
	}
	if !reflect.DeepEqual(channels[0], want) {
		t.Errorf("Expected %+v, got %+v", want, channels[0])
	}
}

func TestParse_DefaultGroup(t *testing.T) {
	input := "#EXTINF:-1 tvg-id=\"a\",Channel A\nhttp://x/a.m3u8"

	channels := ParseString(input, "test")

	if len(channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(channels))
	}
	if channels[0].Group != DefaultGroup {
		t.Errorf("Expected group %q, got %q", DefaultGroup, channels[0].Group)
	}
}

func TestParse_MissingLogoLeftEmpty(t *testing.T) {
	input := "#EXTINF:-1 tvg-id=\"a\",Channel A\nhttp://x/a.m3u8"

	channels := ParseString(input, "test")

	if len(channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(channels))
	}
	if channels[0].LogoURL != "" {
		t.Errorf("Expected empty logo, got %q", channels[0].LogoURL)
	}
}

func TestParse_PlaceholderIDWhenTvgIDMissing(t *testing.T) {
	input := "#EXTINF:-1,First\nhttp://x/1\n#EXTINF:-1,Second\nhttp://x/2"

	channels := ParseString(input, "test")

	if len(channels) != 2 {
		t.Fatalf("Expected 2 channels, got %d", len(channels))
	}
	if channels[0].ID != "channel_0" {
		t.Errorf("Expected id channel_0, got %q", channels[0].ID)
	}
	if channels[1].ID != "channel_1" {
		t.Errorf("Expected id channel_1, got %q", channels[1].ID)
	}
}

func TestParse_DuplicateIDsGetSuffixes(t *testing.T) {
	input := strings.Join([]string{
		`#EXTINF:-1 tvg-id="dup",One`,
		"http://x/1",
		`#EXTINF:-1 tvg-id="dup",Two`,
		"http://x/2",
		`#EXTINF:-1 tvg-id="dup",Three`,
		"http://x/3",
	}, "\n")

	channels := ParseString(input, "test")

	if len(channels) != 3 {
		t.Fatalf("Expected 3 channels, got %d", len(channels))
	}

	wantIDs := []string{"dup", "dup_1", "dup_2"}
	for i, want := range wantIDs {
		if channels[i].ID != want {
			t.Errorf("Channel %d: expected id %q, got %q", i, want, channels[i].ID)
		}
	}
}

func TestParse_UniquenessInvariant(t *testing.T) {
	input := strings.Join([]string{
		`#EXTINF:-1 tvg-id="a",One`,
		"http://x/1",
		`#EXTINF:-1 tvg-id="a_1",Two`,
		"http://x/2",
		`#EXTINF:-1 tvg-id="a",Three`,
		"http://x/3",
	}, "\n")

	channels := ParseString(input, "test")

	seen := make(map[string]bool)
	for _, ch := range channels {
		if seen[ch.ID] {
			t.Errorf("Duplicate id %q in parsed catalog", ch.ID)
		}
		seen[ch.ID] = true
	}
}

func TestParse_DanglingMetadataDiscarded(t *testing.T) {
	input := strings.Join([]string{
		`#EXTINF:-1 tvg-id="lost",Lost Channel`,
		`#EXTINF:-1 tvg-id="kept",Kept Channel`,
		"http://x/kept",
	}, "\n")

	channels := ParseString(input, "test")

	if len(channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(channels))
	}
	if channels[0].ID != "kept" {
		t.Errorf("Expected id kept, got %q", channels[0].ID)
	}
}

func TestParse_OrphanURLIgnored(t *testing.T) {
	input := "http://x/orphan\n#EXTINF:-1 tvg-id=\"a\",Channel A\nhttp://x/a"

	channels := ParseString(input, "test")

	if len(channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(channels))
	}
	if channels[0].StreamURL != "http://x/a" {
		t.Errorf("Expected stream http://x/a, got %q", channels[0].StreamURL)
	}
}

func TestParse_CommentsAndBlankLinesIgnored(t *testing.T) {
	input := strings.Join([]string{
		"#EXTM3U",
		"",
		"#EXTVLCOPT:network-caching=1000",
		`#EXTINF:-1 tvg-id="a",Channel A`,
		"",
		"# some comment",
		"http://x/a",
	}, "\n")

	channels := ParseString(input, "test")

	if len(channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(channels))
	}
	if channels[0].StreamURL != "http://x/a" {
		t.Errorf("Expected stream http://x/a, got %q", channels[0].StreamURL)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "#EXTM3U\n", "\n\n\n"} {
		channels := ParseString(input, "test")
		if len(channels) != 0 {
			t.Errorf("Input %q: expected no channels, got %d", input, len(channels))
		}
	}
}

func TestParse_Idempotence(t *testing.T) {
	input := strings.Join([]string{
		`#EXTINF:-1 tvg-id="dup",One`,
		"http://x/1",
		`#EXTINF:-1 tvg-id="dup",Two`,
		"http://x/2",
		"#EXTINF:-1,Unnamed",
		"http://x/3",
	}, "\n")

	first := ParseString(input, "test")
	second := ParseString(input, "test")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parsing twice produced different results:\n%+v\n%+v", first, second)
	}
}

func TestParse_NameAfterLastComma(t *testing.T) {
	input := `#EXTINF:-1 tvg-id="a",News, Weather & Sports
http://x/a`

	channels := ParseString(input, "test")

	if len(channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(channels))
	}
	// The last comma splits the name; everything before it is metadata.
	if channels[0].Name != "Weather & Sports" {
		t.Errorf("Expected name after last comma, got %q", channels[0].Name)
	}
}

func TestParse_WhitespaceTrimmed(t *testing.T) {
	input := "  #EXTINF:-1 tvg-id=\"a\",  Channel A  \n   http://x/a   "

	channels := ParseString(input, "test")

	if len(channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(channels))
	}
	if channels[0].Name != "Channel A" {
		t.Errorf("Expected trimmed name, got %q", channels[0].Name)
	}
	if channels[0].StreamURL != "http://x/a" {
		t.Errorf("Expected trimmed URL, got %q", channels[0].StreamURL)
	}
}

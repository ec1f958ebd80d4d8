package types

import "testing"

func TestResourceName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"image.png", "image_png.png"},
		{"Foo-Bold.ttf", "foo_bold_ttf.ttf"},
		{"My Sound.MP3", "my_sound_mp3.mp3"},
		{"noext", "noext"},
		{"a.b.c.jpg", "a_b_c_jpg.jpg"},
	}
	for _, tt := range tests {
		if got := ResourceName(tt.in); got != tt.want {
			t.Errorf("ResourceName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupForExt(t *testing.T) {
	tests := map[string]Group{
		".ttf":  GroupFont,
		".OTF":  GroupFont,
		".png":  GroupImage,
		".webp": GroupImage,
		".mp3":  GroupAudio,
		".pdf":  GroupCustom,
		"":      GroupCustom,
	}
	for ext, want := range tests {
		if got := GroupForExt(ext); got != want {
			t.Errorf("GroupForExt(%q) = %s, want %s", ext, got, want)
		}
	}
}

func TestAsset_Accessors(t *testing.T) {
	a := Asset{Path: "/proj/assets/fonts/Foo-Bold.TTF"}
	if a.Name() != "Foo-Bold.TTF" {
		t.Errorf("Name() = %q", a.Name())
	}
	if a.Ext() != ".ttf" {
		t.Errorf("Ext() = %q", a.Ext())
	}
	if a.Group() != GroupFont {
		t.Errorf("Group() = %s", a.Group())
	}
}

func TestLegacyAndroidOptions(t *testing.T) {
	legacy := LegacyAndroidOptions()
	if legacy[GroupFont].Strategy != StrategyCopy {
		t.Errorf("legacy font strategy = %s", legacy[GroupFont].Strategy)
	}
	if DefaultAndroidOptions()[GroupFont].Strategy != StrategyFontXML {
		t.Error("default font strategy should be font-xml")
	}
	if legacy[GroupImage] != DefaultAndroidOptions()[GroupImage] {
		t.Error("legacy options should only differ for fonts")
	}
}

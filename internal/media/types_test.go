package media

import "testing"

func TestKindFromFilename(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Kind
	}{
		{name: "mp4", in: "clip.mp4", want: KindVideo},
		{name: "mpeg", in: "clip.mpeg", want: KindVideo},
		{name: "avi", in: "dir/clip.avi", want: KindVideo},
		{name: "webm", in: "clip.webm", want: KindVideo},
		{name: "quicktime", in: "clip.quicktime", want: KindVideo},
		{name: "mkv", in: "clip.mkv", want: KindVideo},
		{name: "flv", in: "clip.flv", want: KindVideo},
		{name: "png", in: "photo.png", want: KindImage},
		{name: "mov is not listed", in: "clip.mov", want: KindImage},
		{name: "upper case", in: "CLIP.MP4", want: KindImage},
		{name: "no extension", in: "blob", want: KindImage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindFromFilename(tc.in); got != tc.want {
				t.Fatalf("KindFromFilename(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestKindFromContentType(t *testing.T) {
	cases := map[string]Kind{
		"image/png":                KindImage,
		"IMAGE/JPEG; charset=utf8": KindImage,
		"video/mp4":                KindVideo,
		"audio/ogg":                KindUnsupported,
		"application/pdf":          KindUnsupported,
		"":                         KindUnsupported,
	}
	for in, want := range cases {
		if got := KindFromContentType(in); got != want {
			t.Errorf("KindFromContentType(%q) = %q, want %q", in, got, want)
		}
	}
	if KindUnsupported.Supported() || !KindImage.Supported() || !KindVideo.Supported() {
		t.Fatal("unexpected Supported() result")
	}
}

func TestFilenameFromURL(t *testing.T) {
	cases := map[string]string{
		"https://cdn.discordapp.com/attachments/1/2/cat.png?ex=abc&is=def": "cat.png",
		"https://i.imgur.com/AbCd123.jpg":                                  "AbCd123.jpg",
		"https://example.com/a/b#frag":                                     "b",
		"":                                                                 "",
	}
	for in, want := range cases {
		if got := FilenameFromURL(in); got != want {
			t.Errorf("FilenameFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

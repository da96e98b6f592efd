package loader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"golang.org/x/image/bmp"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	red := encodePNG(t, solid(4, 2, color.RGBA{255, 0, 0, 255}))
	var bmpBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, solid(3, 3, color.RGBA{0, 0, 255, 255})); err != nil {
		t.Fatalf("bmp.Encode: %v", err)
	}
	base := encodePNG(t, solid(64, 32, color.RGBA{0, 255, 0, 255}))

	mux := http.NewServeMux()
	mux.HandleFunc("/red.png", func(w http.ResponseWriter, _ *http.Request) { w.Write(red) })
	mux.HandleFunc("/blue.bmp", func(w http.ResponseWriter, _ *http.Request) { w.Write(bmpBuf.Bytes()) })
	mux.HandleFunc("/base.png", func(w http.ResponseWriter, _ *http.Request) { w.Write(base) })
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("not an image")) })
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDecodes(t *testing.T) {
	srv := newImageServer(t)
	l := NewLoader(WithHTTPClient(srv.Client()))

	tests := []struct {
		path string
		w, h uint32
		rgba [4]byte
	}{
		{"/red.png", 4, 2, [4]byte{255, 0, 0, 255}},
		{"/blue.bmp", 3, 3, [4]byte{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			img, err := l.Fetch(context.Background(), srv.URL+tt.path)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if img.Width != tt.w || img.Height != tt.h {
				t.Fatalf("size = %dx%d", img.Width, img.Height)
			}
			if got := [4]byte(img.Pixels[:4]); got != tt.rgba {
				t.Errorf("first pixel = %v, want %v", got, tt.rgba)
			}
		})
	}
}

func TestFetchErrors(t *testing.T) {
	srv := newImageServer(t)
	l := NewLoader(WithHTTPClient(srv.Client()))

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"not found", srv.URL + "/missing.png", http.StatusNotFound},
		{"undecodable", srv.URL + "/garbage", 0},
		{"unsupported scheme", "ftp://example.com/a.png", 0},
		{"missing file", filepath.Join(t.TempDir(), "nope.png"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Fetch(context.Background(), tt.url)
			var fe *common.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want *common.FetchError", err)
			}
			if fe.Status != tt.status {
				t.Errorf("Status = %d, want %d", fe.Status, tt.status)
			}
			if common.IsCancelled(err) {
				t.Error("failure misreported as cancellation")
			}
		})
	}
}

func TestFetchCancelled(t *testing.T) {
	srv := newImageServer(t)
	l := NewLoader(WithHTTPClient(srv.Client()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := l.Fetch(ctx, srv.URL+"/slow")
	if !errors.Is(err, common.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tile.png")
	if err := os.WriteFile(path, encodePNG(t, solid(2, 2, color.RGBA{1, 2, 3, 255})), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader()

	for _, u := range []string{path, "file://" + path} {
		img, err := l.Fetch(context.Background(), u)
		if err != nil {
			t.Fatalf("Fetch(%q): %v", u, err)
		}
		if img.Width != 2 || img.Pixels[0] != 1 {
			t.Errorf("Fetch(%q) = %dx%d %v", u, img.Width, img.Height, img.Pixels[:4])
		}
	}
}

func TestLoadBaseDownscales(t *testing.T) {
	srv := newImageServer(t)
	l := NewLoader(WithHTTPClient(srv.Client()), WithMaxTextureSize(16))

	base, err := l.LoadBase(context.Background(), srv.URL+"/base.png")
	if err != nil {
		t.Fatalf("LoadBase: %v", err)
	}
	if base.Image.Width != 16 || base.Image.Height != 8 {
		t.Errorf("texture = %dx%d, want 16x8", base.Image.Width, base.Image.Height)
	}
	want := common.PanoData{FullWidth: 64, FullHeight: 32, CroppedWidth: 64, CroppedHeight: 32}
	if base.PanoData != want {
		t.Errorf("PanoData = %+v, want %+v", base.PanoData, want)
	}

	if _, err := l.LoadBase(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("missing base image should fail")
	}
}

func TestMergePanoData(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		explicit *common.PanoData
		want     common.PanoData
	}{
		{
			name: "full panorama",
			w:    4000, h: 2000,
			want: common.PanoData{FullWidth: 4000, FullHeight: 2000, CroppedWidth: 4000, CroppedHeight: 2000},
		},
		{
			name: "vertically cropped",
			w:    4000, h: 1000,
			want: common.PanoData{FullWidth: 4000, FullHeight: 2000, CroppedWidth: 4000, CroppedHeight: 1000, CroppedY: 500},
		},
		{
			name: "horizontally cropped",
			w:    1000, h: 1000,
			want: common.PanoData{FullWidth: 2000, FullHeight: 1000, CroppedWidth: 1000, CroppedHeight: 1000, CroppedX: 500},
		},
		{
			name: "explicit full height only",
			w:    1000, h: 500,
			explicit: &common.PanoData{FullHeight: 1000, CroppedX: 100, CroppedY: 200},
			want:     common.PanoData{FullWidth: 2000, FullHeight: 1000, CroppedWidth: 1000, CroppedHeight: 500, CroppedX: 100, CroppedY: 200},
		},
		{
			name: "incoherent explicit data is corrected",
			w:    1000, h: 500,
			explicit: &common.PanoData{FullWidth: 2000, FullHeight: 700, CroppedX: 1500, CroppedY: -3, PoseHeading: 1},
			want:     common.PanoData{FullWidth: 2000, FullHeight: 1000, CroppedWidth: 1000, CroppedHeight: 500, CroppedX: 1000, CroppedY: 0, PoseHeading: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergePanoData(tt.w, tt.h, tt.explicit); got != tt.want {
				t.Errorf("MergePanoData = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDownscale(t *testing.T) {
	img := solid(100, 50, color.RGBA{10, 20, 30, 255})
	if Downscale(img, 200) != image.Image(img) {
		t.Error("image within limit should be returned unchanged")
	}
	out := Downscale(img, 40)
	if b := out.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("bounds = %v, want 40x20", b)
	}
	if r, g, b, _ := out.At(20, 10).RGBA(); r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("scaled colour = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestLoadBaseExplicitPanoData(t *testing.T) {
	srv := newImageServer(t)
	explicit := common.PanoData{FullWidth: 128, FullHeight: 64, CroppedX: 32, CroppedY: 16, PoseHeading: 0.5}
	l := NewLoader(WithHTTPClient(srv.Client()), WithPanoData(explicit))

	base, err := l.LoadBase(context.Background(), srv.URL+"/base.png")
	if err != nil {
		t.Fatalf("LoadBase: %v", err)
	}
	want := common.PanoData{
		FullWidth:     128,
		FullHeight:    64,
		CroppedWidth:  64,
		CroppedHeight: 32,
		CroppedX:      32,
		CroppedY:      16,
		PoseHeading:   0.5,
	}
	if base.PanoData != want {
		t.Errorf("PanoData = %+v, want %+v", base.PanoData, want)
	}
}

func TestFetchMaxBytes(t *testing.T) {
	srv := newImageServer(t)

	tests := []struct {
		name    string
		limit   int64
		wantErr bool
	}{
		{"default limit", 0, false},
		{"body truncated", 16, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(WithHTTPClient(srv.Client()), WithMaxBytes(tt.limit))
			_, err := l.Fetch(context.Background(), srv.URL+"/red.png")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fetch error = %v, wantErr %v", err, tt.wantErr)
			}
			var fe *common.FetchError
			if tt.wantErr && !errors.As(err, &fe) {
				t.Errorf("error = %T, want *common.FetchError", err)
			}
		})
	}
}

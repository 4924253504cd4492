package displayreg

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

type fakeDevice struct {
	info Info
}

func (f *fakeDevice) String() string {
	return "fake"
}

func (f *fakeDevice) Halt() error {
	return nil
}

func (f *fakeDevice) ColorModel() color.Model {
	return color.RGBAModel
}

func (f *fakeDevice) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(f.info.Width), int(f.info.Height))
}

func (f *fakeDevice) Draw(image.Rectangle, image.Image, image.Point) error {
	return nil
}

func (f *fakeDevice) Info() Info {
	return f.info
}

func TestRegisterLookup(t *testing.T) {
	d := &fakeDevice{info: Info{Width: 160, Height: 128, BitsPerPixel: 16, PixelFormat: PixelFormatRGB565}}
	if err := Register("lcd", d); err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer Unregister("lcd")

	got := ByName("lcd")
	if got == nil {
		t.Fatal("ByName returned nil")
	}
	if got.Info() != d.info {
		t.Errorf("Info() = %+v, want %+v", got.Info(), d.info)
	}
	if ByName("missing") != nil {
		t.Error("ByName(missing) should be nil")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	d := &fakeDevice{}
	if err := Register("dup", d); err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer Unregister("dup")

	if err := Register("dup", d); !errors.Is(err, ErrExists) {
		t.Errorf("second Register error = %v, want ErrExists", err)
	}
}

func TestRegisterInvalid(t *testing.T) {
	if err := Register("", &fakeDevice{}); err == nil {
		t.Error("Register with empty name should fail")
	}
	if err := Register("nil", nil); err == nil {
		t.Error("Register with nil device should fail")
	}
}

func TestUnregister(t *testing.T) {
	if err := Unregister("never"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unregister(never) = %v, want ErrNotFound", err)
	}
	if err := Register("tmp", &fakeDevice{}); err != nil {
		t.Fatal(err)
	}
	if err := Unregister("tmp"); err != nil {
		t.Errorf("Unregister(tmp) = %v", err)
	}
	if ByName("tmp") != nil {
		t.Error("device still registered after Unregister")
	}
}

func TestAllSorted(t *testing.T) {
	for _, name := range []string{"b", "a", "c"} {
		if err := Register(name, &fakeDevice{}); err != nil {
			t.Fatal(err)
		}
		defer Unregister(name)
	}
	got := All()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("All() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPixelFormatString(t *testing.T) {
	if s := PixelFormatRGB565.String(); s != "RGB565" {
		t.Errorf("String() = %q", s)
	}
	if s := PixelFormatUnknown.String(); s != "Unknown" {
		t.Errorf("String() = %q", s)
	}
}

package exifx

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/John-Robertt/PMO/internal/domain"
)

func TestNormalize_AllMissing_Fallbacks(t *testing.T) {
	m, err := Normalize(domain.TagSet{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	want := domain.PhotoMeta{
		Camera:   "Unknown Camera",
		Lens:     "Unknown Lens",
		Aperture: "f/?",
		Shutter:  "?s",
		ISO:      "ISO ?",
		DateTime: "Unknown Date",
	}
	if m != want {
		t.Fatalf("回退字面量不一致：got=%+v want=%+v", m, want)
	}
}

func TestNormalize_Camera(t *testing.T) {
	cases := []struct {
		name string
		ts   domain.TagSet
		want string
	}{
		{"make+model", domain.TagSet{"Make": "Canon", "Model": "EOS 40D"}, "Canon EOS 40D"},
		{"仅 model", domain.TagSet{"Model": "EOS 40D"}, "EOS 40D"},
		{"仅 make", domain.TagSet{"Make": "Canon"}, "Unknown Camera"},
		{"都缺失", domain.TagSet{}, "Unknown Camera"},
		{"带空白", domain.TagSet{"Make": " Canon ", "Model": " EOS 40D "}, "Canon EOS 40D"},
	}
	for _, c := range cases {
		m, err := Normalize(c.ts)
		if err != nil {
			t.Fatalf("%s：不期望错误：%v", c.name, err)
		}
		if m.Camera != c.want {
			t.Fatalf("%s：camera=%q 期望 %q", c.name, m.Camera, c.want)
		}
	}
}

func TestNormalize_Aperture(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"8/1", "f/8.0"},
		{"28/10", "f/2.8"},
		{"4", "f/4"},
		{"", "f/?"},
		{"8/0", "f/?"}, // 除零退化为回退，不中止
	}
	for _, c := range cases {
		ts := domain.TagSet{}
		if c.raw != "" {
			ts["FNumber"] = c.raw
		}
		m, err := Normalize(ts)
		if err != nil {
			t.Fatalf("FNumber=%q：不期望错误：%v", c.raw, err)
		}
		if m.Aperture != c.want {
			t.Fatalf("FNumber=%q：aperture=%q 期望 %q", c.raw, m.Aperture, c.want)
		}
	}
}

func TestNormalize_ShutterAndISO(t *testing.T) {
	m, err := Normalize(domain.TagSet{"ExposureTime": "1/100", "ISOSpeedRatings": "200"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if m.Shutter != "1/100s" {
		t.Fatalf("shutter=%q 期望 %q", m.Shutter, "1/100s")
	}
	if m.ISO != "ISO 200" {
		t.Fatalf("iso=%q 期望 %q", m.ISO, "ISO 200")
	}
}

func TestNormalize_DateTime(t *testing.T) {
	m, err := Normalize(domain.TagSet{"DateTimeOriginal": "2008:05:30 15:56:01"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if m.DateTime != "2008-05-30 15:56:01" {
		t.Fatalf("datetime=%q 期望 %q", m.DateTime, "2008-05-30 15:56:01")
	}
}

func TestNormalize_DateTimeMalformed(t *testing.T) {
	for _, raw := range []string{"2008:05:30", "2008:05:30 15:56:01 extra"} {
		_, err := Normalize(domain.TagSet{"DateTimeOriginal": raw})
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("raw=%q：期望 FormatError，实际 err=%v", raw, err)
		}
		if fe.Tag != "DateTimeOriginal" {
			t.Fatalf("raw=%q：FormatError.Tag=%q", raw, fe.Tag)
		}
	}
}

func TestDecodeTags_JPEGWithoutEXIF(t *testing.T) {
	// 纯 jpeg.Encode 的输出不含 EXIF 块：容器可识别，标签应为空集而不是错误。
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}

	ts, err := DecodeTags(buf.Bytes())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(ts) != 0 {
		t.Fatalf("期望空标签集，实际=%v", ts)
	}
}

func TestDecodeTags_NotAnImage(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("not an image at all")} {
		_, err := DecodeTags(raw)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("期望 DecodeError，实际 err=%v", err)
		}
	}
}

package run

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/John-Robertt/PMO/internal/config"
	"github.com/John-Robertt/PMO/internal/domain"
)

func sampleJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{60, 120, 180, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	return buf.Bytes()
}

func TestExecute_Success_WritesOverlayJPEG(t *testing.T) {
	payload := sampleJPEG(t, 100, 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "result.jpg")
	rr := Execute(context.Background(), config.EffectiveConfig{
		URL:     srv.URL,
		Output:  out,
		Timeout: 10 * time.Second,
	})

	if rr.Status != domain.StatusOK {
		t.Fatalf("期望成功：%+v", rr)
	}
	if rr.Width != 100 || rr.Height != 100 {
		t.Fatalf("report 尺寸=%dx%d 期望 100x100", rr.Width, rr.Height)
	}
	if rr.Font == "" {
		t.Fatalf("report 应标注生效字体")
	}

	// 合成图不含 EXIF：六个字段必须全部是回退字面量。
	wantMeta := domain.PhotoMeta{
		Camera:   "Unknown Camera",
		Lens:     "Unknown Lens",
		Aperture: "f/?",
		Shutter:  "?s",
		ISO:      "ISO ?",
		DateTime: "Unknown Date",
	}
	if rr.Meta != wantMeta {
		t.Fatalf("meta=%+v 期望全部回退", rr.Meta)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("输出文件缺失：%v", err)
	}
	got, err := jpeg.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("输出不是合法 JPEG：%v", err)
	}
	if got.Bounds().Dx() != 100 || got.Bounds().Dy() != 100 {
		t.Fatalf("输出尺寸=%v 期望 100x100", got.Bounds())
	}
}

func TestExecute_ServerError_NoOutputFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "result.jpg")
	rr := Execute(context.Background(), config.EffectiveConfig{
		URL:     srv.URL,
		Output:  out,
		Timeout: 10 * time.Second,
	})

	if rr.Status != domain.StatusFailed || rr.ErrorCode != domain.ErrCodeFetchFailed {
		t.Fatalf("期望 fetch_failed：%+v", rr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("失败的 run 不应留下输出文件：Stat err=%v", err)
	}
}

func TestExecute_Timeout_Classified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	rr := Execute(context.Background(), config.EffectiveConfig{
		URL:     srv.URL,
		Output:  filepath.Join(t.TempDir(), "result.jpg"),
		Timeout: 30 * time.Millisecond,
	})

	if rr.ErrorCode != domain.ErrCodeFetchTimeout {
		t.Fatalf("期望 fetch_timeout：%+v", rr)
	}
}

func TestExecute_NotAnImage_DecodeFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not an image</html>"))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "result.jpg")
	rr := Execute(context.Background(), config.EffectiveConfig{
		URL:     srv.URL,
		Output:  out,
		Timeout: 10 * time.Second,
	})

	if rr.ErrorCode != domain.ErrCodeDecodeFailed {
		t.Fatalf("期望 decode_failed：%+v", rr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("失败的 run 不应留下输出文件：Stat err=%v", err)
	}
}

func TestExecute_MissingOutputDir_IOFailed(t *testing.T) {
	payload := sampleJPEG(t, 32, 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	rr := Execute(context.Background(), config.EffectiveConfig{
		URL:     srv.URL,
		Output:  filepath.Join(t.TempDir(), "no-such-dir", "result.jpg"),
		Timeout: 10 * time.Second,
	})

	if rr.ErrorCode != domain.ErrCodeIOFailed {
		t.Fatalf("期望 io_failed：%+v", rr)
	}
}

type recordingObserver struct {
	started bool
	stages  []string
	done    *domain.RunReport
}

func (o *recordingObserver) OnStart(config.EffectiveConfig) { o.started = true }
func (o *recordingObserver) OnStage(name string, _ time.Duration) {
	o.stages = append(o.stages, name)
}
func (o *recordingObserver) OnDone(rr domain.RunReport) { o.done = &rr }

func TestExecuteWithObserver_StageOrder(t *testing.T) {
	payload := sampleJPEG(t, 40, 30)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	rr := ExecuteWithObserver(context.Background(), config.EffectiveConfig{
		URL:     srv.URL,
		Output:  filepath.Join(t.TempDir(), "result.jpg"),
		Timeout: 10 * time.Second,
	}, obs)

	if !obs.started {
		t.Fatalf("OnStart 未触发")
	}
	want := []string{StageFetch, StageExtract, StageRender, StageWrite}
	if len(obs.stages) != len(want) {
		t.Fatalf("阶段事件=%v 期望 %v", obs.stages, want)
	}
	for i := range want {
		if obs.stages[i] != want[i] {
			t.Fatalf("阶段事件=%v 期望 %v", obs.stages, want)
		}
	}
	if obs.done == nil || obs.done.Status != rr.Status {
		t.Fatalf("OnDone 未携带最终 report：%+v", obs.done)
	}
}

package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"silicon-chat-go/internal/config"
	"silicon-chat-go/internal/model"
)

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxImageBytes: 4 * 1024 * 1024,
		MaxAudioBytes: 10 * 1024 * 1024,
		MaxVideoBytes: 50 * 1024 * 1024,
	}
}

// fileHeader 构造一个携带指定内容的 multipart.FileHeader。
func fileHeader(t *testing.T, name string, size int) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(bytes.Repeat([]byte{0xAB}, size)); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(64 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestUploadImage(t *testing.T) {
	svc := NewUploadService(testUploadConfig(), nil)
	res, err := svc.Process(context.Background(), UploadKindImage, fileHeader(t, "photo.PNG", 128))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.DataURI, "data:image/png;base64,") {
		t.Errorf("data uri = %q", res.DataURI[:40])
	}
	if res.FileSize != 128 || res.MimeType != "image/png" {
		t.Errorf("res = %+v", res)
	}
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	svc := NewUploadService(testUploadConfig(), nil)
	_, err := svc.Process(context.Background(), UploadKindImage, fileHeader(t, "script.exe", 10))
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "不支持的图片格式") {
		t.Errorf("message = %q", err.Error())
	}
}

// 恰好等于上限的文件被接受，超出一个字节即拒绝。
func TestUploadSizeBoundary(t *testing.T) {
	cfg := testUploadConfig()
	cfg.MaxAudioBytes = 1024 // 用小上限避免测试里分配 10MB
	svc := NewUploadService(cfg, nil)

	if _, err := svc.Process(context.Background(), UploadKindAudio, fileHeader(t, "voice.mp3", 1024)); err != nil {
		t.Errorf("exactly-at-limit rejected: %v", err)
	}

	_, err := svc.Process(context.Background(), UploadKindAudio, fileHeader(t, "voice.mp3", 1025))
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "音频文件过大") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestUploadUnknownKind(t *testing.T) {
	svc := NewUploadService(testUploadConfig(), nil)
	_, err := svc.Process(context.Background(), "document", fileHeader(t, "a.pdf", 10))
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestUploadLimits(t *testing.T) {
	svc := NewUploadService(testUploadConfig(), nil)
	limits := svc.Limits()
	if limits[UploadKindImage] != 4*1024*1024 || limits[UploadKindVideo] != 50*1024*1024 {
		t.Errorf("limits = %v", limits)
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"silicon-chat-go/internal/model"
)

type stubASR struct {
	text  string
	err   error
	calls int
}

func (s *stubASR) Transcribe(ctx context.Context, audioDataURI, language string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestTranscribeRejectsNonAudioURI(t *testing.T) {
	svc := NewTranscribeService(&stubASR{})
	_, err := svc.Transcribe(context.Background(), "data:image/png;base64,AAAA", "")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestTranscribe(t *testing.T) {
	svc := NewTranscribeService(&stubASR{text: "你好世界"})
	text, err := svc.Transcribe(context.Background(), "data:audio/wav;base64,AAAA", "zh")
	if err != nil || text != "你好世界" {
		t.Fatalf("text = %q err = %v", text, err)
	}
}

// 客户端自带的转写文本优先，服务端不再调用 ASR。
func TestProcessRecordingClientTranscriptWins(t *testing.T) {
	asrStub := &stubASR{text: "服务端转写"}
	svc := NewTranscribeService(asrStub)

	res, err := svc.ProcessRecording(context.Background(), RecordRequest{
		AudioData:  "data:audio/webm;base64,AAAA",
		Transcribe: true,
		Transcript: "客户端转写",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Transcript != "客户端转写" {
		t.Errorf("transcript = %q", res.Transcript)
	}
	if asrStub.calls != 0 {
		t.Errorf("asr called %d times, want 0", asrStub.calls)
	}
}

func TestProcessRecordingServerTranscription(t *testing.T) {
	svc := NewTranscribeService(&stubASR{text: "服务端转写"})
	res, err := svc.ProcessRecording(context.Background(), RecordRequest{
		AudioData:  "data:audio/webm;base64,AAAA",
		Transcribe: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Transcript != "服务端转写" || res.DataURI == "" {
		t.Errorf("res = %+v", res)
	}
}

// 转写失败不让录音上传失败。
func TestProcessRecordingTranscriptionFailureTolerated(t *testing.T) {
	svc := NewTranscribeService(&stubASR{err: errors.New("asr down")})
	res, err := svc.ProcessRecording(context.Background(), RecordRequest{
		AudioData:  "data:audio/webm;base64,AAAA",
		Transcribe: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Transcript != "" {
		t.Errorf("transcript = %q", res.Transcript)
	}
}

func TestProcessRecordingInvalidURI(t *testing.T) {
	svc := NewTranscribeService(&stubASR{})
	_, err := svc.ProcessRecording(context.Background(), RecordRequest{AudioData: "nope"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

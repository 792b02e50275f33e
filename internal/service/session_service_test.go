package service

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"silicon-chat-go/internal/model"
	"silicon-chat-go/internal/repository"
	"silicon-chat-go/pkg/database"
)

func newSessionService(t *testing.T) (SessionService, repository.MessageRepository) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	messageRepo := repository.NewMessageRepository(db)
	return NewSessionService(repository.NewSessionRepository(db), messageRepo), messageRepo
}

func TestSessionCreateDefaultTitle(t *testing.T) {
	svc, _ := newSessionService(t)
	s, err := svc.Create("", "")
	if err != nil {
		t.Fatal(err)
	}
	if s.ID == "" {
		t.Error("id not generated")
	}
	if !strings.HasPrefix(s.Title, "对话 ") {
		t.Errorf("title = %q", s.Title)
	}
}

func TestSessionCreateExplicitTitle(t *testing.T) {
	svc, _ := newSessionService(t)
	s, err := svc.Create("旅行规划", "deepseek-ai/DeepSeek-V2.5")
	if err != nil {
		t.Fatal(err)
	}
	if s.Title != "旅行规划" || s.Model != "deepseek-ai/DeepSeek-V2.5" {
		t.Errorf("session = %+v", s)
	}
}

func TestSessionUpdateTitleValidation(t *testing.T) {
	svc, _ := newSessionService(t)
	s, _ := svc.Create("a", "")

	if err := svc.UpdateTitle(s.ID, ""); !errors.Is(err, model.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if err := svc.UpdateTitle(s.ID, "新标题"); err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestSessionGetWithMessages(t *testing.T) {
	svc, messageRepo := newSessionService(t)
	s, _ := svc.Create("a", "")

	m := model.Message{SessionID: s.ID, Role: model.RoleUser, Content: "hi", ContentType: model.ContentTypeText}
	if err := messageRepo.Append(&m); err != nil {
		t.Fatal(err)
	}

	detail, err := svc.Get(s.ID, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Session.ID != s.ID || len(detail.Messages) != 1 {
		t.Fatalf("detail = %+v", detail)
	}
}

func TestSessionGetNotFound(t *testing.T) {
	svc, _ := newSessionService(t)
	if _, err := svc.Get("missing", 0, 0); !errors.Is(err, model.ErrSessionNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestSessionArchiveHidesFromList(t *testing.T) {
	svc, _ := newSessionService(t)
	a, _ := svc.Create("a", "")
	if _, err := svc.Create("b", ""); err != nil {
		t.Fatal(err)
	}

	if err := svc.Archive(a.ID); err != nil {
		t.Fatal(err)
	}
	sessions, err := svc.List(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Title != "b" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestSearchMessagesValidation(t *testing.T) {
	svc, _ := newSessionService(t)
	if _, err := svc.SearchMessages("", "", 10); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

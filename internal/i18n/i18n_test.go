package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "MsgTestSubmitted"); got != "Test submitted successfully" {
		t.Errorf("T(MsgTestSubmitted) = %q, want 'Test submitted successfully'", got)
	}
	if got := T(ctx, "ErrInvalidCredentials"); got != "Invalid username or password" {
		t.Errorf("T(ErrInvalidCredentials) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	if got := T(ctx, "MsgTestSubmitted"); got != "Тест отправлен" {
		t.Errorf("T(MsgTestSubmitted) = %q, want 'Тест отправлен'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "MsgTestAssigned", 1); got != "Test assigned to 1 student" {
		t.Errorf("Tp(MsgTestAssigned, 1) = %q", got)
	}
	if got := Tp(ctx, "MsgTestAssigned", 3); got != "Test assigned to 3 students" {
		t.Errorf("Tp(MsgTestAssigned, 3) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ErrNotFound", map[string]any{"Entity": "Test"})
	if got != "Test not found" {
		t.Errorf("Td(ErrNotFound) = %q, want 'Test not found'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestNegotiate(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"ru-RU,ru;q=0.9,en;q=0.8", "ru"},
		{"en-US", "en"},
		{"de-DE", "en"},
		{"not a header;;", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := Negotiate(tt.header); got.String() != tt.want {
				t.Errorf("Negotiate(%q) = %s, want %s", tt.header, got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "ErrForbidden")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got != "Недостаточно прав для выполнения действия" {
		t.Errorf("localized detail = %q", got)
	}
	if cl := rec.Header().Get("Content-Language"); cl != "ru" {
		t.Errorf("Content-Language = %q, want ru", cl)
	}
}

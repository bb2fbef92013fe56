package router

import (
	"errors"
	"fmt"
	"testing"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/travelbot/core/telegram"
	"github.com/m3rciful/travelbot/core/telegram/commands"
)

type stubContext struct {
	tele.Context
	text   string
	user   *tele.User
	values map[string]any
}

func newStub(text string, userID int64) *stubContext {
	return &stubContext{text: text, user: &tele.User{ID: userID}, values: map[string]any{}}
}

func (s *stubContext) Text() string          { return s.text }
func (s *stubContext) Sender() *tele.User    { return s.user }
func (s *stubContext) Chat() *tele.Chat      { return &tele.Chat{ID: s.user.ID} }
func (s *stubContext) Update() tele.Update   { return tele.Update{ID: 1} }
func (s *stubContext) Get(key string) any    { return s.values[key] }
func (s *stubContext) Set(key string, v any) { s.values[key] = v }

func routeFor(routes []tg.Route, endpoint any) tele.HandlerFunc {
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	return nil
}

func TestTextRoutesPreferCommands(t *testing.T) {
	var got []string
	reg := tg.NewRegistry()
	reg.RegisterCommand("/help", commands.Command{Handler: func(tele.Context) error {
		got = append(got, "help")
		return nil
	}})
	reg.SetTextFallback(func(tele.Context) error {
		got = append(got, "text")
		return nil
	})

	h := routeFor(TextRoutes(reg, TextOptions{}), tele.OnText)
	if h == nil {
		t.Fatal("no text route")
	}
	for _, in := range []string{"/help", "help", "куда поехать?"} {
		if err := h(newStub(in, 1)); err != nil {
			t.Fatalf("handle %q: %v", in, err)
		}
	}
	want := []string{"help", "text", "text"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("dispatch = %v, want %v", got, want)
	}
}

func TestTextRoutesNonText(t *testing.T) {
	called := 0
	routes := TextRoutes(nil, TextOptions{NonText: func(tele.Context) error {
		called++
		return nil
	}})
	if len(routes) != 7 {
		t.Fatalf("routes = %d, want 7", len(routes))
	}
	for _, ep := range []string{tele.OnPhoto, tele.OnSticker, tele.OnVoice} {
		if err := routeFor(routes, ep)(newStub("", 1)); err != nil {
			t.Fatalf("%s: %v", ep, err)
		}
	}
	if called != 3 {
		t.Fatalf("non-text handler called %d times, want 3", called)
	}
}

func TestCommandRoutesAdminOnly(t *testing.T) {
	var ran, rejected int
	reg := tg.NewRegistry()
	reg.RegisterCommand("/stats", commands.Command{
		Handler:   func(tele.Context) error { ran++; return nil },
		AdminOnly: true,
	})
	routes := CommandRoutes(reg, CommandRouteOptions{
		AdminID:       10,
		OnAdminReject: func(tele.Context) error { rejected++; return nil },
	})
	h := routeFor(routes, "/stats")
	if h == nil {
		t.Fatal("no /stats route")
	}
	_ = h(newStub("/stats", 11))
	_ = h(newStub("/stats", 10))
	if ran != 1 || rejected != 1 {
		t.Fatalf("ran = %d, rejected = %d; want 1 and 1", ran, rejected)
	}
}

type codedError struct{}

func (codedError) Error() string { return "coded" }
func (codedError) Code() string  { return "rate limited" }

func TestErrorCodeAndHandlerName(t *testing.T) {
	if got := errorCode(fmt.Errorf("wrap: %w", codedError{})); got != "RATE_LIMITED" {
		t.Fatalf("errorCode = %s", got)
	}
	if got := errorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("errorCode = %s", got)
	}
	if got := handlerName("/Help me"); got != "help_me" {
		t.Fatalf("handlerName = %s", got)
	}
}

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/auth"
	"github.com/doceeser/orderboard/internal/board"
	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/notify"
)

const wrongPasswordMessage = "Senha incorreta."

type loginView struct {
	Error string
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if h.gate.Session(r).Authenticated {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "login", loginView{})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	session, token, err := h.gate.Login(r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidPassword) {
			h.logger.WithError(err).Error("failed to issue session token")
		}
		h.render(w, http.StatusUnauthorized, "login", loginView{Error: wrongPasswordMessage})
		return
	}
	h.gate.SetCookie(w, token, session.ExpiresAt)
	h.logger.WithField("sid", session.ID).Info("admin logged in")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// logout закрывает все живые сессии этого входа и удаляет cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	closed := h.registry.CloseOwner(session.ID)
	h.gate.ClearCookie(w)
	h.logger.WithFields(log.Fields{"sid": session.ID, "closed_sessions": closed}).Info("admin logged out")
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (h *Handler) denied(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.URL.Path != "/admin/events" {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
}

// boardPage отдаёт оболочку панели. Данные приходят через /admin/events.
func (h *Handler) boardPage(w http.ResponseWriter, _ *http.Request) {
	b := board.New()
	b.SetLoading(true)
	h.render(w, http.StatusOK, "page", b.View())
}

// events держит живую сессию, пока открыт поток. Закрытие потока отменяет подписку.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	stream, ok := newEventWriter(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	permission := notify.ParsePermission(r.URL.Query().Get("notifications"))
	live := h.registry.Open(r.Context(), session.ID, permission)
	defer h.registry.Close(live.ID())

	if filter := r.URL.Query().Get("filter"); filter != "" {
		if err := live.Board().SetFilter(filter); err != nil {
			h.logger.WithField("filter", filter).Debug("ignoring unknown filter")
		}
	}

	if err := stream.JSON("session", map[string]string{"id": live.ID()}); err != nil {
		return
	}
	if err := h.sendBoard(stream, live.Board()); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case <-live.Done():
			_ = stream.Event("closed", "{}")
			return
		case <-live.Board().Changes():
			err = h.sendBoard(stream, live.Board())
		case alert := <-live.Alerts():
			switch alert.Kind {
			case board.AlertNotification:
				err = stream.JSON("notification", alert.Notification)
			case board.AlertSound:
				err = stream.Event("sound", "{}")
			}
		case <-heartbeat.C:
			err = stream.Ping()
		}
		if err != nil {
			h.logger.WithError(err).WithField("session_id", live.ID()).Debug("event stream closed")
			return
		}
	}
}

func (h *Handler) sendBoard(stream *eventWriter, b *board.Board) error {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "board", b.View()); err != nil {
		return err
	}
	return stream.Event("board", buf.String())
}

func (h *Handler) liveSession(w http.ResponseWriter, r *http.Request) (*board.LiveSession, bool) {
	session, _ := auth.FromContext(r.Context())
	live, ok := h.registry.Get(chi.URLParam(r, "sessionID"))
	if !ok || live.Owner() != session.ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return live, true
}

func (h *Handler) setFilter(w http.ResponseWriter, r *http.Request) {
	live, ok := h.liveSession(w, r)
	if !ok {
		return
	}
	if err := live.Board().SetFilter(r.FormValue("filter")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dismissBanner(w http.ResponseWriter, r *http.Request) {
	live, ok := h.liveSession(w, r)
	if !ok {
		return
	}
	live.DismissBanner()
	w.WriteHeader(http.StatusNoContent)
}

// setStatus записывает статус. Успешный ответ не несёт нового состояния:
// доска обновится следующим снимком ленты.
func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	status, err := domain.ParseOrderStatus(r.FormValue("status"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	err = h.mutator.SetStatus(r.Context(), orderID, status)
	var alert *board.OperatorAlert
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.As(err, &alert):
		writeJSON(w, http.StatusBadGateway, map[string]string{"alert": alert.Message})
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrOrderIDRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.WithError(err).WithField("template", name).Error("failed to render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

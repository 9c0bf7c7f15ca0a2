package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/okian/livescore/internal/adapters/http/api"
	service "github.com/okian/livescore/internal/app"
	"github.com/okian/livescore/internal/domain/auth"
	"github.com/okian/livescore/internal/domain/reconcile"
	"github.com/okian/livescore/internal/domain/types"
	"github.com/okian/livescore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const reportTemplate = `<?xml version="1.0"?>
<dynamicresults>
  <contest>CQWW</contest>
  <call>W1AW</call>
  <ops>W1AW N1ABC K1XX</ops>
  <score>%d</score>
  <timestamp>2020-11-28 14:30:00</timestamp>
  <breakdown>
    <qso band="total" mode="ALL">55</qso>
    <point band="total" mode="ALL">140</point>
    <mult band="total" mode="ALL" type="zone">120</mult>
  </breakdown>
</dynamicresults>`

func reportBody(score int) io.Reader {
	return strings.NewReader(url.PathEscape(fmt.Sprintf(reportTemplate, score)))
}

// spyDeps records whether ingestion was reached.
type spyDeps struct {
	submits int
}

func (s *spyDeps) Authenticate(_ context.Context, handle, password string) (auth.Identity, error) {
	switch {
	case handle != "W1AW":
		return auth.Identity{}, auth.ErrUnknownHandle
	case password != "secret":
		return auth.Identity{}, auth.ErrWrongPassword
	}
	return auth.Identity{UserID: 1, Handle: handle}, nil
}

func (s *spyDeps) Submit(context.Context, int64, []byte) (reconcile.Outcome, error) {
	s.submits++
	return reconcile.Inserted, nil
}

func (s *spyDeps) Scoreboard(context.Context) ([]types.ScoreboardEntry, error) {
	return []types.ScoreboardEntry{}, nil
}

func (s *spyDeps) Register(context.Context, string, string) (types.Registration, error) {
	return types.Registration{}, errors.New("unavailable")
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &spyDeps{}
		server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}})
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		Convey("Then the health endpoint serves metrics", func() {
			w := serve(mux, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint serves JSON", func() {
			w := serve(mux, httptest.NewRequest(http.MethodGet, "/stats", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then unknown paths are not found", func() {
			w := serve(mux, httptest.NewRequest(http.MethodPost, "/unknown", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then the wrong method is refused before authentication", func() {
			w := serve(mux, httptest.NewRequest(http.MethodGet, "/", nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
			So(deps.submits, ShouldEqual, 0)
		})

		Convey("Then every request gets a request id", func() {
			w := serve(mux, httptest.NewRequest(http.MethodGet, "/scoreboard", nil))
			So(w.Header().Get(api.HeaderRequestID), ShouldNotBeEmpty)

			req := httptest.NewRequest(http.MethodGet, "/scoreboard", nil)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w = serve(mux, req)
			So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
		})
	})
}

func TestSubmit_Authentication(t *testing.T) {
	Convey("Given a server in front of a spy", t, func() {
		deps := &spyDeps{}
		mux := http.NewServeMux()
		api.NewServer(deps, &mockStatsProvider{}).Register(context.Background(), mux)

		cases := []struct {
			name     string
			handle   string
			password string
			basic    bool
			want     string
		}{
			{"no credentials", "", "", false, "Login Failed: No Authentication"},
			{"unknown handle", "K1XX", "secret", true, "Login Failed: Invalid Username"},
			{"wrong password", "W1AW", "guess", true, "Login Failed: Incorrect Password"},
			{"an empty handle", "", "secret", true, "Login Failed: Invalid Username"},
		}
		for _, tc := range cases {
			Convey("When the request has "+tc.name, func() {
				req := httptest.NewRequest(http.MethodPost, "/", reportBody(1))
				if tc.basic {
					req.SetBasicAuth(tc.handle, tc.password)
				}
				w := serve(mux, req)

				Convey("Then it is refused in plain text and nothing is ingested", func() {
					So(w.Code, ShouldEqual, http.StatusUnauthorized)
					So(w.Body.String(), ShouldEqual, tc.want)
					So(w.Header().Get("WWW-Authenticate"), ShouldContainSubstring, "Basic")
					So(deps.submits, ShouldEqual, 0)
				})
			})
		}

		Convey("When the credentials are valid", func() {
			req := httptest.NewRequest(http.MethodPost, "/submit", reportBody(1))
			req.SetBasicAuth("W1AW", "secret")
			w := serve(mux, req)

			Convey("Then the report reaches ingestion", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "Thanks and 73!")
				So(deps.submits, ShouldEqual, 1)
			})
		})

		Convey("When registration fails unexpectedly", func() {
			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("callsign=W1AW&password=x"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := serve(mux, req)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func register(mux *http.ServeMux, handle, password string) *httptest.ResponseRecorder {
	form := url.Values{"callsign": {handle}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(mux, req)
}

func submit(mux *http.ServeMux, path, handle, password string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.SetBasicAuth(handle, password)
	return serve(mux, req)
}

func scoreboard(mux *http.ServeMux) []types.ScoreboardEntry {
	w := serve(mux, httptest.NewRequest(http.MethodGet, "/scoreboard", nil))
	So(w.Code, ShouldEqual, http.StatusOK)
	var entries []types.ScoreboardEntry
	So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
	return entries
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the API over a running service", t, func() {
		svc := service.New(service.WithBcryptCost(bcrypt.MinCost))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := http.NewServeMux()
		api.NewServer(svc, svc, api.WithMaxBodyBytes(4096)).Register(context.Background(), mux)

		w := register(mux, "w1aw", "secret")
		So(w.Code, ShouldEqual, http.StatusCreated)
		So(w.Body.String(), ShouldContainSubstring, `"handle":"W1AW"`)

		Convey("Then the scoreboard starts empty", func() {
			So(scoreboard(mux), ShouldBeEmpty)
		})

		Convey("When a report is submitted and then updated", func() {
			first := submit(mux, "/", "W1AW", "secret", reportBody(16800))
			second := submit(mux, "/submit", "w1aw", "secret", reportBody(20000))

			Convey("Then both are acknowledged and one row holds the latest score", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(first.Body.String(), ShouldEqual, "Thanks and 73!")
				So(second.Code, ShouldEqual, http.StatusOK)

				entries := scoreboard(mux)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Contest, ShouldEqual, "CQWW")
				So(entries[0].Callsign, ShouldEqual, "W1AW")
				So(entries[0].Operators, ShouldEqual, "W1AW, N1ABC, K1XX")
				So(entries[0].QSOs, ShouldEqual, 55)
				So(entries[0].Points, ShouldEqual, 140)
				So(entries[0].Mults, ShouldEqual, 120)
				So(entries[0].Score, ShouldEqual, 20000)
				So(entries[0].UpdatedAgo, ShouldNotBeEmpty)
			})
		})

		Convey("When the payload is malformed", func() {
			w := submit(mux, "/", "W1AW", "secret", strings.NewReader("%3Cdynamicresults%3E"))

			Convey("Then it is a bad request and nothing is stored", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(scoreboard(mux), ShouldBeEmpty)
			})
		})

		Convey("When the body exceeds the cap", func() {
			w := submit(mux, "/", "W1AW", "secret", strings.NewReader(strings.Repeat("a", 5000)))
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})

		Convey("When another submitter claims the same station", func() {
			So(submit(mux, "/", "W1AW", "secret", reportBody(100)).Code, ShouldEqual, http.StatusOK)
			So(register(mux, "K1XX", "pw").Code, ShouldEqual, http.StatusCreated)

			w := submit(mux, "/", "K1XX", "pw", reportBody(1))

			Convey("Then it conflicts and the owner's row stands", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(scoreboard(mux)[0].Score, ShouldEqual, 100)
			})
		})

		Convey("When the handle is registered twice", func() {
			w := register(mux, "W1AW", "other")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(w.Body.String(), ShouldContainSubstring, "user already exists")
		})

		Convey("When registration fields are empty", func() {
			So(register(mux, "", "pw").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Operation errors keep their kind and cause", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: boom")

		So(api.NewKind("api.op", api.ErrPayloadTooLarge).Error(), ShouldEqual, "api.op: payload too large")
		So(api.Wrap("api.op", nil), ShouldBeNil)
		So(errors.Is(api.Wrap("api.op", cause), cause), ShouldBeTrue)
	})
}

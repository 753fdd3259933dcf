package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/devfolio-backend/config"
	"github.com/rpupo63/devfolio-backend/database"
	"github.com/rpupo63/devfolio-backend/models"
	"github.com/rpupo63/devfolio-backend/ratelimit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testAPI struct {
	handler http.Handler
	db      database.Database
	clock   *fakeClock
}

func newTestDatabase(t *testing.T, now func() time.Time) database.Database {
	t.Helper()

	db, err := database.Open(config.Config{
		DBType:          config.DBSQLite,
		DatabaseURL:     ":memory:",
		DBSlowThreshold: time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.EnsureSchema(db))
	return database.New(db, database.WithClock(now))
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()

	clock := &fakeClock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	db := newTestDatabase(t, clock.Now)
	store := ratelimit.NewMemoryStore(ratelimit.WithClock(clock.Now))
	h := newRouter(db, WithRateLimitStore(store), WithClock(clock.Now))
	return testAPI{handler: h, db: db, clock: clock}
}

type response struct {
	Code    int             `json:"-"`
	Header  http.Header     `json:"-"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Count   *int            `json:"count"`
}

func (a testAPI) do(t *testing.T, method, path, body string) response {
	t.Helper()
	return serveRequest(t, a.handler, method, path, body)
}

func serveRequest(t *testing.T, h http.Handler, method, path, body string) response {
	t.Helper()

	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	res := response{Code: w.Code, Header: w.Header()}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res
}

type projectJSON struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    *string   `json:"imageUrl"`
	Tags        []string  `json:"tags"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// assertSameProject compares two renderings of one record; the stored
// timestamps may come back in a different zone.
func assertSameProject(t *testing.T, want, got projectJSON) {
	t.Helper()
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updatedAt %v != %v", want.UpdatedAt, got.UpdatedAt)
	want.CreatedAt, want.UpdatedAt = time.Time{}, time.Time{}
	got.CreatedAt, got.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, want, got)
}

func (r response) project(t *testing.T) projectJSON {
	t.Helper()
	var p projectJSON
	require.NoError(t, json.Unmarshal(r.Data, &p))
	return p
}

func (r response) projects(t *testing.T) []projectJSON {
	t.Helper()
	var ps []projectJSON
	require.NoError(t, json.Unmarshal(r.Data, &ps))
	return ps
}

func TestProjectLifecycle(t *testing.T) {
	a := newTestAPI(t)

	created := a.do(t, http.MethodPost, "/api/projects",
		`{"title":"Demo","description":"D","url":"https://a.test","tags":["go","api"]}`)
	require.Equal(t, http.StatusCreated, created.Code)
	assert.True(t, created.Success)
	assert.Equal(t, "Project created successfully", created.Message)
	p := created.project(t)
	assert.False(t, p.Featured)
	assert.Equal(t, []string{"go", "api"}, p.Tags)
	assert.Nil(t, p.ImageURL)
	require.NotEmpty(t, p.ID)
	assert.True(t, p.CreatedAt.Equal(a.clock.Now()))

	listed := a.do(t, http.MethodGet, "/api/projects?tags=go", "")
	require.Equal(t, http.StatusOK, listed.Code)
	require.NotNil(t, listed.Count)
	assert.Equal(t, 1, *listed.Count)
	assert.Equal(t, p.ID, listed.projects(t)[0].ID)

	got := a.do(t, http.MethodGet, "/api/projects/"+p.ID, "")
	require.Equal(t, http.StatusOK, got.Code)
	assertSameProject(t, p, got.project(t))

	deleted := a.do(t, http.MethodDelete, "/api/projects/"+p.ID, "")
	require.Equal(t, http.StatusOK, deleted.Code)
	assert.Equal(t, "Project deleted successfully", deleted.Message)
	assertSameProject(t, p, deleted.project(t))

	missing := a.do(t, http.MethodGet, "/api/projects/"+p.ID, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.False(t, missing.Success)
	assert.Equal(t, "Project not found", missing.Message)
	assert.Nil(t, missing.Data)
}

func TestCreateProject_Validation(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			name:      "missing required fields",
			body:      `{}`,
			wantError: "Project title is required; Project description is required; Project URL is required",
		},
		{
			name:      "whitespace title",
			body:      `{"title":"   ","description":"d","url":"https://a.test"}`,
			wantError: "Project title is required",
		},
		{
			name:      "title too long",
			body:      `{"title":"` + strings.Repeat("x", 101) + `","description":"d","url":"https://a.test"}`,
			wantError: "Title cannot exceed 100 characters",
		},
		{
			name:      "bad url",
			body:      `{"title":"t","description":"d","url":"a.test"}`,
			wantError: "Please provide a valid URL starting with http or https",
		},
		{
			name:      "too many tags",
			body:      `{"title":"t","description":"d","url":"https://a.test","tags":["1","2","3","4","5","6","7","8","9","10","11"]}`,
			wantError: "Cannot add more than 10 tags",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.do(t, http.MethodPost, "/api/projects", tt.body)
			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.False(t, res.Success)
			assert.Equal(t, "Failed to create project", res.Message)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Nil(t, res.Data)
		})
	}

	n, err := a.db.ProjectRepo().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateProject_TrimsAndDefaults(t *testing.T) {
	a := newTestAPI(t)

	res := a.do(t, http.MethodPost, "/api/projects",
		`{"title":"  Spaced  ","description":" d ","url":"http://a.test","imageUrl":"https://img.test/x.png","featured":true}`)
	require.Equal(t, http.StatusCreated, res.Code)
	p := res.project(t)
	assert.Equal(t, "Spaced", p.Title)
	assert.Equal(t, "d", p.Description)
	assert.Equal(t, []string{}, p.Tags)
	assert.True(t, p.Featured)
	require.NotNil(t, p.ImageURL)
	assert.Equal(t, "https://img.test/x.png", *p.ImageURL)
}

func TestRequestBodyGuards(t *testing.T) {
	a := newTestAPI(t)

	for _, body := range []string{`{"title":`, `["title"]`, `null`, `"x"`, `{} {}`} {
		res := a.do(t, http.MethodPost, "/api/projects", body)
		assert.Equal(t, http.StatusBadRequest, res.Code, body)
		assert.Equal(t, "Malformed request body", res.Message, body)
	}

	huge := `{"title":"` + strings.Repeat("x", int(maxBodyBytes)) + `"}`
	res := a.do(t, http.MethodPost, "/api/projects", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, res.Code)
}

func TestUpdateProject(t *testing.T) {
	a := newTestAPI(t)
	created := a.do(t, http.MethodPost, "/api/projects",
		`{"title":"Demo","description":"D","url":"https://a.test","tags":["go","api"]}`).project(t)
	path := "/api/projects/" + created.ID

	t.Run("absent fields keep their value", func(t *testing.T) {
		a.clock.Advance(time.Second)
		res := a.do(t, http.MethodPut, path, `{"featured":true}`)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "Project updated successfully", res.Message)

		p := res.project(t)
		assert.True(t, p.Featured)
		assert.Equal(t, created.Title, p.Title)
		assert.Equal(t, created.Description, p.Description)
		assert.Equal(t, created.URL, p.URL)
		assert.Equal(t, created.Tags, p.Tags)
		assert.True(t, created.CreatedAt.Equal(p.CreatedAt))
		assert.True(t, p.UpdatedAt.Equal(created.UpdatedAt.Add(time.Second)))
	})

	t.Run("wrong primitive types change nothing", func(t *testing.T) {
		a.clock.Advance(time.Minute) // fresh update window
		before := a.do(t, http.MethodGet, path, "").Data

		cases := map[string]string{
			"title":       `{"title":5}`,
			"description": `{"description":false}`,
			"url":         `{"url":["https://a.test"]}`,
			"imageUrl":    `{"imageUrl":{}}`,
			"tags":        `{"tags":"go"}`,
			"featured":    `{"featured":"true"}`,
		}
		for field, body := range cases {
			res := a.do(t, http.MethodPut, path, body)
			assert.Equal(t, http.StatusBadRequest, res.Code, field)
			assert.Equal(t, "Invalid type for "+field+".", res.Message, field)
		}

		for _, body := range []string{`{"tags":["go",1]}`, `{"tags":["go",null]}`, `{"title":null}`, `{"title":"New","featured":"yes"}`} {
			res := a.do(t, http.MethodPut, path, body)
			assert.Equal(t, http.StatusBadRequest, res.Code, body)
		}

		after := a.do(t, http.MethodGet, path, "").Data
		assert.JSONEq(t, string(before), string(after))
	})

	t.Run("constraint failure changes nothing", func(t *testing.T) {
		a.clock.Advance(time.Minute)
		before := a.do(t, http.MethodGet, path, "").Data

		res := a.do(t, http.MethodPut, path, `{"title":"ok","url":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Failed to update project", res.Message)
		assert.Equal(t, "Please provide a valid URL starting with http or https", res.Error)

		after := a.do(t, http.MethodGet, path, "").Data
		assert.JSONEq(t, string(before), string(after))
	})

	t.Run("tags replaced", func(t *testing.T) {
		res := a.do(t, http.MethodPut, path, `{"tags":["rust"]}`)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, []string{"rust"}, res.project(t).Tags)
	})

	t.Run("unknown id", func(t *testing.T) {
		res := a.do(t, http.MethodPut, "/api/projects/"+uuid.NewString(), `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, "Project not found", res.Message)

		res = a.do(t, http.MethodPut, "/api/projects/not-a-uuid", `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestListProjects_Filters(t *testing.T) {
	a := newTestAPI(t)
	create := func(body string) projectJSON {
		a.clock.Advance(time.Second)
		res := a.do(t, http.MethodPost, "/api/projects", body)
		require.Equal(t, http.StatusCreated, res.Code, res.Error)
		return res.project(t)
	}
	first := create(`{"title":"first","description":"d","url":"https://a.test","tags":["x"],"featured":true}`)
	second := create(`{"title":"second","description":"d","url":"https://a.test","tags":["y","z"]}`)
	third := create(`{"title":"third","description":"d","url":"https://a.test","tags":["w"],"featured":true}`)

	ids := func(ps []projectJSON) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{third.ID, second.ID, first.ID}},
		{"?featured=true", []string{third.ID, first.ID}},
		{"?featured=false", []string{third.ID, second.ID, first.ID}},
		{"?tags=x,y", []string{second.ID, first.ID}},
		{"?tags=%20z%20,,", []string{second.ID}},
		{"?tags=x,y&featured=true", []string{first.ID}},
		{"?tags=nope", []string{}},
		{"?tags=,", []string{third.ID, second.ID, first.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := a.do(t, http.MethodGet, "/api/projects"+tt.query, "")
			require.Equal(t, http.StatusOK, res.Code)
			assert.Equal(t, tt.want, ids(res.projects(t)))
			assert.Equal(t, len(tt.want), *res.Count)
		})
	}
}

func TestDeleteProject_Missing(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/api/projects", `{"title":"keep","description":"d","url":"https://a.test"}`)

	res := a.do(t, http.MethodDelete, "/api/projects/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = a.do(t, http.MethodDelete, "/api/projects/123", "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	n, err := a.db.ProjectRepo().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProjectRateLimits(t *testing.T) {
	a := newTestAPI(t)

	for i := 0; i < 20; i++ {
		res := a.do(t, http.MethodGet, "/api/projects", "")
		require.Equal(t, http.StatusOK, res.Code, "request %d", i+1)
	}
	limited := a.do(t, http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.False(t, limited.Success)
	assert.Equal(t, "Too many requests for project list from this IP, please try again later.", limited.Message)
	assert.Equal(t, "60", limited.Header.Get("Retry-After"))

	// other classes keep their own counters
	res := a.do(t, http.MethodGet, "/api/projects/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	a.clock.Advance(time.Minute)
	res = a.do(t, http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestProjectRateLimits_Mutations(t *testing.T) {
	a := newTestAPI(t)
	id := uuid.NewString()

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, "/api/projects/"+id, "").Code)
	}
	res := a.do(t, http.MethodDelete, "/api/projects/"+id, "")
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "Too many project deletions from this IP, please try again later.", res.Message)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPut, "/api/projects/"+id, `{}`).Code)
	}
	res = a.do(t, http.MethodPut, "/api/projects/"+id, `{}`)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "Too many project updates from this IP, please try again later.", res.Message)
}

func TestUnlimitedRoutes(t *testing.T) {
	a := newTestAPI(t)

	for i := 0; i < 25; i++ {
		res := a.do(t, http.MethodPost, "/api/projects", `{"title":"p","description":"d","url":"https://a.test"}`)
		require.Equal(t, http.StatusCreated, res.Code)
		res = a.do(t, http.MethodGet, "/api/skills", "")
		require.Equal(t, http.StatusOK, res.Code)
		assert.Empty(t, res.Header.Get("RateLimit-Limit"))
	}
}

func TestSkills(t *testing.T) {
	a := newTestAPI(t)

	create := func(body string) response {
		return a.do(t, http.MethodPost, "/api/skills", body)
	}

	goSkill := create(`{"name":" Go ","category":"language","proficiency":5}`)
	require.Equal(t, http.StatusCreated, goSkill.Code, goSkill.Error)
	assert.Equal(t, "Skill created successfully", goSkill.Message)
	var skill struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Category    string `json:"category"`
		Proficiency int    `json:"proficiency"`
	}
	require.NoError(t, json.Unmarshal(goSkill.Data, &skill))
	assert.Equal(t, "Go", skill.Name)
	assert.Equal(t, "language", skill.Category)

	require.Equal(t, http.StatusCreated, create(`{"name":"Docker","category":"tool","proficiency":4.0}`).Code)
	require.Equal(t, http.StatusCreated, create(`{"name":"Postgres","category":"database","proficiency":3}`).Code)
	require.Equal(t, http.StatusCreated, create(`{"name":"Ada","category":"language","proficiency":1}`).Code)

	t.Run("duplicate name", func(t *testing.T) {
		res := create(`{"name":"Go","category":"tool","proficiency":2}`)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Failed to create skill", res.Message)

		list := a.do(t, http.MethodGet, "/api/skills", "")
		assert.Equal(t, 4, *list.Count)
	})

	t.Run("invalid input", func(t *testing.T) {
		res := create(`{"name":"X","category":"cooking","proficiency":6}`)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Invalid skill category; Proficiency cannot exceed 5", res.Error)

		res = create(`{"name":"X","category":"tool","proficiency":2.5}`)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Invalid type for proficiency.", res.Message)

		res = create(`{"category":"tool"}`)
		assert.Equal(t, "Skill name is required; Proficiency level is required", res.Error)
	})

	t.Run("list sorted by category then name", func(t *testing.T) {
		res := a.do(t, http.MethodGet, "/api/skills", "")
		require.Equal(t, http.StatusOK, res.Code)
		var skills []struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(res.Data, &skills))
		names := []string{}
		for _, s := range skills {
			names = append(names, s.Name)
		}
		assert.Equal(t, []string{"Postgres", "Ada", "Go", "Docker"}, names)
	})

	t.Run("category filter", func(t *testing.T) {
		res := a.do(t, http.MethodGet, "/api/skills?category=language", "")
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, 2, *res.Count)

		res = a.do(t, http.MethodGet, "/api/skills?category=framework", "")
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, 0, *res.Count)
		assert.JSONEq(t, `[]`, string(res.Data))

		res = a.do(t, http.MethodGet, "/api/skills?category=cooking", "")
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Invalid skill category", res.Error)
	})

	t.Run("update", func(t *testing.T) {
		path := "/api/skills/" + skill.ID
		res := a.do(t, http.MethodPut, path, `{"proficiency":4}`)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "Skill updated successfully", res.Message)

		got := a.do(t, http.MethodGet, path, "")
		assert.Contains(t, string(got.Data), `"proficiency":4`)
		assert.Contains(t, string(got.Data), `"name":"Go"`)

		res = a.do(t, http.MethodPut, path, `{"name":"Docker"}`)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Failed to update skill", res.Message)

		res = a.do(t, http.MethodPut, path, `{"category":7}`)
		assert.Equal(t, "Invalid type for category.", res.Message)
	})

	t.Run("delete", func(t *testing.T) {
		path := "/api/skills/" + skill.ID
		res := a.do(t, http.MethodDelete, path, "")
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "Skill deleted successfully", res.Message)
		assert.Contains(t, string(res.Data), skill.ID)

		res = a.do(t, http.MethodDelete, path, "")
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, "Skill not found", res.Message)
	})
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	a := newTestAPI(t)

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	res := a.do(t, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.False(t, res.Success)
}

type brokenProjects struct {
	projectStore
}

func (brokenProjects) FindMany(context.Context, database.ProjectFilter) ([]models.Project, error) {
	return nil, errors.New("connection refused by 10.0.0.5")
}

func TestPersistenceFailureIsGeneric(t *testing.T) {
	h := newProjectHandler(brokenProjects{})

	res := serveRequest(t, h.listProjects(), http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to fetch projects", res.Message)
	assert.Empty(t, res.Error)
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	res := serveRequest(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "Internal server error", res.Message)
}

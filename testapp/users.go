package testapp

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/webcontract/web-contract-tests/testapp/appconfig"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	_ "modernc.org/sqlite"
)

const usersSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);
`

type userStore struct {
	db *sql.DB
}

// openUserStore creates a private in-memory database. A single connection is used because
// every new connection to ":memory:" would get an empty database of its own.
func openUserStore() (*userStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(usersSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &userStore{db: db}, nil
}

type user struct {
	ID   int64
	Name string
}

func (u user) asJSON() ldvalue.Value {
	return ldvalue.ObjectBuild().Set("id", ldvalue.Int(int(u.ID))).Set("name", ldvalue.String(u.Name)).Build()
}

func (s *userStore) create(ctx context.Context, name string) (user, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO users (name) VALUES (?)`, name)
	if err != nil {
		return user{}, err
	}
	id, err := result.LastInsertId()
	return user{ID: id, Name: name}, err
}

func (s *userStore) findByName(ctx context.Context, name string) (user, error) {
	var u user
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM users WHERE name = ? ORDER BY id LIMIT 1`, name).
		Scan(&u.ID, &u.Name)
	return u, err
}

func (s *userStore) allNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// NewUsersApp creates and reads users in an in-memory database that belongs to this app
// instance alone.
func NewUsersApp(config *appconfig.Config) (*App, error) {
	store, err := openUserStore()
	if err != nil {
		return nil, err
	}
	app := NewApp("users", config)
	app.closers = append(app.closers, store.db.Close)

	app.Router.HandleFunc("/create_user", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			writeJSON(w, http.StatusBadRequest, messageBody("name is required"))
			return
		}
		u, err := store.create(r.Context(), name)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, messageBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, u.asJSON())
	}).Methods(http.MethodGet).Name("create_user")

	app.Router.HandleFunc("/read_user", func(w http.ResponseWriter, r *http.Request) {
		u, err := store.findByName(r.Context(), r.URL.Query().Get("name"))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			writeJSON(w, http.StatusNotFound, messageBody("User not found"))
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, messageBody(err.Error()))
		default:
			writeJSON(w, http.StatusOK, u.asJSON())
		}
	}).Methods(http.MethodGet).Name("read_user")

	app.Router.HandleFunc("/read_all", func(w http.ResponseWriter, r *http.Request) {
		names, err := store.allNames(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, messageBody(err.Error()))
			return
		}
		list := ldvalue.ArrayBuild()
		for _, name := range names {
			list.Add(ldvalue.String(name))
		}
		writeJSON(w, http.StatusOK, list.Build())
	}).Methods(http.MethodGet).Name("read_all")

	return app, nil
}

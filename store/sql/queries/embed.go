// Package queries embeds the SQL statements used by the SQL store.
package queries

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var files embed.FS

// Queries holds the statements for one dialect.
type Queries struct {
	Schema string

	InsertUser         string
	SelectUserByID     string
	SelectUserByEmail  string
	UpdateUserStatus   string
	UpdatePasswordHash string

	InsertPost           string
	SelectPost           string
	ListPosts            string
	CountPosts           string
	ListPostIDsByCreator string
	UpdatePost           string
	DeletePost           string
	ImageInUse           string
}

// Load reads the statements for dir ("postgres", "mysql" or "sqlite").
func Load(dir string) (*Queries, error) {
	schema, err := files.ReadFile(dir + "/schema.sql")
	if err != nil {
		return nil, err
	}

	named := make(map[string]string)
	for _, name := range []string{"users.sql", "posts.sql"} {
		content, err := files.ReadFile(dir + "/" + name)
		if err != nil {
			return nil, err
		}
		for k, v := range parseNamedQueries(string(content)) {
			named[k] = v
		}
	}

	q := &Queries{Schema: string(schema)}
	fields := map[string]*string{
		"InsertUser":           &q.InsertUser,
		"SelectUserByID":       &q.SelectUserByID,
		"SelectUserByEmail":    &q.SelectUserByEmail,
		"UpdateUserStatus":     &q.UpdateUserStatus,
		"UpdatePasswordHash":   &q.UpdatePasswordHash,
		"InsertPost":           &q.InsertPost,
		"SelectPost":           &q.SelectPost,
		"ListPosts":            &q.ListPosts,
		"CountPosts":           &q.CountPosts,
		"ListPostIDsByCreator": &q.ListPostIDsByCreator,
		"UpdatePost":           &q.UpdatePost,
		"DeletePost":           &q.DeletePost,
		"ImageInUse":           &q.ImageInUse,
	}
	for name, dst := range fields {
		query, ok := named[name]
		if !ok {
			return nil, fmt.Errorf("queries: %s is missing %s", dir, name)
		}
		*dst = query
	}

	return q, nil
}

// WithTablePrefix returns a copy of q with the default "feed_" prefix replaced.
func (q *Queries) WithTablePrefix(prefix string) *Queries {
	if prefix == DefaultTablePrefix {
		return q
	}
	r := strings.NewReplacer(DefaultTablePrefix, prefix)
	return &Queries{
		Schema:               r.Replace(q.Schema),
		InsertUser:           r.Replace(q.InsertUser),
		SelectUserByID:       r.Replace(q.SelectUserByID),
		SelectUserByEmail:    r.Replace(q.SelectUserByEmail),
		UpdateUserStatus:     r.Replace(q.UpdateUserStatus),
		UpdatePasswordHash:   r.Replace(q.UpdatePasswordHash),
		InsertPost:           r.Replace(q.InsertPost),
		SelectPost:           r.Replace(q.SelectPost),
		ListPosts:            r.Replace(q.ListPosts),
		CountPosts:           r.Replace(q.CountPosts),
		ListPostIDsByCreator: r.Replace(q.ListPostIDsByCreator),
		UpdatePost:           r.Replace(q.UpdatePost),
		DeletePost:           r.Replace(q.DeletePost),
		ImageInUse:           r.Replace(q.ImageInUse),
	}
}

// DefaultTablePrefix is the table prefix written in the .sql files.
const DefaultTablePrefix = "feed_"

// parseNamedQueries splits SQL content on "-- name:" markers.
func parseNamedQueries(content string) map[string]string {
	result := make(map[string]string)

	for _, part := range strings.Split(content, "-- name:") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// First line is the query name, rest is the SQL
		lines := strings.SplitN(part, "\n", 2)
		if len(lines) < 2 {
			continue
		}

		name := strings.TrimSpace(lines[0])
		query := strings.TrimSpace(lines[1])
		if name != "" && query != "" {
			result[name] = query
		}
	}

	return result
}

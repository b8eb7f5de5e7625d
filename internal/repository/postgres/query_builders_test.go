package postgres

import (
	"testing"

	"panel-service/internal/domain/listquery"

	"github.com/stretchr/testify/assert"
)

func TestBuildDomainFilter(t *testing.T) {
	where, args := buildDomainFilter(listquery.Query{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildDomainFilter(listquery.Query{Search: "50%_off"})
	assert.Equal(t, " WHERE name ILIKE $1", where)
	assert.Equal(t, []interface{}{`%50\%\_off%`}, args)
}

func TestDomainOrderBy(t *testing.T) {
	tests := []struct {
		name string
		q    listquery.Query
		want string
	}{
		{"default", listquery.Query{}, "name ASC, id ASC"},
		{"privilege desc", listquery.Query{Sort: "privilege", Order: listquery.Desc}, "privilege DESC, id ASC"},
		{"created_at asc", listquery.Query{Sort: "created_at", Order: listquery.Asc}, "created_at ASC, id ASC"},
		{"unknown column", listquery.Query{Sort: "id; DROP TABLE domains"}, "name ASC, id ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domainOrderBy(tt.q))
		})
	}
}

func TestBuildStorageFilter(t *testing.T) {
	where, args := buildStorageFilter(listquery.Query{Search: "10"})
	assert.Equal(t, " WHERE CAST(size AS TEXT) LIKE $1", where)
	assert.Equal(t, []interface{}{"%10%"}, args)

	where, _ = buildStorageFilter(listquery.Query{})
	assert.Empty(t, where)
}

func TestBuildUserFilter(t *testing.T) {
	where, args := buildUserFilter(listquery.Query{Search: "admin"})
	assert.Equal(t, " WHERE (u.name ILIKE $1 OR u.email ILIKE $1)", where)
	assert.Equal(t, []interface{}{"%admin%"}, args)
}

func TestUserOrderBy(t *testing.T) {
	assert.Equal(t, "u.email DESC, u.id ASC", userOrderBy(listquery.Query{Sort: "email", Order: listquery.Desc}))
	assert.Equal(t, "u.name ASC, u.id ASC", userOrderBy(listquery.Query{Sort: "password_hash"}))
}

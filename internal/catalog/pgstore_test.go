package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestListWhere(t *testing.T) {
	id := uuid.New()
	active := true

	where, args := listWhere(ListFilter{})
	require.Equal(t, "deleted_at IS NULL", where)
	require.Empty(t, args)

	where, args = listWhere(ListFilter{ID: &id, Name: "50%_off", IsActive: &active, Search: "shirt"})
	require.Equal(t,
		"deleted_at IS NULL AND id = $1 AND name ILIKE $2 AND is_active = $3 AND (name ILIKE $4 OR description ILIKE $4 OR id::text ILIKE $4)",
		where)
	require.Equal(t, []any{id, `%50\%\_off%`, true, "%shirt%"}, args)
}

func TestOrderBy(t *testing.T) {
	require.Equal(t, "id ASC", orderBy("", ""))
	require.Equal(t, "id DESC", orderBy("id", "DESC"))
	require.Equal(t, "discount_amount DESC NULLS LAST, id ASC", orderBy(SortDiscountAmount, "desc"))
	require.Equal(t, "id ASC", orderBy("name; DROP TABLE promotions", "asc"))
}

func TestListFilterOffset(t *testing.T) {
	require.Equal(t, 0, ListFilter{Page: 1, Size: 10}.Offset())
	require.Equal(t, 20, ListFilter{Page: 3, Size: 10}.Offset())
	require.Equal(t, 0, ListFilter{Size: 10}.Offset())
}

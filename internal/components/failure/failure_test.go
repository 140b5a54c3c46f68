package failure

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection reset")

	table := []struct {
		name     string
		err      error
		expected Kind
	}{
		{name: "unclassified", err: base, expected: KindUnknown},
		{name: "direct", err: Wrap(KindDownload, base), expected: KindDownload},
		{name: "wrapped again", err: fmt.Errorf("unit 2015-2016 q1: %w", Wrap(KindNavigation, base)), expected: KindNavigation},
		{name: "outermost wins", err: Wrap(KindIntegrity, Wrap(KindDownload, base)), expected: KindIntegrity},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			require.Equal(t, row.expected, KindOf(row.err))
			require.ErrorIs(t, row.err, base)
		})
	}
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(KindParse, nil))
	require.False(t, Is(nil, KindParse))
}

func TestFromStore(t *testing.T) {
	fk := errors.New("constraint failed: FOREIGN KEY constraint failed (787)")
	require.Equal(t, KindSchemaViolation, KindOf(FromStore(fk)))

	unique := errors.New("constraint failed: UNIQUE constraint failed: files.fcra (2067)")
	require.Equal(t, KindSchemaViolation, KindOf(FromStore(unique)))

	disk := errors.New("disk I/O error")
	require.Equal(t, KindStore, KindOf(FromStore(disk)))
	require.True(t, KindOf(FromStore(disk)).Fatal())

	already := Wrap(KindParse, disk)
	require.Equal(t, KindParse, KindOf(FromStore(already)))

	require.NoError(t, FromStore(nil))
}

func TestFromStoreResultCodes(t *testing.T) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer sqldb.Close()
	sqldb.SetMaxOpenConns(1)

	_, err = sqldb.Exec(`
		PRAGMA foreign_keys = ON;
		create table parent (id integer primary key);
		create table child (parent_id integer not null references parent(id));
		insert into parent (id) values (1);
	`)
	require.NoError(t, err)

	_, err = sqldb.Exec("insert into parent (id) values (1)")
	require.Error(t, err)
	// the classification does not depend on how the message is worded
	unique := fmt.Errorf("reserve file: %w", err)
	require.Equal(t, KindSchemaViolation, KindOf(FromStore(unique)))

	_, err = sqldb.Exec("insert into child (parent_id) values (2)")
	require.Error(t, err)
	require.Equal(t, KindSchemaViolation, KindOf(FromStore(err)))

	_, err = sqldb.Exec("insert into missing_table values (1)")
	require.Error(t, err)
	require.Equal(t, KindStore, KindOf(FromStore(err)))
}

func TestExpected(t *testing.T) {
	require.False(t, KindUnknown.Expected())
	require.False(t, KindStore.Expected())
	require.True(t, KindNoData.Expected())
	require.True(t, KindSchemaViolation.Expected())
}

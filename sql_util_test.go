package dbmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func TestSQLBuilderValue(t *testing.T) {
	name := "Rex"
	var missing *string

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"string", "Rex", "'Rex'"},
		{"quote", "it's", "'it''s'"},
		{"int", int64(12), "'12'"},
		{"bool", true, "'true'"},
		{"bytes", []byte("raw"), "'raw'"},
		{"time", time.Date(2014, 4, 16, 10, 30, 0, 0, time.UTC), "'2014-04-16 10:30:00'"},
		{"valid valuer", null.StringFrom("pug"), "'pug'"},
		{"null valuer", null.String{}, "NULL"},
		{"pointer", &name, "'Rex'"},
		{"nil pointer", missing, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &sqlBuilder{}
			require.NoError(t, b.value(tt.in))
			st := b.statement()
			assert.Equal(t, tt.want, st.query)
			assert.Empty(t, st.args)
		})
	}
}

func TestSQLBuilderBindVars(t *testing.T) {
	b := &sqlBuilder{bindVars: true}
	b.write("x=")
	require.NoError(t, b.value(null.StringFrom("pug")))
	b.write(",y=")
	require.NoError(t, b.value(nil))

	st := b.statement()
	assert.Equal(t, "x=?,y=NULL", st.query)
	assert.Equal(t, []any{"pug"}, st.args)
}

func TestSQLBuilderEquals(t *testing.T) {
	b := &sqlBuilder{}
	require.NoError(t, b.equals("id", int64(1)))
	b.write(" AND ")
	require.NoError(t, b.equals("owner", null.String{}))
	assert.Equal(t, "id='1' AND owner IS NULL", b.statement().query)
}

func TestParenthesize(t *testing.T) {
	assert.Equal(t, []string{"(a=1)", "(b=2 OR c=3)"}, parenthesize([]string{" a=1 ", "", "b=2 OR c=3"}))
	assert.Empty(t, parenthesize(nil))
}

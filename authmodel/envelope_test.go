package authmodel_test

import (
	"testing"

	"github.com/jrsteele09/go-dolar-client/authmodel"
	"github.com/stretchr/testify/require"
)

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "object data", in: `{"success":true,"data":{"a":1}}`, want: `{"a":1}`},
		{name: "array data", in: `{"data":[1,2]}`, want: `[1,2]`},
		{name: "numeric data", in: `{"data":1234.5}`, want: `1234.5`},
		{name: "null data", in: `{"data":null,"x":1}`, want: `{"data":null,"x":1}`},
		{name: "zero data", in: `{"data":0}`, want: `{"data":0}`},
		{name: "raw object", in: `{"userId":"u1"}`, want: `{"userId":"u1"}`},
		{name: "raw array", in: `[{"data":1}]`, want: `[{"data":1}]`},
		{name: "scalar", in: `true`, want: `true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, string(authmodel.Unwrap([]byte(tt.in))))
		})
	}
}

func TestMessage(t *testing.T) {
	require.Equal(t, "saldo insuficiente", authmodel.Message([]byte(`{"data":{"message":"saldo insuficiente"}}`), "x"))
	require.Equal(t, "bad", authmodel.Message([]byte(`{"msg":"bad"}`), "x"))
	require.Equal(t, "fallback", authmodel.Message([]byte(`{}`), "fallback"))
}

type record struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestDecodeEnvelope(t *testing.T) {
	t.Run("success with data", func(t *testing.T) {
		env := authmodel.DecodeEnvelope[record]([]byte(`{"success":true,"data":{"id":7,"name":"ana"}}`))
		require.True(t, env.Success)
		require.NotNil(t, env.Data)
		require.Equal(t, record{ID: 7, Name: "ana"}, *env.Data)
		require.Equal(t, "x", env.Reason("x"))
	})

	t.Run("failure with message", func(t *testing.T) {
		env := authmodel.DecodeEnvelope[record]([]byte(`{"success":false,"message":"Saldo insuficiente"}`))
		require.False(t, env.Success)
		require.Nil(t, env.Data)
		require.Equal(t, "Saldo insuficiente", env.Reason("x"))
	})

	t.Run("errors list", func(t *testing.T) {
		env := authmodel.DecodeEnvelope[record]([]byte(`{"errors":["a","","b"]}`))
		require.Equal(t, []string{"a", "b"}, env.Errors)
		require.Equal(t, "a; b", env.Reason("x"))
	})

	t.Run("data of another shape", func(t *testing.T) {
		env := authmodel.DecodeEnvelope[record]([]byte(`{"success":true,"data":[1,2]}`))
		require.True(t, env.Success)
		require.Nil(t, env.Data)
	})

	t.Run("not an object", func(t *testing.T) {
		for _, raw := range []string{`true`, `[1]`, ``, `{bad`} {
			require.Equal(t, authmodel.Envelope[record]{}, authmodel.DecodeEnvelope[record]([]byte(raw)), raw)
		}
	})
}

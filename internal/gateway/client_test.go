package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bibihez/moos/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodPayload = `{
	"persona": {
		"vibe": "quiet adventurer",
		"description": "Maps on the wall, mud on the boots.",
		"traits": ["outdoorsy", "patient", "dry humor"]
	},
	"gifts": [
		{"name": "Trail headlamp", "priceEstimate": "€45", "reason": "Night hikes came up twice."},
		{"name": "Topo map set", "priceEstimate": "€30", "reason": "Collects them."}
	]
}`

func serve(t *testing.T, handler http.HandlerFunc) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.NewClient(srv.URL)
}

func TestClientGenerate(t *testing.T) {
	ctx := context.Background()
	req := gateway.GenerateRequest{
		FriendName: "Sam",
		Budget:     gateway.Budget{Min: 30, Max: 100},
	}

	t.Run("valid response", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.Write([]byte(goodPayload))
		})

		res, err := c.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "quiet adventurer", res.Persona.Vibe)
		require.Len(t, res.Gifts, 2)
		assert.Equal(t, "Trail headlamp", res.Gifts[0].Name)
	})

	t.Run("server error maps to unavailable", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.Generate(ctx, req)
		assert.ErrorIs(t, err, gateway.ErrUnavailable)
	})

	t.Run("unreachable maps to unavailable", func(t *testing.T) {
		c := gateway.NewClient("http://127.0.0.1:1") // nothing listens here
		_, err := c.Generate(ctx, req)
		assert.ErrorIs(t, err, gateway.ErrUnavailable)
	})

	t.Run("envelope-less error status is unavailable", func(t *testing.T) {
		// e.g. a proxy 404: the generator never produced output
		c := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not found"))
		})
		_, err := c.Generate(ctx, req)
		assert.ErrorIs(t, err, gateway.ErrUnavailable)
	})

	t.Run("non-json body is malformed", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("<html>definitely not json</html>"))
		})
		_, err := c.Generate(ctx, req)
		assert.ErrorIs(t, err, gateway.ErrMalformedOutput)
	})

	t.Run("reported generator error is malformed", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error": "model refused"}`))
		})
		_, err := c.Generate(ctx, req)
		require.ErrorIs(t, err, gateway.ErrMalformedOutput)
		assert.Contains(t, err.Error(), "model refused")
	})

	t.Run("missing persona fields fail validation", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"persona": {"vibe": "x"}, "gifts": [{"name": "a", "priceEstimate": "b", "reason": "c"}]}`))
		})
		_, err := c.Generate(ctx, req)
		assert.ErrorIs(t, err, gateway.ErrMalformedOutput)
	})

	t.Run("incomplete gift fails validation", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{
				"persona": {"vibe": "x", "description": "y", "traits": ["z"]},
				"gifts": [{"name": "a", "priceEstimate": "", "reason": "c"}]
			}`))
		})
		_, err := c.Generate(ctx, req)
		assert.ErrorIs(t, err, gateway.ErrMalformedOutput)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *gateway.GenerateResult {
		return &gateway.GenerateResult{
			Persona: gateway.Persona{Vibe: "v", Description: "d", Traits: []string{"t"}},
			Gifts:   []gateway.Gift{{Name: "n", PriceEstimate: "p", Reason: "r"}},
		}
	}

	assert.NoError(t, gateway.Validate(valid()))

	t.Run("no gifts is tolerated", func(t *testing.T) {
		res := valid()
		res.Gifts = nil
		assert.NoError(t, gateway.Validate(res))
	})

	t.Run("empty traits rejected", func(t *testing.T) {
		res := valid()
		res.Persona.Traits = nil
		assert.ErrorIs(t, gateway.Validate(res), gateway.ErrMalformedOutput)
	})

	t.Run("gift without reason rejected", func(t *testing.T) {
		res := valid()
		res.Gifts[0].Reason = ""
		assert.ErrorIs(t, gateway.Validate(res), gateway.ErrMalformedOutput)
	})
}

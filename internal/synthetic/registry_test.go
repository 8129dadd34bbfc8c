package synthetic

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	r.Register("faker.person.firstName", func(args []interface{}) (interface{}, error) { return "Ada", nil })

	fn, err := r.Lookup("faker.person.firstName")
	require.NoError(t, err)
	v, err := fn(nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)

	_, err = r.Lookup("faker.person")
	assert.True(t, errors.Is(err, ErrNotInvocable))

	_, err = r.Lookup("faker.person.middleName")
	assert.True(t, errors.Is(err, ErrPathNotFound))

	_, err = r.Lookup("")
	assert.True(t, errors.Is(err, ErrPathNotFound))
}

func TestRegistry_Paths(t *testing.T) {
	r := NewRegistry()
	noop := func(args []interface{}) (interface{}, error) { return nil, nil }
	r.Register("b.y", noop)
	r.Register("a.x", noop)
	r.Register("a.z", noop)

	assert.Equal(t, []string{"a.x", "a.z", "b.y"}, r.Paths())
}

func call(t *testing.T, r *Registry, path string, args ...interface{}) interface{} {
	t.Helper()
	fn, err := r.Lookup(path)
	require.NoError(t, err, path)
	v, err := fn(args)
	require.NoError(t, err, path)
	return v
}

func TestDefaultRegistry_Generators(t *testing.T) {
	r := NewDefaultRegistry(42)

	for _, path := range r.Paths() {
		t.Run(path, func(t *testing.T) {
			assert.NotNil(t, call(t, r, path))
		})
	}

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}$`), call(t, r, "faker.string.uuid"))
	assert.Contains(t, call(t, r, "faker.internet.email"), "@")
	assert.Len(t, call(t, r, "faker.string.alpha", float64(12)), 12)
	assert.Len(t, call(t, r, "faker.string.numeric", map[string]interface{}{"length": float64(4)}), 4)
	assert.IsType(t, true, call(t, r, "faker.datatype.boolean"))

	_, err := time.Parse(time.RFC3339, call(t, r, "faker.date.past").(string))
	assert.NoError(t, err)
}

func TestDefaultRegistry_NumberRange(t *testing.T) {
	r := NewDefaultRegistry(7)

	for i := 0; i < 50; i++ {
		v := call(t, r, "faker.number.int", map[string]interface{}{"min": float64(5), "max": float64(9)}).(int)
		assert.GreaterOrEqual(t, v, 5)
		assert.LessOrEqual(t, v, 9)

		v = call(t, r, "faker.number.int", float64(1), float64(3)).(int)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 3)
	}
}

func TestDefaultRegistry_InvalidArgs(t *testing.T) {
	r := NewDefaultRegistry(1)

	fn, err := r.Lookup("faker.number.int")
	require.NoError(t, err)
	_, err = fn([]interface{}{map[string]interface{}{"min": float64(10), "max": float64(1)}})
	assert.True(t, errors.Is(err, ErrInvalidArgs))

	fn, err = r.Lookup("faker.string.alpha")
	require.NoError(t, err)
	_, err = fn([]interface{}{"many"})
	assert.True(t, errors.Is(err, ErrInvalidArgs))
}

func TestDefaultRegistry_SeedIsDeterministic(t *testing.T) {
	a := NewDefaultRegistry(99)
	b := NewDefaultRegistry(99)

	assert.Equal(t, call(t, a, "faker.person.fullName"), call(t, b, "faker.person.fullName"))
}

func TestDefaultRegistry_CountIsBounded(t *testing.T) {
	r := NewDefaultRegistry(5)

	for _, path := range []string{"faker.lorem.sentence", "faker.string.alpha", "faker.string.numeric", "faker.date.past"} {
		t.Run(path, func(t *testing.T) {
			fn, err := r.Lookup(path)
			require.NoError(t, err)

			_, err = fn([]interface{}{float64(100000000)})
			assert.True(t, errors.Is(err, ErrInvalidArgs))

			_, err = fn([]interface{}{map[string]interface{}{"length": float64(maxCount + 1)}})
			assert.True(t, errors.Is(err, ErrInvalidArgs))
		})
	}

	assert.Len(t, call(t, r, "faker.string.alpha", float64(maxCount)), maxCount)
}
